package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OK writes a success response. Extra payload fields are merged beside the
// success flag so handlers match the documented body shapes exactly.
func OK(ctx *gin.Context, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	ctx.JSON(http.StatusOK, body)
}

// Fail writes a failure response with a generic, user-safe message.
func Fail(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{"success": false, "error": message})
}
