package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/plotpointe/milestones/middleware"
	"github.com/plotpointe/milestones/models"
	"github.com/plotpointe/milestones/utils"
)

const tokenLifetime = 72 * time.Hour

// AuthController handles writer authentication.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates a new controller instance.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and issues a JWT bound to the login row. The
// writer profile is returned so clients don't need a second round trip.
func (a *AuthController) Login(ctx *gin.Context) {
	var req loginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, http.StatusBadRequest, "username and password are required")
		return
	}

	var login models.Login
	if err := a.db.Where("username = ?", req.Username).First(&login).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Fail(ctx, http.StatusUnauthorized, "invalid username or password")
			return
		}
		utils.Fail(ctx, http.StatusInternalServerError, "login failed")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(login.Password), []byte(req.Password)); err != nil {
		utils.Fail(ctx, http.StatusUnauthorized, "invalid username or password")
		return
	}

	var writer models.Writer
	if err := a.db.Where("login_id = ?", login.ID).First(&writer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Fail(ctx, http.StatusNotFound, "writer not found")
			return
		}
		utils.Fail(ctx, http.StatusInternalServerError, "login failed")
		return
	}

	token, err := utils.GenerateToken(login.ID, login.Username, tokenLifetime)
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "login failed")
		return
	}

	utils.OK(ctx, gin.H{
		"token":  token,
		"writer": writer,
	})
}

func getLoginID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextLoginIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}
