package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var titlePolicy = bluemonday.StrictPolicy()

// SanitizeTitle strips any markup from a feed-supplied video title before it
// is stored or echoed back to clients. NULL stays NULL so the tracking
// upsert's coalesce semantics are preserved.
func SanitizeTitle(title *string) *string {
	if title == nil {
		return nil
	}
	clean := strings.TrimSpace(titlePolicy.Sanitize(*title))
	return &clean
}
