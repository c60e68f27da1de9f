package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// ImmutableCache marks responses as cacheable forever. Evidence files are
// stored under random UUID names and never rewritten, so clients can hold
// them for the full max-age.
func ImmutableCache(maxAge time.Duration) gin.HandlerFunc {
	value := fmt.Sprintf("public, max-age=%d, immutable", int(maxAge.Seconds()))
	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		c.Next()
	}
}
