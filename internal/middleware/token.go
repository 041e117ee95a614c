package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lhu-dashboard-api/pkg/upstream"
)

// ForwardToken copies the caller's bearer token onto the request context so upstream calls
// are made on the student's behalf. The token is not validated here; the university API does that.
func ForwardToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			c.Next()
			return
		}
		ctx := upstream.WithToken(c.Request.Context(), parts[1])
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
