package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/prathambahekar/expense-mananger/utils"
)

// AuthRequired validates the Bearer token and stores the user id in the
// request context for handlers.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			utils.Unauthorized(c, "Authorization header required")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header {
			utils.Unauthorized(c, "Authorization header must be a Bearer token")
			c.Abort()
			return
		}

		userID, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}
