package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/bubbles/internal/auth"
	svcErr "github.com/oggyb/bubbles/internal/errors"
)

const userIDKey = "userID"

// Auth validates the Authorization header and stores the authenticated
// user id in the request context.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := ResolveUserID(c, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// CurrentUserID returns the authenticated user id set by Auth.
func CurrentUserID(c *gin.Context) uint64 {
	id, _ := c.Get(userIDKey)
	userID, _ := id.(uint64)
	return userID
}

// ResolveUserID authenticates a request from its bearer header, falling
// back to a "token" query parameter for websocket clients that cannot set
// headers.
func ResolveUserID(c *gin.Context, secret string) (uint64, error) {
	token := ""
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return 0, svcErr.ErrUnauthorized
		}
		token = parts[1]
	} else {
		token = c.Query("token")
	}
	if token == "" {
		return 0, svcErr.ErrUnauthorized
	}
	return auth.ParseUserID(secret, token)
}
