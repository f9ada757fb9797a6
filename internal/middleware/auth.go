package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const userIDKey = "user_id"

// TokenParser turns a session token into a user id.
type TokenParser interface {
	Parse(token string) (uuid.UUID, error)
}

// AuthMiddleware requires "Authorization: Bearer <token>" (a bare token is
// accepted too) and stores the caller's id under "user_id".
func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := strings.TrimSpace(c.GetHeader("Authorization"))
		if scheme, rest, ok := strings.Cut(tokenString, " "); ok && strings.EqualFold(scheme, "Bearer") {
			tokenString = strings.TrimSpace(rest)
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not signed in"})
			return
		}

		userID, err := tokens.Parse(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the id stored by AuthMiddleware, or uuid.Nil.
func UserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(userIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
