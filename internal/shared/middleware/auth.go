package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthMiddleware rejects requests without a valid JWT.
// Used on routes that make no sense for guests (profile, address book,
// admin surfaces). Sets user_id and role in the context.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			abortUnauthorized(c, "missing or malformed authorization header")
			return
		}

		claims, err := VerifyToken(token, jwtSecret)
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		userID, role, err := claimsIdentity(claims)
		if err != nil {
			abortUnauthorized(c, "invalid token claims")
			return
		}

		c.Set(ContextKeyIsAuthenticated, true)
		c.Set(ContextKeyUserID, userID)
		c.Set(ContextKeyRole, role)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   message,
	})
	c.Abort()
}

// MustGetUserID returns the authenticated user id. Only call behind
// AuthMiddleware; elsewhere use GetAuthenticatedUserID.
func MustGetUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := GetAuthenticatedUserID(c)
	if !ok {
		return uuid.Nil, false
	}
	return *userID, true
}
