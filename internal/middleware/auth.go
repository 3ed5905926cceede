package middleware

import (
	"net/http"
	"strings"

	"github.com/lucasbeniti/todo-api/internal/services"

	"github.com/gin-gonic/gin"
)

// RequireAuth resolves the bearer token to an actor identity and stores it
// on the request context under "user_id" as a uuid.UUID. Every failure
// answers 401 before any handler logic runs.
func RequireAuth(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "missing_token",
				"message": "Authorization header is required",
			})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token_format",
				"message": "Authorization header must use Bearer token",
			})
			return
		}

		actorID, err := authService.ResolveActor(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token",
				"message": "Token validation failed",
			})
			return
		}

		c.Set("user_id", actorID)
		c.Next()
	}
}
