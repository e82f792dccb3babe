package mw

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stuud-backend/internal/auth"
)

const SubjectKey = "subject"

// AdminAuth requires a valid admin bearer token. A nil manager leaves the routes open.
func AdminAuth(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtManager == nil {
			c.Next()
			return
		}

		token, err := auth.ExtractTokenFromHeader(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}

		claims, err := jwtManager.Verify(token)
		if err != nil || claims.Subject != auth.AdminSubject {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(SubjectKey, claims.Subject)
		c.Next()
	}
}
