package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuth accepts requests whose bearer token matches the bcrypt hash.
// An empty hash rejects every request.
func AdminAuth(tokenHash string, log *logrus.Logger) gin.HandlerFunc {
	hash := []byte(tokenHash)
	return func(c *gin.Context) {
		if len(hash) == 0 {
			log.Warn("Middleware: Admin route called but no admin token is configured")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"Status": "Fail", "Message": "Admin API disabled"})
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Warn("Middleware: Authorization header is missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"Status": "Fail", "Message": "Authorization header required"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
			log.Warn("Middleware: Invalid Authorization header format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"Status": "Fail", "Message": "Invalid Authorization header format"})
			return
		}

		rawToken := strings.TrimSpace(parts[1])
		if err := bcrypt.CompareHashAndPassword(hash, []byte(rawToken)); err != nil {
			log.WithField("remote_ip", c.ClientIP()).Warn("Middleware: Rejected admin token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"Status": "Fail", "Message": "Invalid token"})
			return
		}

		c.Set("admin", true)
		c.Next()
	}
}
