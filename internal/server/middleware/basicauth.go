// file: internal/server/middleware/basicauth.go
// version: 1.1.0
// guid: 3f8a1c5d-7b2e-4d9f-a6c0-8e1b4f7a2d5c

package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/tidybooks/tidybooks/internal/config"
)

// BasicAuth returns a Gin middleware that enforces HTTP Basic Authentication
// when config.AppConfig.BasicAuthEnabled is true. Health and metrics
// endpoints are exempt so probes keep working without credentials.
func BasicAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !config.AppConfig.BasicAuthEnabled {
			c.Next()
			return
		}

		path := c.Request.URL.Path
		if path == "/api/health" || path == "/api/v1/health" || path == "/metrics" {
			c.Next()
			return
		}

		user, pass, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="TidyBooks"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(config.AppConfig.BasicAuthUser)) == 1
		passMatch := bcrypt.CompareHashAndPassword([]byte(config.AppConfig.BasicAuthPassHash), []byte(pass)) == nil

		if !userMatch || !passMatch {
			c.Header("WWW-Authenticate", `Basic realm="TidyBooks"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Next()
	}
}
