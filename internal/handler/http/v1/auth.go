package v1

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/geo_safety_monitor/internal/config"
	"github.com/sirupsen/logrus"
)

// apiKeyQueryParam - браузерный websocket не умеет слать заголовки, поэтому для /stream ключ можно передать в query
const apiKeyQueryParam = "api_key"

// APIKeyAuthMiddleware - middleware для аутентификации по API-ключу
func APIKeyAuthMiddleware(cfg *config.Config, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := extractAPIKey(c)
		entry := log.WithFields(logrus.Fields{
			"path":      c.FullPath(),
			"client_ip": c.ClientIP(),
		})

		if apiKey == "" {
			entry.Warn("API key missing from request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API key required"})
			return
		}

		if !validAPIKey(cfg.APIKeys, apiKey) {
			entry.Warn("Invalid API key provided")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			return
		}

		c.Next()
	}
}

// extractAPIKey ищет ключ в X-API-Key, затем в Authorization: Bearer, затем в query только для websocket-апгрейда
func extractAPIKey(c *gin.Context) string {
	if apiKey := c.GetHeader("X-API-Key"); apiKey != "" {
		return apiKey
	}
	if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		return c.Query(apiKeyQueryParam)
	}
	return ""
}

func validAPIKey(keys []string, apiKey string) bool {
	for _, key := range keys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1 {
			return true
		}
	}
	return false
}
