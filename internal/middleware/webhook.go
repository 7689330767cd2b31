package middleware

import (
	"crypto/subtle"

	"classifieds_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

const WebhookSecretHeader = "X-Webhook-Secret"

// WebhookSecret пропускает только запросы платёжной границы с общим секретом
func WebhookSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(WebhookSecretHeader)
		if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			apperrors.HandleError(c, apperrors.ErrInvalidWebhookSecret)
			return
		}
		c.Next()
	}
}
