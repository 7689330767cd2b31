package middleware

import (
	"classifieds_backend/internal/logger"
	"classifieds_backend/internal/services"
	"classifieds_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ExpireOnTouch до хендлера гасит истёкшие промо и подписки вызывающего,
// чтобы он никогда не видел своё устаревшее состояние.
// Ошибка проверки не мешает запросу: её подберёт глобальный проход.
func ExpireOnTouch(expiry services.ExpiryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := GetUserID(c)
		val, ok := c.Get(string(contextkeys.DBContextKey))
		db, isDB := val.(*gorm.DB)
		if userID == "" || !ok || !isDB {
			c.Next()
			return
		}

		result, err := expiry.SweepUser(db, userID)
		ctx := c.Request.Context()
		if err != nil {
			logger.CtxWithError(ctx, "expire on touch failed", err)
		} else if result.Changed() > 0 {
			logger.CtxInfo(ctx, "expired stale state on touch",
				"expired_ads", result.ExpiredAds,
				"expired_subscriptions", result.ExpiredSubscriptions,
				"demoted", result.DemotedUsers > 0,
			)
			// в токене мог остаться старый флаг премиума
			if identity, ok := GetIdentity(c); ok && result.DemotedUsers > 0 {
				identity.IsPremium = false
			}
		}
		c.Next()
	}
}
