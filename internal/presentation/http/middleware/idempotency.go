package middleware

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/collection-desk/internal/domain/entity"
	"github.com/sangkips/collection-desk/internal/domain/repository"
	"github.com/sangkips/collection-desk/internal/infrastructure/logger"
	"go.uber.org/zap"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyKeyTTL is how long keys are valid
	IdempotencyKeyTTL = 24 * time.Hour
)

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Repo repository.IdempotencyRepository
}

// responseWriter wraps gin.ResponseWriter to capture the response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyRequired replays the stored response of a request whose
// Idempotency-Key was already processed on the same endpoint. Requests
// without a key are rejected. The key is reserved before the handler runs,
// so a second request arriving while the first is in flight gets a 409.
// Only 2xx responses are stored; any other outcome releases the key and
// the request may be sent again.
func IdempotencyRequired(config IdempotencyConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "Idempotency-Key header is required for this request",
			})
			return
		}

		ctx := c.Request.Context()
		log := logger.FromContext(ctx)
		endpoint := c.Request.Method + " " + c.Request.URL.Path

		reserved, err := config.Repo.Reserve(ctx, &entity.IdempotencyKey{
			Key:       key,
			Endpoint:  endpoint,
			ExpiresAt: time.Now().Add(IdempotencyKeyTTL),
		})
		if err != nil {
			log.Error("idempotency reservation failed", zap.String("key", key), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Failed to check idempotency key",
			})
			return
		}

		if !reserved {
			existing, err := config.Repo.GetByKey(ctx, key, endpoint)
			if err != nil {
				log.Error("idempotency lookup failed", zap.String("key", key), zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"message": "Failed to check idempotency key",
				})
				return
			}
			if existing == nil || existing.IsPending() {
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{
					"success": false,
					"message": "A request with this Idempotency-Key is already in progress",
				})
				return
			}
			c.Header("X-Idempotency-Replayed", "true")
			c.Data(existing.ResponseCode, "application/json; charset=utf-8", []byte(existing.ResponseBody))
			c.Abort()
			return
		}

		storeCtx := context.WithoutCancel(ctx)
		stored := false
		defer func() {
			if stored {
				return
			}
			if err := config.Repo.Release(storeCtx, key, endpoint); err != nil {
				log.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(err))
			}
		}()

		blw := &responseWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		if err := config.Repo.Complete(storeCtx, key, endpoint, status, blw.body.String()); err != nil {
			log.Warn("failed to store idempotency key", zap.String("key", key), zap.Error(err))
			return
		}
		stored = true
	}
}
