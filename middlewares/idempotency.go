package middlewares

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"companies-backend/models"
)

const (
	idempotencyHeader = "Idempotency-Key"
	maxIdempotencyKey = 128
)

// Idempotency processes Idempotency-Key for mutating HTTP methods. Keys are scoped to the
// authenticated user, so it must run after IsAuthenticatedHeader.
//
// The first request with a key runs the handler and stores its response; a repeat with the
// same request hash replays that response without running the handler. A repeat with a
// different request, or while the first is still running, is a 409. Requests that fail
// (error returned or 5xx) release the key so the client can retry.
func Idempotency(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		method := strings.ToUpper(c.Method())
		if method != fiber.MethodPost && method != fiber.MethodPut && method != fiber.MethodPatch && method != fiber.MethodDelete {
			return c.Next()
		}

		key := strings.TrimSpace(c.Get(idempotencyHeader))
		if key == "" {
			return c.Next()
		}
		if len(key) > maxIdempotencyKey {
			return fiber.NewError(fiber.StatusBadRequest, "Idempotency-Key too long")
		}

		userID, _ := c.Locals(LocalUserID).(string)
		if userID == "" {
			return errUnauthenticated
		}

		path := c.OriginalURL() // includes query string
		reqHash := requestHash(method, path, c.Body(), userID)

		// ---- Phase 1: read or create the "pending" record
		var (
			existing models.IdempotencyKey
			created  bool
		)
		err := db.Transaction(func(tx *gorm.DB) error {
			err := tx.Where("user_id = ? AND key = ?", userID, key).First(&existing).Error
			if err == nil {
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			rec := models.IdempotencyKey{
				Key:         key,
				RequestHash: reqHash,
				Method:      method,
				Path:        path,
				UserID:      userID,
			}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
			existing = rec
			created = true
			return nil
		})
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Lost a race with a concurrent request using the same key.
				return fiber.NewError(fiber.StatusConflict, "A request with this Idempotency-Key is already in progress")
			}
			return err
		}

		if existing.RequestHash != reqHash {
			return fiber.NewError(fiber.StatusConflict, "Idempotency-Key reuse with different request")
		}
		if existing.ResponseStatus != 0 {
			c.Set("Idempotent-Replayed", "true")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(existing.ResponseStatus).Send(existing.ResponseBody)
		}
		if !created {
			return fiber.NewError(fiber.StatusConflict, "A request with this Idempotency-Key is already in progress")
		}

		// ---- Run the handler once.
		if err := c.Next(); err != nil {
			release(db, existing.ID)
			return err
		}

		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			release(db, existing.ID)
			return nil
		}

		// ---- Phase 2: store the response (best-effort: the handler already succeeded)
		now := time.Now().UTC()
		resp := c.Response().Body()
		blob := make([]byte, len(resp))
		copy(blob, resp)

		if err := db.Model(&models.IdempotencyKey{}).
			Where("id = ?", existing.ID).
			Updates(map[string]any{
				"response_status": status,
				"response_body":   datatypes.JSON(blob),
				"completed_at":    &now,
			}).Error; err != nil {
			zap.L().Warn("store idempotent response failed", zap.Error(err), zap.String("key", key))
		}

		return nil
	}
}

// Build deterministic request hash: method|path|body|user
func requestHash(method, path string, body []byte, userID string) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{'\n'})
	h.Write([]byte(path))
	h.Write([]byte{'\n'})
	h.Write(body)
	h.Write([]byte{'\n'})
	h.Write([]byte(userID))
	return hex.EncodeToString(h.Sum(nil))
}

func release(db *gorm.DB, id uint) {
	if err := db.Delete(&models.IdempotencyKey{}, id).Error; err != nil {
		zap.L().Warn("release idempotency key failed", zap.Error(err), zap.Uint("id", id))
	}
}
