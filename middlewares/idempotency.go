package middlewares

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"strings"
	"time"

	"bizdocs-backend/models"
	"bizdocs-backend/store"

	"github.com/gofiber/fiber/v2"
)

// Idempotency processes Idempotency-Key for mutating HTTP methods. The first
// request with a key runs the handler and its response is stored; repeats with
// the same request replay it, repeats with a different request are rejected.
func Idempotency(keys store.Collection[models.IdempotencyKey]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		method := strings.ToUpper(c.Method())
		if method != fiber.MethodPost && method != fiber.MethodPut && method != fiber.MethodPatch && method != fiber.MethodDelete {
			return c.Next()
		}

		key := strings.TrimSpace(c.Get("Idempotency-Key"))
		if key == "" {
			return c.Next()
		}
		if len(key) > 128 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Idempotency-Key too long"})
		}

		path := c.OriginalURL() // includes query string
		reqHash := requestHash(method, path, c.Body())
		ctx := c.UserContext()

		// ---- Phase 1: find or create the pending record
		existing, found, err := findKey(c, keys, key)
		if err != nil {
			return err
		}
		owner := false
		if !found {
			rec, err := keys.Insert(ctx, models.IdempotencyKey{
				Key:         key,
				RequestHash: reqHash,
				Method:      method,
				Path:        path,
			})
			switch {
			case err == nil:
				existing, owner = rec, true
			case errors.Is(err, store.ErrDuplicate):
				// lost a race with a concurrent request: read the winner
				if existing, found, err = findKey(c, keys, key); err != nil || !found {
					return fiber.NewError(fiber.StatusInternalServerError, "idempotency create failed")
				}
			default:
				log.Printf("idempotency: create %s: %v", key, err)
				return fiber.NewError(fiber.StatusInternalServerError, "idempotency create failed")
			}
		}

		if existing.RequestHash != reqHash {
			return fiber.NewError(fiber.StatusConflict, "Idempotency-Key reuse with different request")
		}
		if existing.ResponseStatus != 0 && existing.ResponseBody != nil {
			c.Status(existing.ResponseStatus)
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Send(existing.ResponseBody)
		}
		if !owner {
			return fiber.NewError(fiber.StatusConflict, "request with this Idempotency-Key is still in progress")
		}

		// a failed run releases the key so the client can retry
		if err := c.Next(); err != nil {
			release(ctx, keys, existing)
			return err
		}

		// ---- Phase 2: store the response (best effort)
		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			release(ctx, keys, existing)
			return nil
		}
		resp := c.Response().Body()
		blob := make([]byte, len(resp))
		copy(blob, resp)
		now := time.Now().UTC()
		if _, err := keys.Update(ctx, existing.ID, map[string]any{
			"response_status": status,
			"response_body":   blob,
			"completed_at":    &now,
		}); err != nil {
			log.Printf("idempotency: store response for %s: %v", key, err)
		}
		return nil
	}
}

func release(ctx context.Context, keys store.Collection[models.IdempotencyKey], rec models.IdempotencyKey) {
	if err := keys.Delete(ctx, rec.ID); err != nil {
		log.Printf("idempotency: release %s: %v", rec.Key, err)
	}
}

func findKey(c *fiber.Ctx, keys store.Collection[models.IdempotencyKey], key string) (models.IdempotencyKey, bool, error) {
	res, err := keys.Select(c.UserContext(), store.Query{Filters: map[string]any{"key": key}, To: 0})
	if err != nil {
		return models.IdempotencyKey{}, false, fiber.NewError(fiber.StatusInternalServerError, "idempotency lookup failed")
	}
	if len(res.Rows) == 0 {
		return models.IdempotencyKey{}, false, nil
	}
	return res.Rows[0], true, nil
}

// requestHash is sha256 over method|path|body.
func requestHash(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{'\n'})
	h.Write([]byte(path))
	h.Write([]byte{'\n'})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
