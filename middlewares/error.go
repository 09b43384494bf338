package middlewares

import (
	"errors"
	"log"

	"bizdocs-backend/ledger"
	"bizdocs-backend/services"
	"bizdocs-backend/store"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandler centralizes error responses and keeps messages sanitized.
func ErrorHandler(c *fiber.Ctx, err error) error {
	// 1) Fiber errors (use their status code + message)
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}

	// 2) Validation errors (422 + per-field info, keyed by json name)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make(map[string]string, len(ve))
		for _, fe := range ve {
			out[fe.Field()] = fe.Tag()
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "validation failed",
			"errors":  out,
		})
	}

	// 3) Business rules checked before any write
	var be *services.ValidationError
	if errors.As(err, &be) {
		body := fiber.Map{"message": be.Message}
		if be.Field != "" {
			body["errors"] = map[string]string{be.Field: be.Message}
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(body)
	}
	if errors.Is(err, ledger.ErrIncomplete) || errors.Is(err, ledger.ErrNegative) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": err.Error()})
	}
	if errors.Is(err, store.ErrUnknownColumn) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	// 4) Store errors
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "not found"})
	}
	if errors.Is(err, store.ErrDuplicate) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	}
	var de *store.DecodeError
	if errors.As(err, &de) {
		log.Printf("decode error: %v", de)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": "stored record is incomplete"})
	}

	// 5) Unknown errors (500)
	log.Printf("internal error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "internal server error",
	})
}
