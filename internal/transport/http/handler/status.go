package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Hasin-ai/E-commerce-sub001/internal/apperr"
)

// statusFromError maps domain error kinds onto HTTP status codes.
func statusFromError(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return fiber.StatusBadRequest
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindInsufficientStock, apperr.KindConflict, apperr.KindInvalidTransition:
		return fiber.StatusConflict
	case apperr.KindGateway:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
