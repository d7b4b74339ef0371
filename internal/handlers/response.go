package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"monitoring-service/internal/models"
)

// mapError translates the service error taxonomy to an HTTP status. Fraud
// findings and low verification tiers never arrive here; they are normal
// responses.
func mapError(err error) *fiber.Error {
	switch {
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrUnknownCrop):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrInsufficientData), errors.Is(err, models.ErrDataUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case strings.Contains(err.Error(), "not found"):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

// parseID reads a UUID path parameter.
func parseID(c fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
