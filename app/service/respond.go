package service

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mohdfarhan01/ACADVault/app/apperror"
	"github.com/mohdfarhan01/ACADVault/app/model"
	"github.com/mohdfarhan01/ACADVault/config"
)

// requestContext bounds every unit of work with the configured timeout.
// Cancellation before the commit leaves no partial state; after the commit
// it is a no-op.
func requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	timeout := config.Env.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(c.UserContext(), timeout)
}

func actor(c *fiber.Ctx) (uuid.UUID, model.Role) {
	id, _ := c.Locals("user_id").(uuid.UUID)
	role, _ := c.Locals("role").(model.Role)
	return id, role
}

// writeError maps domain errors to HTTP. StaleVersion and
// InvalidStateTransition both come back as 409 with distinct error codes so
// a reviewer UI can tell "refetch and retry" apart from "already decided".
func writeError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	code := "internal_error"
	message := "An internal error occurred"

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
		switch {
		case errors.Is(err, apperror.ErrValidation):
			status, code = fiber.StatusBadRequest, "validation_error"
		case errors.Is(err, apperror.ErrNotFound):
			status, code = fiber.StatusNotFound, "not_found"
		case errors.Is(err, apperror.ErrUnauthorized):
			status, code = fiber.StatusForbidden, "unauthorized"
		case errors.Is(err, apperror.ErrStaleVersion):
			status, code = fiber.StatusConflict, "stale_version"
		case errors.Is(err, apperror.ErrInvalidStateTransition):
			status, code = fiber.StatusConflict, "invalid_state_transition"
		case errors.Is(err, apperror.ErrSigningUnavailable):
			status, code = fiber.StatusServiceUnavailable, "signing_unavailable"
		case errors.Is(err, apperror.ErrCredentialInvalid):
			status, code = fiber.StatusConflict, "credential_invalid"
		}
	}

	return c.Status(status).JSON(model.ErrorResponse{
		Success: false,
		Message: message,
		Error:   code,
	})
}
