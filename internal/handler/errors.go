package handler

import (
	"errors"

	"go-inventory-ledger/internal/importer"
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Error codes returned in the "error" field of failed responses.
const (
	CodeValidation         = "validation"
	CodeNotFound           = "not_found"
	CodeNotEnough          = "not_enough"
	CodeNotEmpty           = "not_empty"
	CodeDuplicate          = "duplicate"
	CodePermissionDenied   = "permission_denied"
	CodeInvalidCredentials = "invalid_credentials"
	CodePendingApproval    = "pending_approval"
	CodeWrongPassword      = "wrong_password"
	CodeInternal           = "internal"
)

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, importer.ErrUnsupportedFormat),
		errors.Is(err, importer.ErrEmptyFile):
		return fiber.StatusBadRequest, CodeValidation
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound, CodeNotFound
	case errors.Is(err, service.ErrInsufficientStock):
		return fiber.StatusConflict, CodeNotEnough
	case errors.Is(err, service.ErrDuplicateKey),
		errors.Is(err, service.ErrUsernameExists):
		return fiber.StatusConflict, CodeDuplicate
	case errors.Is(err, service.ErrPermissionDenied):
		return fiber.StatusForbidden, CodePermissionDenied
	case errors.Is(err, service.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, CodeInvalidCredentials
	case errors.Is(err, service.ErrUserPendingApproval):
		return fiber.StatusForbidden, CodePendingApproval
	case errors.Is(err, service.ErrWrongPassword):
		return fiber.StatusBadRequest, CodeWrongPassword
	default:
		return fiber.StatusInternalServerError, CodeInternal
	}
}

// writeError renders a service error as {"error": code, "message": text}.
// Internal errors are returned to the error handler so they get logged.
func writeError(c *fiber.Ctx, err error) error {
	status, code := classify(err)
	if status == fiber.StatusInternalServerError {
		return err
	}
	return c.Status(status).JSON(fiber.Map{"error": code, "message": err.Error()})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": CodeValidation, "message": msg})
}

// ErrorHandler is the fiber error handler: *fiber.Error keeps its status,
// anything else is logged and reported as an internal error.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var e *fiber.Error
		if errors.As(err, &e) {
			return c.Status(e.Code).JSON(fiber.Map{"error": e.Message, "message": e.Message})
		}
		logger.Error("Unexpected error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   CodeInternal,
			"message": "Internal Server Error",
		})
	}
}
