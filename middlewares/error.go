package middlewares

import (
	"errors"

	"analytics-gateway/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var kindStatus = map[services.Kind]int{
	services.KindValidation:            fiber.StatusBadRequest,
	services.KindAuthentication:        fiber.StatusUnauthorized,
	services.KindUnprocessable:         fiber.StatusUnprocessableEntity,
	services.KindAuthorization:         fiber.StatusUnauthorized,
	services.KindForbidden:             fiber.StatusForbidden,
	services.KindUpstreamAuthorization: fiber.StatusBadRequest,
	services.KindPersistence:           fiber.StatusInternalServerError,
	services.KindDownstreamUnavailable: fiber.StatusBadGateway,
}

// ErrorHandler centralizes error responses and keeps messages sanitized.
// Every body has the shape {error, details?}.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		// 1) Service errors (kind decides the status)
		var se *services.Error
		if errors.As(err, &se) {
			status, ok := kindStatus[se.Kind]
			if !ok {
				status = fiber.StatusInternalServerError
			}
			if status >= fiber.StatusInternalServerError {
				log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
			}
			body := fiber.Map{"error": se.Message}
			if se.Details != nil {
				body["details"] = se.Details
			}
			return c.Status(status).JSON(body)
		}

		// 2) Fiber errors (use their status code + message)
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}

		// 3) Validation errors (422 + per-field info)
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			out := make(map[string]string, len(ve))
			for _, fe := range ve {
				out[fe.Field()] = fe.Tag()
			}
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   "Missing required parameters",
				"details": out,
			})
		}

		// 4) Unknown errors (500)
		log.Error("internal error", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}
}
