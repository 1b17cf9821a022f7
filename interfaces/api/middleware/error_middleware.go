package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"musicschool-news/domain/errs"
	"musicschool-news/pkg/logger"
	"musicschool-news/pkg/utils"
)

// ErrorHandler renders errors that escape handlers. Service errors keep their kind;
// fiber errors (404 route, 413 body limit) keep their status.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var serviceErr *errs.Error
		if errors.As(err, &serviceErr) {
			return utils.ErrorFromErr(c, err)
		}

		code := fiber.StatusInternalServerError
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
		}

		if code >= fiber.StatusInternalServerError {
			logger.Error(logger.CategoryAPI, "error_handler", "Request error occurred", err, map[string]interface{}{
				"status_code": code,
				"path":        c.Path(),
				"method":      c.Method(),
			})
			return utils.ErrorResponse(c, code, "An error occurred", nil)
		}
		return utils.ErrorResponse(c, code, err.Error(), nil)
	}
}
