package utils

import (
	"github.com/gofiber/fiber/v2"

	"musicschool-news/domain/errs"
	"musicschool-news/pkg/logger"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

func SuccessResponse(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func CreatedResponse(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	body := &ErrorBody{Code: codeForStatus(status), Message: message}
	if err != nil {
		body.Message = err.Error()
	}
	return c.Status(status).JSON(Response{
		Success: false,
		Message: message,
		Error:   body,
	})
}

func UnauthorizedResponse(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(Response{
		Success: false,
		Message: message,
		Error:   &ErrorBody{Code: "UNAUTHORIZED", Message: message},
	})
}

func ForbiddenResponse(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusForbidden).JSON(Response{
		Success: false,
		Message: message,
		Error:   &ErrorBody{Code: "FORBIDDEN", Message: message},
	})
}

// StatusForKind maps a service error kind to its HTTP status.
func StatusForKind(kind errs.Kind) int {
	switch kind {
	case errs.KindValidation:
		return fiber.StatusBadRequest
	case errs.KindNotFound:
		return fiber.StatusNotFound
	case errs.KindConflict:
		return fiber.StatusConflict
	case errs.KindUpload:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorFromErr renders a service error. Internal failures are logged with their cause,
// which never reaches the client.
func ErrorFromErr(c *fiber.Ctx, err error) error {
	kind := errs.KindOf(err)
	status := StatusForKind(kind)

	message := "An unexpected error occurred"
	if kind == errs.KindInternal {
		logger.Error(logger.CategoryAPI, "internal_error", "Request failed with an internal error", err, map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
		})
	} else {
		message = err.Error()
		if e, ok := err.(*errs.Error); ok {
			message = e.Message
		}
	}

	return c.Status(status).JSON(Response{
		Success: false,
		Message: message,
		Error:   &ErrorBody{Code: string(kind), Message: message},
	})
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return string(errs.KindValidation)
	case fiber.StatusNotFound:
		return string(errs.KindNotFound)
	case fiber.StatusConflict:
		return string(errs.KindConflict)
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		return string(errs.KindInternal)
	}
}
