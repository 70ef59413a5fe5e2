package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ywqqqq/xuedong-ai/internal/apperror"
)

// ErrorHandler maps domain error kinds onto HTTP status codes. Wired
// into the fiber config so controllers can just return errors.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message, nil))
	}

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		code := fiber.StatusInternalServerError
		switch appErr.Kind {
		case apperror.KindInvalidRequest:
			code = fiber.StatusBadRequest
		case apperror.KindNotFound:
			code = fiber.StatusNotFound
		case apperror.KindUpstream:
			code = fiber.StatusBadGateway
		case apperror.KindUpstreamTimeout:
			code = fiber.StatusGatewayTimeout
		case apperror.KindStorage:
			code = fiber.StatusInternalServerError
		}
		return ctx.Status(code).JSON(ErrorResponse(appErr.Message, nil))
	}

	return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse("internal server error", nil))
}
