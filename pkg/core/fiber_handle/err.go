package fiber_handle

import (
	"errors"

	errorc "sucaiku/pkg/core/err"

	"github.com/gofiber/fiber/v2"
)

func ErrHandler(ctx *fiber.Ctx, err error) error {

	var e *fiber.Error
	if errors.As(err, &e) {
		return ctx.Status(e.Code).SendString(e.Message)
	}

	cError := errorc.ParseError(err)

	status := fiber.StatusInternalServerError
	if cError.ErrorCode != nil {
		status = cError.Code
	}

	return ctx.Status(status).JSON(fiber.Map{"status": status, "message": cError.Msg, "errData": cError})
}
