package middlewares

import (
	"github.com/gofiber/fiber/v2"

	"companies-backend/utils"
	"companies-backend/validation"
)

// Bind parses the request body into dst and trims its string fields.
// Returns fiber.ErrBadRequest-style errors for unparseable bodies.
func Bind(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	utils.NormalizeDTO(dst)
	return nil
}

// BindAndValidate parses the request body into dst and validates it.
// Rule failures come back as validation.Errors.
func BindAndValidate(c *fiber.Ctx, dst interface{}) error {
	if err := Bind(c, dst); err != nil {
		return err
	}
	return validation.Struct(dst)
}
