package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/workforce/internal/domain"
)

// Recover turns a handler panic into domain.ErrInternal so the response
// goes through the ErrorHandler like any other failure.
func Recover(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			attrs := []any{
				slog.Any("panic", r),
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
				slog.String("stack", string(debug.Stack())),
			}
			if id, ok := c.Locals("requestid").(string); ok && id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}
			logger.Error("panic recovered", attrs...)

			err = domain.ErrInternal.WithError(fmt.Errorf("panic: %v", r))
		}()
		return c.Next()
	}
}
