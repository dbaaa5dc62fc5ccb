package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"bookshelf/internal/models"
	"bookshelf/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type userKey struct{}

// AuthRequired is a Fiber middleware that only lets requests with a valid
// bearer token for an existing user through. The user is stored on the
// request and read back with CurrentUser.
func AuthRequired(auth Authenticator, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Expected format: "Bearer <token>"
		token, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "No token provided, authorization denied",
			})
		}

		user, err := auth.Authenticate(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"message": "User not found, authorization denied",
				})
			}
			log.WarnContext(c.UserContext(), "authentication failed", "error", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid token, authorization denied",
			})
		}

		// Stored by value so downstream handlers cannot mutate it.
		c.Locals(userKey{}, *user)
		return c.Next()
	}
}

// CurrentUser returns the user attached by AuthRequired.
func CurrentUser(c *fiber.Ctx) (models.User, bool) {
	user, ok := c.Locals(userKey{}).(models.User)
	return user, ok
}
