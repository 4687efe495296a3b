package web

import (
	"net/url"

	domain "github.com/example/community-forum/domain/user"
	"github.com/example/community-forum/modules/auth"
	"github.com/example/community-forum/modules/forum"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
)

const (
	// UserContextKey is the key used to store user claims in the Fiber context.
	UserContextKey = "user"
)

// LoadSession resolves the session cookie into claims. Requests without a
// valid session continue anonymously and a stale cookie is cleared.
func LoadSession(authAdapter auth.AuthPort, cookies sessionCookies, logger types.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := cookies.token(c)
		if token == "" {
			return c.Next()
		}

		claims, err := authAdapter.ValidateToken(c.UserContext(), token)
		if err != nil {
			logger.Debug("Discarding session", "path", c.Path(), "error", err)
			cookies.clear(c)
			return c.Next()
		}

		c.Locals(UserContextKey, claims)
		return c.Next()
	}
}

// RequireLogin sends anonymous visitors to the login page and back.
func RequireLogin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) == nil {
			return c.Redirect("/login?next=" + url.QueryEscape(c.OriginalURL()))
		}
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *domain.Claims {
	claims, _ := c.Locals(UserContextKey).(*domain.Claims)
	return claims
}

func currentActor(c *fiber.Ctx) forum.Actor {
	claims := currentUser(c)
	if claims == nil {
		return forum.Anonymous
	}
	return forum.Actor{UserID: claims.UserID, Username: claims.Username}
}
