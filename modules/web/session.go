package web

import (
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const flashCookieName = "forum_flash"

// sessionCookies writes and clears the session and flash cookies.
type sessionCookies struct {
	name   string
	secure bool
}

func (s sessionCookies) token(c *fiber.Ctx) string {
	return c.Cookies(s.name)
}

func (s sessionCookies) set(c *fiber.Ctx, token string, expiresAt time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     s.name,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s sessionCookies) clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     s.name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// flash queues a one-shot message for the next rendered page.
func (s sessionCookies) flash(c *fiber.Ctx, message string) {
	c.Cookie(&fiber.Cookie{
		Name:     flashCookieName,
		Value:    url.QueryEscape(message),
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// popFlash returns and clears the pending flash messages.
func (s sessionCookies) popFlash(c *fiber.Ctx) []string {
	raw := c.Cookies(flashCookieName)
	if raw == "" {
		return nil
	}
	c.Cookie(&fiber.Cookie{
		Name:    flashCookieName,
		Value:   "",
		Path:    "/",
		Expires: time.Unix(0, 0),
		MaxAge:  -1,
	})
	msg, err := url.QueryUnescape(raw)
	if err != nil || strings.TrimSpace(msg) == "" {
		return nil
	}
	return []string{msg}
}

// safeNext keeps redirects on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}
	return next
}
