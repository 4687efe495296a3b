package web

import (
	"errors"
	"strings"

	"github.com/example/community-forum/modules/auth"
	"github.com/example/community-forum/modules/forum"
	"github.com/example/community-forum/validation"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
)

// csrfContextKey is where the csrf middleware stores the form token.
const csrfContextKey = "csrf"

// Handlers contains the HTTP handlers for the forum pages.
type Handlers struct {
	auth    auth.AuthPort
	forum   *forum.Service
	cookies sessionCookies
	logger  types.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authAdapter auth.AuthPort, forumService *forum.Service, cookies sessionCookies, logger types.Logger) *Handlers {
	return &Handlers{
		auth:    authAdapter,
		forum:   forumService,
		cookies: cookies,
		logger:  logger,
	}
}

// render adds the per-request layout values and renders a page.
func (h *Handlers) render(c *fiber.Ctx, status int, page string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	data["User"] = currentUser(c)
	data["Flashes"] = h.cookies.popFlash(c)
	data["CSRF"] = c.Locals(csrfContextKey)
	return c.Status(status).Render(page, data)
}

// fail maps core errors onto responses. Permission errors become a flash
// and a trip home; missing objects a 404 page. Anything else goes to the
// Fiber error handler.
func (h *Handlers) fail(c *fiber.Ctx, err error) error {
	var perr *forum.PermissionError
	switch {
	case errors.As(err, &perr):
		h.cookies.flash(c, perr.Reason)
		return c.Redirect("/")
	case errors.Is(err, forum.ErrNotFound):
		return h.render(c, fiber.StatusNotFound, "error", fiber.Map{
			"Title":   "Not found",
			"Message": "The page you are looking for does not exist.",
		})
	default:
		return err
	}
}

// LoginPage renders the login form.
func (h *Handlers) LoginPage(c *fiber.Ctx) error {
	if currentUser(c) != nil {
		return c.Redirect("/")
	}
	return h.render(c, fiber.StatusOK, "login", fiber.Map{
		"Title":    "Login",
		"Next":     c.Query("next"),
		"Username": "",
	})
}

// Login checks the credentials and starts a session.
func (h *Handlers) Login(c *fiber.Ctx) error {
	if currentUser(c) != nil {
		return c.Redirect("/")
	}

	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")
	next := c.FormValue("next")

	session, err := h.auth.Login(c.UserContext(), username, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return h.render(c, fiber.StatusUnprocessableEntity, "login", fiber.Map{
				"Title":    "Login",
				"Next":     next,
				"Username": username,
				"Error":    "Username OR password does not exist",
			})
		}
		return err
	}

	h.cookies.set(c, session.Token, session.ExpiresAt)
	h.cookies.flash(c, "Welcome back, "+auth.NormalizeUsername(username)+".")
	return c.Redirect(safeNext(next))
}

// RegisterPage renders the registration form.
func (h *Handlers) RegisterPage(c *fiber.Ctx) error {
	return h.render(c, fiber.StatusOK, "register", fiber.Map{
		"Title":    "Register",
		"Username": "",
	})
}

// Register creates an account and logs the new user in.
func (h *Handlers) Register(c *fiber.Ctx) error {
	username := strings.TrimSpace(c.FormValue("username"))
	password1 := c.FormValue("password1")
	password2 := c.FormValue("password2")

	formError := func(field, message string) error {
		return h.render(c, fiber.StatusUnprocessableEntity, "register", fiber.Map{
			"Title":    "Register",
			"Username": username,
			"Errors":   validation.New(field, message),
		})
	}

	if password1 != password2 {
		return formError("password2", "The two password fields didn't match.")
	}

	if _, err := h.auth.Register(c.UserContext(), username, password1); err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidUsername):
			return formError("username", "Enter a valid username. Use letters, digits and @/./+/-/_ only.")
		case errors.Is(err, auth.ErrUserExists):
			return formError("username", "A user with that username already exists.")
		case errors.Is(err, auth.ErrWeakPassword):
			return formError("password1", "This password is too short. It must contain at least 8 characters.")
		case errors.Is(err, auth.ErrPasswordTooLong):
			return formError("password1", "This password is too long. It must contain at most 72 characters.")
		}
		h.logger.Error("Registration failed", "error", err)
		h.cookies.flash(c, "An error occurred during registration")
		return c.Redirect("/register")
	}

	session, err := h.auth.Login(c.UserContext(), username, password1)
	if err != nil {
		return err
	}
	h.cookies.set(c, session.Token, session.ExpiresAt)
	return c.Redirect("/")
}

// Logout ends the session.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	if token := h.cookies.token(c); token != "" {
		if err := h.auth.Logout(c.UserContext(), token); err != nil {
			h.logger.Warn("Logout failed", "error", err)
		}
	}
	h.cookies.clear(c)
	h.cookies.flash(c, "You have been logged out.")
	return c.Redirect("/")
}

// Home lists rooms, topics and recent messages filtered by q.
func (h *Handlers) Home(c *fiber.Ctx) error {
	q := c.Query("q")
	view, err := h.forum.Home(c.UserContext(), q)
	if err != nil {
		return err
	}
	return h.render(c, fiber.StatusOK, "home", fiber.Map{
		"Title": "Home",
		"View":  view,
	})
}

// Profile shows a user's rooms and messages.
func (h *Handlers) Profile(c *fiber.Ctx) error {
	view, err := h.forum.UserProfile(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return h.render(c, fiber.StatusOK, "profile", fiber.Map{
		"Title": view.User.Username,
		"View":  view,
	})
}

func (h *Handlers) renderRoom(c *fiber.Ctx, status int, roomID string, extra fiber.Map) error {
	view, err := h.forum.RoomDetail(c.UserContext(), roomID)
	if err != nil {
		return h.fail(c, err)
	}
	data := fiber.Map{
		"Title": view.Room.Name,
		"View":  view,
	}
	for k, v := range extra {
		data[k] = v
	}
	return h.render(c, status, "room", data)
}

// Room shows a room with its conversation.
func (h *Handlers) Room(c *fiber.Ctx) error {
	return h.renderRoom(c, fiber.StatusOK, c.Params("id"), nil)
}

// PostMessage appends a message to the room.
func (h *Handlers) PostMessage(c *fiber.Ctx) error {
	roomID := c.Params("id")

	var in forum.MessageInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}

	if _, err := h.forum.PostMessage(c.UserContext(), currentActor(c), roomID, in); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			return h.renderRoom(c, fiber.StatusUnprocessableEntity, roomID, fiber.Map{"Errors": verr})
		}
		return h.fail(c, err)
	}
	return c.Redirect("/room/" + roomID)
}

func (h *Handlers) renderRoomForm(c *fiber.Ctx, status int, in forum.RoomInput, verr *validation.Error) error {
	topics, err := h.forum.ListTopics(c.UserContext())
	if err != nil {
		return err
	}
	return h.render(c, status, "room_form", fiber.Map{
		"Title":  "Room",
		"Form":   in,
		"Topics": topics,
		"Errors": verr,
	})
}

// CreateRoomPage renders an empty room form.
func (h *Handlers) CreateRoomPage(c *fiber.Ctx) error {
	return h.renderRoomForm(c, fiber.StatusOK, forum.RoomInput{}, nil)
}

// CreateRoom opens a room hosted by the current user.
func (h *Handlers) CreateRoom(c *fiber.Ctx) error {
	var in forum.RoomInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}

	if _, err := h.forum.CreateRoom(c.UserContext(), currentActor(c), in); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			return h.renderRoomForm(c, fiber.StatusUnprocessableEntity, in, verr)
		}
		return h.fail(c, err)
	}
	return c.Redirect("/")
}

// UpdateRoomPage renders the room form prefilled, for the host only.
func (h *Handlers) UpdateRoomPage(c *fiber.Ctx) error {
	room, err := h.forum.GetRoom(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	if err := forum.CanModifyRoom(currentActor(c), room).Err(); err != nil {
		return h.fail(c, err)
	}
	return h.renderRoomForm(c, fiber.StatusOK, forum.RoomInput{
		Topic:       room.Topic.Name,
		Name:        room.Name,
		Description: room.Description,
	}, nil)
}

// UpdateRoom saves the room form. A submitted host field has no effect.
func (h *Handlers) UpdateRoom(c *fiber.Ctx) error {
	var in forum.RoomInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}

	if _, err := h.forum.UpdateRoom(c.UserContext(), currentActor(c), c.Params("id"), in); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			return h.renderRoomForm(c, fiber.StatusUnprocessableEntity, in, verr)
		}
		return h.fail(c, err)
	}
	return c.Redirect("/")
}

// DeleteRoomPage asks the host to confirm.
func (h *Handlers) DeleteRoomPage(c *fiber.Ctx) error {
	room, err := h.forum.GetRoom(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	if err := forum.CanModifyRoom(currentActor(c), room).Err(); err != nil {
		return h.fail(c, err)
	}
	return h.render(c, fiber.StatusOK, "delete", fiber.Map{
		"Title":  "Delete room",
		"Object": room.Name,
	})
}

// DeleteRoom removes the room.
func (h *Handlers) DeleteRoom(c *fiber.Ctx) error {
	if err := h.forum.DeleteRoom(c.UserContext(), currentActor(c), c.Params("id")); err != nil {
		return h.fail(c, err)
	}
	return c.Redirect("/")
}

// DeleteMessagePage asks the author to confirm.
func (h *Handlers) DeleteMessagePage(c *fiber.Ctx) error {
	message, err := h.forum.GetMessage(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	if err := forum.CanDeleteMessage(currentActor(c), message).Err(); err != nil {
		return h.fail(c, err)
	}
	return h.render(c, fiber.StatusOK, "delete", fiber.Map{
		"Title":  "Delete message",
		"Object": message.Body,
	})
}

// DeleteMessage removes the message.
func (h *Handlers) DeleteMessage(c *fiber.Ctx) error {
	if err := h.forum.DeleteMessage(c.UserContext(), currentActor(c), c.Params("id")); err != nil {
		return h.fail(c, err)
	}
	return c.Redirect("/")
}
