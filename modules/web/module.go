package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/example/community-forum/modules/auth"
	"github.com/example/community-forum/modules/forum"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
)

// Config configures the HTTP listener and the session cookie.
type Config struct {
	Addr         string
	CookieName   string
	CookieSecure bool
}

// Module serves the forum's HTML pages.
type Module struct {
	cfg      Config
	app      *fiber.App
	auth     auth.AuthPort
	forum    *forum.Service
	registry *prometheus.Registry
	metrics  *httpMetrics
	logger   types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.DependentModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the web module. HTTP metrics are registered on
// registry, which is also what /metrics exposes.
func NewModule(cfg Config, forumService *forum.Service, registry *prometheus.Registry, logger types.Logger) (*Module, error) {
	metrics, err := newHTTPMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("register http metrics: %w", err)
	}
	return &Module{
		cfg:      cfg,
		forum:    forumService,
		registry: registry,
		metrics:  metrics,
		logger:   logger.WithModule("web"),
	}, nil
}

// Name returns the module name.
func (m *Module) Name() string {
	return "web"
}

// Dependencies returns the list of module dependencies.
func (m *Module) Dependencies() []string {
	return []string{"auth", "forum"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.auth = auth.NewAuthAdapter(container)
	}
}

// Start builds the Fiber app and begins listening.
func (m *Module) Start(_ context.Context) error {
	if m.auth == nil {
		return errors.New("auth dependency not set")
	}
	if m.forum == nil {
		return errors.New("forum service not set")
	}

	app, err := m.buildApp()
	if err != nil {
		return err
	}
	m.app = app

	ln, err := net.Listen("tcp", m.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", m.cfg.Addr, err)
	}

	go func() {
		if err := m.app.Listener(ln); err != nil {
			m.logger.Error("HTTP server error", "error", err)
		}
	}()

	m.logger.Info("HTTP server started", "addr", ln.Addr().String())
	return nil
}

// Stop shuts down the HTTP server.
func (m *Module) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	m.logger.Info("Shutting down HTTP server")
	return m.app.ShutdownWithContext(ctx)
}

// Health returns the health status of the module.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if m.app == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "not started",
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"addr": m.cfg.Addr,
		},
	}
}

func (m *Module) buildApp() (*fiber.App, error) {
	views, err := newViews()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	cookies := sessionCookies{name: m.cfg.CookieName, secure: m.cfg.CookieSecure}
	handlers := NewHandlers(m.auth, m.forum, cookies, m.logger)

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		Views:                 views,
		ViewsLayout:           "layouts/main",
		ErrorHandler:          handlers.errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(m.metrics.middleware())

	// Machine endpoints sit ahead of csrf and sessions.
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"module": "web",
		})
	})
	app.Get("/metrics", metricsHandler(m.registry))

	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:_csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieHTTPOnly: true,
		CookieSecure:   m.cfg.CookieSecure,
		Expiration:     time.Hour,
		ContextKey:     csrfContextKey,
	}))
	app.Use(LoadSession(m.auth, cookies, m.logger))

	m.setupRoutes(app, handlers)
	return app, nil
}

func (m *Module) setupRoutes(app *fiber.App, h *Handlers) {
	app.Get("/", h.Home)

	app.Get("/login", h.LoginPage)
	app.Post("/login", h.Login)
	app.Get("/register", h.RegisterPage)
	app.Post("/register", h.Register)
	app.Get("/logout", h.Logout)
	app.Post("/logout", h.Logout)

	app.Get("/user/:id", h.Profile)
	app.Get("/room/:id", h.Room)

	requireLogin := RequireLogin()
	app.Post("/room/:id", requireLogin, h.PostMessage)
	app.Get("/create-room", requireLogin, h.CreateRoomPage)
	app.Post("/create-room", requireLogin, h.CreateRoom)
	app.Get("/update-room/:id", requireLogin, h.UpdateRoomPage)
	app.Post("/update-room/:id", requireLogin, h.UpdateRoom)
	app.Get("/delete-room/:id", requireLogin, h.DeleteRoomPage)
	app.Post("/delete-room/:id", requireLogin, h.DeleteRoom)
	app.Get("/delete-message/:id", requireLogin, h.DeleteMessagePage)
	app.Post("/delete-message/:id", requireLogin, h.DeleteMessage)
}
