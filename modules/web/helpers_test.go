package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/example/community-forum/config"
	"github.com/example/community-forum/database"
	domain "github.com/example/community-forum/domain/user"
	"github.com/example/community-forum/modules/forum"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testCookieName = "forum_session"

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(msg string, args ...any)          {}
func (m *mockLogger) Info(msg string, args ...any)           {}
func (m *mockLogger) Warn(msg string, args ...any)           {}
func (m *mockLogger) Error(msg string, args ...any)          {}
func (m *mockLogger) With(args ...any) types.Logger          { return m }
func (m *mockLogger) WithError(err error) types.Logger       { return m }
func (m *mockLogger) WithModule(module string) types.Logger { return m }

// mockAuthPort implements auth.AuthPort for testing. Tokens handed out by
// signIn validate to the matching claims; everything else is rejected.
type mockAuthPort struct {
	sessions     map[string]*domain.Claims
	registerFunc func(ctx context.Context, username, password string) (*domain.User, error)
	loginFunc    func(ctx context.Context, username, password string) (*domain.Session, error)
	loggedOut    []string
}

func newMockAuthPort() *mockAuthPort {
	return &mockAuthPort{sessions: make(map[string]*domain.Claims)}
}

func (m *mockAuthPort) Register(ctx context.Context, username, password string) (*domain.User, error) {
	if m.registerFunc != nil {
		return m.registerFunc(ctx, username, password)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthPort) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	if m.loginFunc != nil {
		return m.loginFunc(ctx, username, password)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthPort) Logout(_ context.Context, token string) error {
	m.loggedOut = append(m.loggedOut, token)
	delete(m.sessions, token)
	return nil
}

func (m *mockAuthPort) ValidateToken(_ context.Context, token string) (*domain.Claims, error) {
	claims, ok := m.sessions[token]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func (m *mockAuthPort) GetUser(_ context.Context, userID string) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

type testServer struct {
	app    *fiber.App
	module *Module
	auth   *mockAuthPort
	forum  *forum.Service
	db     *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	forumService := forum.NewService(forum.NewRepository(db), &mockLogger{})
	m, err := NewModule(Config{Addr: ":0", CookieName: testCookieName}, forumService, prometheus.NewRegistry(), &mockLogger{})
	require.NoError(t, err)

	authPort := newMockAuthPort()
	m.auth = authPort

	app, err := m.buildApp()
	require.NoError(t, err)

	return &testServer{app: app, module: m, auth: authPort, forum: forumService, db: db}
}

// createUser inserts a user row and returns a session cookie for it along
// with the actor the web layer will derive from that cookie.
func (s *testServer) createUser(t *testing.T, username string) (*http.Cookie, forum.Actor) {
	t.Helper()
	now := time.Now()
	u := domain.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: "x",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.db.Create(&u).Error)

	token := "token-" + u.ID
	s.auth.sessions[token] = &domain.Claims{UserID: u.ID, Username: u.Username, ExpiresAt: now.Add(time.Hour)}
	return &http.Cookie{Name: testCookieName, Value: token}, forum.Actor{UserID: u.ID, Username: u.Username}
}

func (s *testServer) do(t *testing.T, req *http.Request, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (s *testServer) get(t *testing.T, path string, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	return s.do(t, httptest.NewRequest(http.MethodGet, path, nil), cookies...)
}

// csrfCookie fetches a page to obtain a csrf token cookie.
func (s *testServer) csrfCookie(t *testing.T) *http.Cookie {
	t.Helper()
	resp := s.get(t, "/login")
	c := findCookie(resp, "csrf_")
	require.NotNil(t, c, "csrf cookie not issued")
	return c
}

// postForm submits form with a valid csrf token.
func (s *testServer) postForm(t *testing.T, path string, form url.Values, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	token := s.csrfCookie(t)
	if form == nil {
		form = url.Values{}
	}
	form.Set("_csrf", token.Value)
	return s.postRaw(t, path, form, append(cookies, token)...)
}

func (s *testServer) postRaw(t *testing.T, path string, form url.Values, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(t, req, cookies...)
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func flashOf(t *testing.T, resp *http.Response) string {
	t.Helper()
	c := findCookie(resp, flashCookieName)
	if c == nil {
		return ""
	}
	msg, err := url.QueryUnescape(c.Value)
	require.NoError(t, err)
	return msg
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}
