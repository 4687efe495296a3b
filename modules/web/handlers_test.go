package web

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	forumdomain "github.com/example/community-forum/domain/forum"
	domain "github.com/example/community-forum/domain/user"
	"github.com/example/community-forum/modules/auth"
	"github.com/example/community-forum/modules/forum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireLogin_RedirectsAnonymous(t *testing.T) {
	s := newTestServer(t)

	paths := []string{"/create-room", "/update-room/abc", "/delete-room/abc", "/delete-message/abc"}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			resp := s.get(t, path)
			assert.Equal(t, http.StatusFound, resp.StatusCode)
			assert.Equal(t, "/login?next="+url.QueryEscape(path), resp.Header.Get("Location"))
		})
	}
}

func TestHome_FiltersByQuery(t *testing.T) {
	s := newTestServer(t)
	_, alice := s.createUser(t, "alice")
	ctx := context.Background()

	_, err := s.forum.CreateRoom(ctx, alice, forum.RoomInput{Topic: "Math", Name: "Study"})
	require.NoError(t, err)
	_, err = s.forum.CreateRoom(ctx, alice, forum.RoomInput{Topic: "Food", Name: "Cooking"})
	require.NoError(t, err)

	resp := s.get(t, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "Study")
	assert.Contains(t, body, "Cooking")
	assert.Contains(t, body, "2 rooms available")

	resp = s.get(t, "/?q=math")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = readBody(t, resp)
	assert.Contains(t, body, "Study")
	assert.NotContains(t, body, "Cooking")
	assert.Contains(t, body, "1 rooms available")
}

func TestCreateRoom(t *testing.T) {
	s := newTestServer(t)
	session, alice := s.createUser(t, "alice")

	t.Run("creates room hosted by the current user", func(t *testing.T) {
		resp := s.postForm(t, "/create-room", url.Values{
			"topic":       {"Math"},
			"name":        {"Study"},
			"description": {"Algebra help"},
		}, session)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))

		var room forumdomain.Room
		require.NoError(t, s.db.First(&room, "name = ?", "Study").Error)
		assert.Equal(t, alice.UserID, room.HostID)
	})

	t.Run("missing name re-renders the form", func(t *testing.T) {
		resp := s.postForm(t, "/create-room", url.Values{"topic": {"Math"}}, session)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "This field is required.")
	})

	t.Run("form page lists existing topics", func(t *testing.T) {
		resp := s.get(t, "/create-room", session)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), `<option value="Math">`)
	})
}

func TestCSRF_RejectsMissingToken(t *testing.T) {
	s := newTestServer(t)
	session, _ := s.createUser(t, "alice")

	resp := s.postRaw(t, "/create-room", url.Values{"topic": {"Math"}, "name": {"Study"}}, session)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var count int64
	require.NoError(t, s.db.Model(&forumdomain.Room{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdateRoom(t *testing.T) {
	s := newTestServer(t)
	aliceSession, alice := s.createUser(t, "alice")
	bobSession, bob := s.createUser(t, "bob")
	ctx := context.Background()

	room, err := s.forum.CreateRoom(ctx, alice, forum.RoomInput{Topic: "Math", Name: "Study"})
	require.NoError(t, err)
	path := "/update-room/" + room.ID

	t.Run("host sees prefilled form", func(t *testing.T) {
		resp := s.get(t, path, aliceSession)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := readBody(t, resp)
		assert.Contains(t, body, `value="Study"`)
		assert.Contains(t, body, `value="Math"`)
	})

	t.Run("tampered host field is ignored", func(t *testing.T) {
		resp := s.postForm(t, path, url.Values{
			"topic": {"Physics"},
			"name":  {"Study Group"},
			"host":  {bob.UserID},
		}, aliceSession)
		assert.Equal(t, http.StatusFound, resp.StatusCode)

		got, err := s.forum.GetRoom(ctx, room.ID)
		require.NoError(t, err)
		assert.Equal(t, "Study Group", got.Name)
		assert.Equal(t, "Physics", got.Topic.Name)
		assert.Equal(t, alice.UserID, got.HostID)
	})

	t.Run("non-host is sent home with a flash", func(t *testing.T) {
		resp := s.get(t, path, bobSession)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))
		assert.Equal(t, "You are not allowed here!", flashOf(t, resp))

		resp = s.postForm(t, path, url.Values{"topic": {"Math"}, "name": {"Hijacked"}}, bobSession)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))

		got, err := s.forum.GetRoom(ctx, room.ID)
		require.NoError(t, err)
		assert.Equal(t, "Study Group", got.Name)
	})

	t.Run("unknown room is 404", func(t *testing.T) {
		resp := s.get(t, "/update-room/missing", aliceSession)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestFlash_ShownOnNextPage(t *testing.T) {
	s := newTestServer(t)
	resp := s.get(t, "/", &http.Cookie{Name: flashCookieName, Value: url.QueryEscape("You are not allowed here!")})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "You are not allowed here!")

	cleared := findCookie(resp, flashCookieName)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
}

func TestDeleteRoom(t *testing.T) {
	s := newTestServer(t)
	aliceSession, alice := s.createUser(t, "alice")
	bobSession, _ := s.createUser(t, "bob")
	ctx := context.Background()

	room, err := s.forum.CreateRoom(ctx, alice, forum.RoomInput{Topic: "Math", Name: "Study"})
	require.NoError(t, err)
	path := "/delete-room/" + room.ID

	t.Run("non-host is refused", func(t *testing.T) {
		resp := s.postForm(t, path, nil, bobSession)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))

		_, err := s.forum.GetRoom(ctx, room.ID)
		assert.NoError(t, err)
	})

	t.Run("host confirms", func(t *testing.T) {
		resp := s.get(t, path, aliceSession)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "Are you sure you want to delete")
	})

	t.Run("host deletes", func(t *testing.T) {
		resp := s.postForm(t, path, nil, aliceSession)
		assert.Equal(t, http.StatusFound, resp.StatusCode)

		_, err := s.forum.GetRoom(ctx, room.ID)
		assert.ErrorIs(t, err, forum.ErrNotFound)
	})
}

func TestRoom_PostAndDeleteMessage(t *testing.T) {
	s := newTestServer(t)
	aliceSession, alice := s.createUser(t, "alice")
	bobSession, _ := s.createUser(t, "bob")
	ctx := context.Background()

	room, err := s.forum.CreateRoom(ctx, alice, forum.RoomInput{Topic: "Math", Name: "Study"})
	require.NoError(t, err)
	roomPath := "/room/" + room.ID

	resp := s.postForm(t, roomPath, url.Values{"body": {"hello there"}}, aliceSession)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, roomPath, resp.Header.Get("Location"))

	resp = s.get(t, roomPath)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "hello there")
	assert.Contains(t, body, "Participants (1 joined)")

	var message forumdomain.Message
	require.NoError(t, s.db.First(&message, "room_id = ?", room.ID).Error)
	deletePath := "/delete-message/" + message.ID

	t.Run("empty body is rejected", func(t *testing.T) {
		resp := s.postForm(t, roomPath, url.Values{"body": {"   "}}, aliceSession)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("anonymous post redirects to login", func(t *testing.T) {
		resp := s.postForm(t, roomPath, url.Values{"body": {"hi"}})
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Location"), "/login?next=")
	})

	t.Run("non-author is redirected before confirmation", func(t *testing.T) {
		resp := s.get(t, deletePath, bobSession)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))
		assert.Equal(t, "You are not allowed here!", flashOf(t, resp))

		resp = s.postForm(t, deletePath, nil, bobSession)
		assert.Equal(t, http.StatusFound, resp.StatusCode)

		_, err := s.forum.GetMessage(ctx, message.ID)
		assert.NoError(t, err)
	})

	t.Run("author deletes", func(t *testing.T) {
		resp := s.get(t, deletePath, aliceSession)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "hello there")

		resp = s.postForm(t, deletePath, nil, aliceSession)
		assert.Equal(t, http.StatusFound, resp.StatusCode)

		_, err := s.forum.GetMessage(ctx, message.ID)
		assert.ErrorIs(t, err, forum.ErrNotFound)
	})
}

func TestNotFoundPages(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/room/missing", "/user/missing"} {
		t.Run(path, func(t *testing.T) {
			resp := s.get(t, path)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			assert.Contains(t, readBody(t, resp), "does not exist")
		})
	}
}

func TestProfile(t *testing.T) {
	s := newTestServer(t)
	_, alice := s.createUser(t, "alice")
	ctx := context.Background()

	room, err := s.forum.CreateRoom(ctx, alice, forum.RoomInput{Topic: "Math", Name: "Study"})
	require.NoError(t, err)
	_, err = s.forum.PostMessage(ctx, alice, room.ID, forum.MessageInput{Body: "first!"})
	require.NoError(t, err)

	resp := s.get(t, "/user/"+alice.UserID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "@alice")
	assert.Contains(t, body, "Study")
	assert.Contains(t, body, "first!")
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	expires := time.Now().Add(time.Hour)
	s.auth.loginFunc = func(_ context.Context, username, password string) (*domain.Session, error) {
		if username == "alice" && password == "correct-horse" {
			return &domain.Session{Token: "alice-token", ExpiresAt: expires}, nil
		}
		return nil, auth.ErrInvalidCredentials
	}

	t.Run("success sets the session cookie and follows next", func(t *testing.T) {
		resp := s.postForm(t, "/login", url.Values{
			"username": {"alice"},
			"password": {"correct-horse"},
			"next":     {"/create-room"},
		})
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/create-room", resp.Header.Get("Location"))

		c := findCookie(resp, testCookieName)
		require.NotNil(t, c)
		assert.Equal(t, "alice-token", c.Value)
		assert.True(t, c.HttpOnly)
	})

	t.Run("offsite next falls back home", func(t *testing.T) {
		resp := s.postForm(t, "/login", url.Values{
			"username": {"alice"},
			"password": {"correct-horse"},
			"next":     {"//evil.example"},
		})
		assert.Equal(t, "/", resp.Header.Get("Location"))
	})

	t.Run("bad credentials re-render the form", func(t *testing.T) {
		resp := s.postForm(t, "/login", url.Values{
			"username": {"alice"},
			"password": {"wrong"},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "Username OR password does not exist")
		assert.Nil(t, findCookie(resp, testCookieName))
	})

	t.Run("logged-in users are sent home", func(t *testing.T) {
		session, _ := s.createUser(t, "carol")
		resp := s.get(t, "/login", session)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))
	})
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)
	var registered string
	s.auth.registerFunc = func(_ context.Context, username, password string) (*domain.User, error) {
		if username == "taken" {
			return nil, auth.ErrUserExists
		}
		if len(password) < 8 {
			return nil, auth.ErrWeakPassword
		}
		registered = username
		return &domain.User{ID: "u1", Username: username}, nil
	}
	s.auth.loginFunc = func(_ context.Context, username, _ string) (*domain.Session, error) {
		return &domain.Session{Token: "token-for-" + username, ExpiresAt: time.Now().Add(time.Hour)}, nil
	}

	tests := []struct {
		name       string
		form       url.Values
		wantStatus int
		wantBody   string
	}{
		{
			name:       "password mismatch",
			form:       url.Values{"username": {"dave"}, "password1": {"longenough1"}, "password2": {"longenough2"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "two password fields",
		},
		{
			name:       "username taken",
			form:       url.Values{"username": {"taken"}, "password1": {"longenough"}, "password2": {"longenough"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "already exists",
		},
		{
			name:       "weak password",
			form:       url.Values{"username": {"dave"}, "password1": {"short"}, "password2": {"short"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "too short",
		},
		{
			name:       "success logs in",
			form:       url.Values{"username": {"dave"}, "password1": {"longenough"}, "password2": {"longenough"}},
			wantStatus: http.StatusFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.postForm(t, "/register", tt.form)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantBody != "" {
				assert.Contains(t, readBody(t, resp), tt.wantBody)
			}
		})
	}

	assert.Equal(t, "dave", registered)
}

func TestLogout(t *testing.T) {
	s := newTestServer(t)
	session, _ := s.createUser(t, "alice")

	resp := s.get(t, "/logout", session)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, []string{session.Value}, s.auth.loggedOut)

	c := findCookie(resp, testCookieName)
	require.NotNil(t, c)
	assert.Empty(t, c.Value)
	assert.Equal(t, "You have been logged out.", flashOf(t, resp))
}

func TestLoadSession_ClearsStaleCookie(t *testing.T) {
	s := newTestServer(t)

	resp := s.get(t, "/", &http.Cookie{Name: testCookieName, Value: "revoked"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `href="/login"`)

	c := findCookie(resp, testCookieName)
	require.NotNil(t, c)
	assert.Empty(t, c.Value)
}
