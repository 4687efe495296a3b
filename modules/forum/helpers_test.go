package forum

import (
	"testing"
	"time"

	"github.com/example/community-forum/config"
	"github.com/example/community-forum/database"
	"github.com/example/community-forum/domain/user"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(msg string, args ...any)          {}
func (m *mockLogger) Info(msg string, args ...any)           {}
func (m *mockLogger) Warn(msg string, args ...any)           {}
func (m *mockLogger) Error(msg string, args ...any)          {}
func (m *mockLogger) With(args ...any) types.Logger          { return m }
func (m *mockLogger) WithError(err error) types.Logger       { return m }
func (m *mockLogger) WithModule(module string) types.Logger { return m }

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	return NewService(NewRepository(db), &mockLogger{}), db
}

// createUser inserts a user row and returns an actor for it.
func createUser(t *testing.T, db *gorm.DB, username string) Actor {
	t.Helper()
	now := time.Now()
	u := user.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: "x",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, db.Create(&u).Error)
	return Actor{UserID: u.ID, Username: u.Username}
}
