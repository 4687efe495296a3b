package auth

import (
	"context"
	"errors"

	domain "github.com/example/community-forum/domain/user"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound is returned when no user matches a lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when the username is taken.
	ErrUserExists = errors.New("a user with that username already exists")
)

// UserRepository stores forum accounts.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts user. A duplicate username maps to ErrUserExists.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrUserExists
	}
	return err
}

// FindByID loads a user by primary key.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByUsername loads a user by normalized username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *UserRepository) first(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where(query, arg).Take(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrUserNotFound
	case err != nil:
		return nil, err
	}
	return &user, nil
}

// UsernameExists reports whether username is taken.
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("username = ?", username).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

// UpdatePasswordHash replaces the stored hash for a user.
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	result := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Update("password_hash", hash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
