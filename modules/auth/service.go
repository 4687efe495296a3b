package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/example/community-forum/domain/user"
	"github.com/example/community-forum/validation"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
)

// Password limits count bytes, which validator's rune-based min/max do not.
const (
	minPasswordLength = 8
	// bcrypt ignores everything past 72 bytes.
	maxPasswordLength = 72
)

var (
	// ErrInvalidCredentials is returned when login credentials are invalid.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidUsername is returned when the username is empty, too long or
	// uses characters outside letters, digits and @.+-_.
	ErrInvalidUsername = errors.New("username may contain only letters, digits and @.+-_ (max 150)")
	// ErrWeakPassword is returned when password is too short.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
	// ErrPasswordTooLong is returned when password exceeds bcrypt's 72-byte limit.
	ErrPasswordTooLong = errors.New("password must be at most 72 characters")
)

// registrationInput holds the fields checked by validator tags.
type registrationInput struct {
	Username string `form:"username" validate:"required,max=150,username"`
}

// NormalizeUsername trims and lowercases a username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// AuthService handles authentication business logic.
type AuthService struct {
	repo    *UserRepository
	hasher  *PasswordHasher
	jwt     *JWTManager
	revoker TokenRevoker
	logger  types.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo *UserRepository, hasher *PasswordHasher, jwt *JWTManager, revoker TokenRevoker, logger types.Logger) *AuthService {
	return &AuthService{
		repo:    repo,
		hasher:  hasher,
		jwt:     jwt,
		revoker: revoker,
		logger:  logger,
	}
}

// Register creates a new user account.
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = NormalizeUsername(username)
	if err := validation.Struct(registrationInput{Username: username}); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			return nil, ErrInvalidUsername
		}
		return nil, err
	}

	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	if len(password) > maxPasswordLength {
		return nil, ErrPasswordTooLong
	}

	exists, err := s.repo.UsernameExists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username existence: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The unique index still catches a concurrent registration of the same name.
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login authenticates a user and issues a session token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	user, err := s.repo.FindByUsername(ctx, NormalizeUsername(username))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.hasher.Burn(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	// Stored hashes follow the configured cost once their owner logs in.
	if s.hasher.NeedsRehash(user.PasswordHash) {
		if err := s.rehash(ctx, user, password); err != nil {
			s.logger.Warn("Password rehash failed", "userID", user.ID, "error", err)
		}
	}

	token, expiresAt, err := s.jwt.GenerateSessionToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	return &domain.Session{
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// rehash stores password at the hasher's current cost. Login proceeds
// whether or not it succeeds.
func (s *AuthService) rehash(ctx context.Context, user *domain.User, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("failed to store password hash: %w", err)
	}
	user.PasswordHash = hash
	return nil
}

// Logout revokes the token for the rest of its lifetime. Logging out an
// expired token is a no-op.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.jwt.ParseSessionToken(token)
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			return nil
		}
		return err
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.revoker.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// ValidateToken validates a session token and returns its claims.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	claims, err := s.jwt.ParseSessionToken(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check revocation: %w", err)
	}
	if revoked {
		return nil, ErrRevokedToken
	}

	return &domain.Claims{
		UserID:    claims.UserID,
		Username:  claims.Username,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}
