package auth

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/community-forum/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort defines the interface for authentication operations.
// This is the port that other modules use to access auth functionality.
type AuthPort interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*domain.Session, error)
	Logout(ctx context.Context, token string) error
	ValidateToken(ctx context.Context, token string) (*domain.Claims, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
}

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

var _ AuthPort = (*AuthAdapter)(nil)

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	return &AuthAdapter{
		container: container,
	}
}

// callService runs a request-reply service with JSON payloads.
func callService[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	return nil
}

// Register creates a user account.
func (a *AuthAdapter) Register(ctx context.Context, username, password string) (*domain.User, error) {
	req := RegisterRequest{Username: username, Password: password}
	var resp RegisterResponse
	if err := callService(ctx, a.container, "register", &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, errorFromCode(resp.Error)
	}

	return &domain.User{
		ID:        resp.ID,
		Username:  resp.Username,
		CreatedAt: resp.CreatedAt,
	}, nil
}

// Login exchanges credentials for a session.
func (a *AuthAdapter) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	req := LoginRequest{Username: username, Password: password}
	var resp LoginResponse
	if err := callService(ctx, a.container, "login", &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, errorFromCode(resp.Error)
	}

	return &domain.Session{
		Token:     resp.Token,
		ExpiresAt: resp.ExpiresAt,
	}, nil
}

// Logout revokes a session token.
func (a *AuthAdapter) Logout(ctx context.Context, token string) error {
	req := LogoutRequest{Token: token}
	var resp LogoutResponse
	if err := callService(ctx, a.container, "logout", &req, &resp); err != nil {
		return err
	}
	if resp.Error != "" {
		return errorFromCode(resp.Error)
	}
	return nil
}

// ValidateToken validates a session token and returns claims.
func (a *AuthAdapter) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	req := ValidateTokenRequest{Token: token}
	var resp ValidateTokenResponse
	if err := callService(ctx, a.container, "validate-token", &req, &resp); err != nil {
		return nil, err
	}

	if !resp.Valid {
		if resp.Error == "" {
			return nil, ErrInvalidToken
		}
		return nil, errorFromCode(resp.Error)
	}

	return &domain.Claims{
		UserID:    resp.UserID,
		Username:  resp.Username,
		ExpiresAt: resp.ExpiresAt,
	}, nil
}

// GetUser retrieves a user by ID.
func (a *AuthAdapter) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	req := GetUserRequest{UserID: userID}
	var resp GetUserResponse
	if err := callService(ctx, a.container, "get-user", &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, errorFromCode(resp.Error)
	}

	return &domain.User{
		ID:        resp.ID,
		Username:  resp.Username,
		CreatedAt: resp.CreatedAt,
	}, nil
}
