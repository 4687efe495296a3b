package auth

import (
	"errors"
	"time"
)

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterResponse represents a user registration response.
type RegisterResponse struct {
	ID        string    `json:"id,omitempty"`
	Username  string    `json:"username,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Error     string    `json:"error,omitempty"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued session token.
type LoginResponse struct {
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	Error     string    `json:"error,omitempty"`
}

// LogoutRequest represents a logout request.
type LogoutRequest struct {
	Token string `json:"token"`
}

// LogoutResponse represents a logout response.
type LogoutResponse struct {
	Error string `json:"error,omitempty"`
}

// ValidateTokenRequest represents a token validation request.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenResponse represents a token validation response.
type ValidateTokenResponse struct {
	Valid     bool      `json:"valid"`
	UserID    string    `json:"user_id,omitempty"`
	Username  string    `json:"username,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	Error     string    `json:"error,omitempty"`
}

// GetUserRequest represents a get user request.
type GetUserRequest struct {
	UserID string `json:"user_id"`
}

// GetUserResponse represents a get user response.
type GetUserResponse struct {
	ID        string    `json:"id,omitempty"`
	Username  string    `json:"username,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Error     string    `json:"error,omitempty"`
}

// errorCodes maps the sentinel errors that cross the service boundary to
// stable wire codes.
var errorCodes = map[string]error{
	"invalid_credentials": ErrInvalidCredentials,
	"invalid_username":    ErrInvalidUsername,
	"weak_password":       ErrWeakPassword,
	"password_too_long":   ErrPasswordTooLong,
	"user_exists":         ErrUserExists,
	"user_not_found":      ErrUserNotFound,
	"invalid_token":       ErrInvalidToken,
	"expired_token":       ErrExpiredToken,
	"revoked_token":       ErrRevokedToken,
}

// errorCode returns the wire code for a known sentinel, or "".
func errorCode(err error) string {
	for code, sentinel := range errorCodes {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return ""
}

// errorFromCode turns a wire code back into its sentinel.
func errorFromCode(code string) error {
	if err, ok := errorCodes[code]; ok {
		return err
	}
	return errors.New(code)
}
