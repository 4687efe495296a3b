package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned when the token is invalid.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
	// ErrRevokedToken is returned when the token was logged out.
	ErrRevokedToken = errors.New("token has been revoked")
)

// JWTConfig holds session token configuration.
type JWTConfig struct {
	SecretKey       string
	Issuer          string
	SessionDuration time.Duration
}

// DefaultJWTConfig returns the configuration used when none is supplied.
func DefaultJWTConfig() JWTConfig {
	return JWTConfig{
		SecretKey:       "your-secret-key-change-in-production",
		Issuer:          "community-forum",
		SessionDuration: 14 * 24 * time.Hour,
	}
}

// SessionClaims are the claims carried by a session token.
type SessionClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// JWTManager signs and parses session tokens.
type JWTManager struct {
	config JWTConfig
}

// NewJWTManager creates a new JWTManager with the given configuration.
func NewJWTManager(config JWTConfig) *JWTManager {
	return &JWTManager{
		config: config,
	}
}

// GenerateSessionToken issues a token for the user. Every token gets a
// fresh jti so that it can be revoked on its own.
func (m *JWTManager) GenerateSessionToken(userID, username string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.config.SessionDuration)
	claims := SessionClaims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    m.config.Issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.config.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseSessionToken validates signature, expiry and issuer.
func (m *JWTManager) ParseSessionToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(m.config.SecretKey), nil
	}, jwt.WithIssuer(m.config.Issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// SessionDuration returns the lifetime of new session tokens.
func (m *JWTManager) SessionDuration() time.Duration {
	return m.config.SessionDuration
}
