package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/community-forum/database"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/gorm"
)

// AuthModule provides authentication services.
type AuthModule struct {
	db      *gorm.DB
	revoker TokenRevoker
	service *AuthService
	logger  types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*AuthModule)(nil)
var _ mono.ServiceProviderModule = (*AuthModule)(nil)
var _ mono.HealthCheckableModule = (*AuthModule)(nil)

// NewModule creates a new AuthModule. The database is owned by the caller;
// the revoker is closed when the module stops.
func NewModule(db *gorm.DB, jwtConfig JWTConfig, revoker TokenRevoker, logger types.Logger) *AuthModule {
	if revoker == nil {
		revoker = NewMemoryTokenRevoker()
	}
	logger = logger.WithModule("auth")
	return &AuthModule{
		db:      db,
		revoker: revoker,
		service: NewAuthService(NewUserRepository(db), NewPasswordHasher(), NewJWTManager(jwtConfig), revoker, logger),
		logger:  logger,
	}
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// Service returns the underlying auth service.
func (m *AuthModule) Service() *AuthService {
	return m.service
}

// Start initializes the auth module.
func (m *AuthModule) Start(_ context.Context) error {
	m.logger.Info("Module started", "revoker", fmt.Sprintf("%T", m.revoker))
	return nil
}

// Stop shuts down the module.
func (m *AuthModule) Stop(_ context.Context) error {
	if err := m.revoker.Close(); err != nil {
		m.logger.Warn("Failed to close token revoker", "error", err)
	}
	m.logger.Info("Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *AuthModule) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	if err := database.Ping(m.db); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	details := map[string]any{"revoker": "memory"}
	if r, ok := m.revoker.(*RedisTokenRevoker); ok {
		details["revoker"] = "redis"
		if err := r.Ping(ctx); err != nil {
			return mono.HealthStatus{
				Healthy: false,
				Message: fmt.Sprintf("redis ping failed: %v", err),
				Details: details,
			}
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: details,
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		"register",
		json.Unmarshal,
		json.Marshal,
		m.handleRegister,
	); err != nil {
		return fmt.Errorf("failed to register register service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"login",
		json.Unmarshal,
		json.Marshal,
		m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register login service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"logout",
		json.Unmarshal,
		json.Marshal,
		m.handleLogout,
	); err != nil {
		return fmt.Errorf("failed to register logout service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"validate-token",
		json.Unmarshal,
		json.Marshal,
		m.handleValidateToken,
	); err != nil {
		return fmt.Errorf("failed to register validate-token service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"get-user",
		json.Unmarshal,
		json.Marshal,
		m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register get-user service: %w", err)
	}

	m.logger.Info("Registered services",
		"services", []string{"register", "login", "logout", "validate-token", "get-user"})
	return nil
}

// Known failures travel in the response's Error field so callers can
// match them; anything else is returned as a transport error.

func (m *AuthModule) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (RegisterResponse, error) {
	user, err := m.service.Register(ctx, req.Username, req.Password)
	if err != nil {
		if code := errorCode(err); code != "" {
			return RegisterResponse{Error: code}, nil
		}
		m.logger.Error("Registration failed", "error", err)
		return RegisterResponse{}, err
	}

	m.logger.Info("User registered", "userID", user.ID, "username", user.Username)
	return RegisterResponse{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (m *AuthModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (LoginResponse, error) {
	session, err := m.service.Login(ctx, req.Username, req.Password)
	if err != nil {
		if code := errorCode(err); code != "" {
			return LoginResponse{Error: code}, nil
		}
		m.logger.Error("Login failed", "error", err)
		return LoginResponse{}, err
	}

	return LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func (m *AuthModule) handleLogout(ctx context.Context, req LogoutRequest, _ *mono.Msg) (LogoutResponse, error) {
	if err := m.service.Logout(ctx, req.Token); err != nil {
		if code := errorCode(err); code != "" {
			return LogoutResponse{Error: code}, nil
		}
		m.logger.Error("Logout failed", "error", err)
		return LogoutResponse{}, err
	}
	return LogoutResponse{}, nil
}

func (m *AuthModule) handleValidateToken(ctx context.Context, req ValidateTokenRequest, _ *mono.Msg) (ValidateTokenResponse, error) {
	claims, err := m.service.ValidateToken(ctx, req.Token)
	if err != nil {
		code := errorCode(err)
		if code == "" {
			m.logger.Error("Token validation failed", "error", err)
			return ValidateTokenResponse{}, err
		}
		return ValidateTokenResponse{
			Valid: false,
			Error: code,
		}, nil
	}

	return ValidateTokenResponse{
		Valid:     true,
		UserID:    claims.UserID,
		Username:  claims.Username,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

func (m *AuthModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (GetUserResponse, error) {
	user, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		if code := errorCode(err); code != "" {
			return GetUserResponse{Error: code}, nil
		}
		return GetUserResponse{}, err
	}

	return GetUserResponse{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}, nil
}
