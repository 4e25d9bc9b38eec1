package application

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/casa-guarda/service-listing/internal/domain"
	"github.com/casa-guarda/service-listing/internal/domain/profile"
	"github.com/casa-guarda/service-listing/internal/platform/auth"
)

// LoginRequest holds login credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest holds a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenDTO is returned after a successful login or refresh.
type TokenDTO struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"`
	User         *UserDTO `json:"user"`
}

// AuthService authenticates users against their stored profiles.
type AuthService struct {
	repo       profile.ProfileRepository
	jwtManager *auth.JWTManager
	logger     *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo profile.ProfileRepository, jwtManager *auth.JWTManager, logger *zap.Logger) *AuthService {
	return &AuthService{repo: repo, jwtManager: jwtManager, logger: logger}
}

// Login checks the credentials and issues a token pair.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*TokenDTO, error) {
	p, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		var derr *domain.DomainError
		if errors.As(err, &derr) && derr.Code == domain.CodeNotFound {
			return nil, domain.NewUnauthorizedError("invalid email or password")
		}
		return nil, err
	}
	if !auth.CheckPassword(p.PasswordHash(), req.Password) {
		s.logger.Warn("failed login", zap.String("user_id", p.UserID().String()))
		return nil, domain.NewUnauthorizedError("invalid email or password")
	}
	if !p.IsActive() {
		return nil, domain.NewForbiddenError("account is deactivated")
	}

	s.logger.Info("user logged in", zap.String("user_id", p.UserID().String()))
	return s.issue(p)
}

// Refresh exchanges a refresh token for a new token pair.
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*TokenDTO, error) {
	claims, err := s.jwtManager.ValidateToken(req.RefreshToken)
	if err != nil || claims.TokenType != auth.TokenRefresh {
		return nil, domain.NewUnauthorizedError("invalid refresh token")
	}
	p, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive() {
		return nil, domain.NewForbiddenError("account is deactivated")
	}
	return s.issue(p)
}

func (s *AuthService) issue(p *profile.Profile) (*TokenDTO, error) {
	role := auth.Role(p.Role())
	access, err := s.jwtManager.GenerateAccessToken(p.UserID(), p.Email(), role)
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwtManager.GenerateRefreshToken(p.UserID(), p.Email(), role)
	if err != nil {
		return nil, err
	}
	return &TokenDTO{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.jwtManager.AccessTTL().Seconds()),
		User:         toUserDTO(p),
	}, nil
}
