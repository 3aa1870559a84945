package service

import (
	"context"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// AuthService exchanges the shared admin password for a bearer token.
type AuthService struct {
	passwordHash string
	tokenMgr     *auth.TokenManager
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, tokens *auth.TokenManager) *AuthService {
	return &AuthService{passwordHash: cfg.AdminPasswordHash, tokenMgr: tokens}
}

// Enabled reports whether an admin credential is configured.
func (s *AuthService) Enabled() bool {
	return s.passwordHash != ""
}

// LoginAdmin verifies the password and issues an admin token.
func (s *AuthService) LoginAdmin(ctx context.Context, password string) (string, time.Time, error) {
	if !s.Enabled() {
		return "", time.Time{}, apperrors.NewForbidden("admin login is disabled")
	}
	if err := auth.ComparePassword(s.passwordHash, password); err != nil {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(auth.AdminSubject, auth.RoleAdmin)
	if err != nil {
		return "", time.Time{}, apperrors.NewInternalError(err)
	}
	return token, exp, nil
}
