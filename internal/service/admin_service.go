package service

import (
	"context"
	"time"

	"github.com/networkhq/network-intake/internal/auth"
	"github.com/networkhq/network-intake/internal/config"
	"github.com/networkhq/network-intake/internal/domain"
	"github.com/networkhq/network-intake/internal/repository"
	apperrors "github.com/networkhq/network-intake/pkg/util"
)

// AdminService authenticates the operator account and exposes read access to
// stored submissions.
type AdminService struct {
	submissions  repository.SubmissionRepository
	tokenMgr     *auth.TokenManager
	username     string
	passwordHash string
}

// NewAdminService builds the service. Login is disabled while no password
// hash is configured.
func NewAdminService(cfg config.AuthConfig, submissions repository.SubmissionRepository) *AdminService {
	return &AdminService{
		submissions:  submissions,
		tokenMgr:     auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		username:     cfg.AdminUsername,
		passwordHash: cfg.AdminPasswordHash,
	}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AdminService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Login checks the operator credentials and issues an access token.
func (s *AdminService) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	if s.passwordHash == "" {
		return "", time.Time{}, apperrors.NewForbidden("admin login disabled")
	}
	// Both checks always run.
	userOK := auth.EqualUsername(username, s.username)
	passErr := auth.ComparePassword(s.passwordHash, password)
	if !userOK || passErr != nil {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, meta, err := s.tokenMgr.GenerateToken(s.username, domain.SubjectTypeAdmin)
	if err != nil {
		return "", time.Time{}, apperrors.NewInternalError(err)
	}
	return token, meta.ExpiresAt, nil
}

// ListSubmissions returns stored records, newest first.
func (s *AdminService) ListSubmissions(ctx context.Context, filter repository.SubmissionFilter) ([]domain.Submission, error) {
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, apperrors.NewValidationError("unknown submission kind", map[string]any{"kind": string(filter.Kind)})
	}
	items, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewStoreFailure("Failed to list submissions", err)
	}
	return items, nil
}
