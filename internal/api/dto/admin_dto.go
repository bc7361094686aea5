package dto

import (
	"time"

	"github.com/networkhq/network-intake/internal/domain"
)

// AdminLoginRequest payload for POST /api/admin/login.
type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SubmissionListResponse wraps an admin listing page.
type SubmissionListResponse struct {
	Data   []domain.Submission `json:"data"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}
