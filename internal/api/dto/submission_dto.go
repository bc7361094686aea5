package dto

// WaitlistRequest payload for POST /api/waitlist.
type WaitlistRequest struct {
	Email string `json:"email" form:"email"`
}

// PartnerRequest payload for POST /api/partner.
type PartnerRequest struct {
	Organization string `json:"organization" form:"organization"`
	Contact      string `json:"contact" form:"contact"`
	Email        string `json:"email" form:"email"`
	Phone        string `json:"phone" form:"phone"`
}

// SubmissionResponse confirms an accepted submission.
type SubmissionResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success    bool           `json:"success"`
	Error      string         `json:"error"`
	Duplicate  bool           `json:"duplicate,omitempty"`
	RetryAfter int            `json:"retryAfter,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
}
