package domain

import "time"

// SubjectType identifies who a token was issued to.
type SubjectType string

const (
	SubjectTypeAdmin SubjectType = "ADMIN"
)

// Token represents issued authentication token metadata.
type Token struct {
	ID        string
	SubjectID string
	Subject   SubjectType
	ExpiresAt time.Time
	IssuedAt  time.Time
}
