package domain

import "time"

// SubmissionKind distinguishes the two record variants sharing a store.
type SubmissionKind string

const (
	KindWaitlist    SubmissionKind = "waitlist"
	KindPartnership SubmissionKind = "partnership"
)

// Valid reports whether k is a known kind.
func (k SubmissionKind) Valid() bool {
	return k == KindWaitlist || k == KindPartnership
}

// SubmissionStatus is the workflow tag carried by partnership requests.
type SubmissionStatus string

const (
	SubmissionStatusPending SubmissionStatus = "PENDING"
)

// Submission is an append-only intake record. At most one exists per
// (Kind, Email); records are never updated after creation.
type Submission struct {
	Kind         SubmissionKind   `json:"kind" dynamodbav:"type"`
	Email        string           `json:"email" dynamodbav:"email"`
	RequestID    string           `json:"requestId,omitempty" dynamodbav:"requestId,omitempty"`
	Organization string           `json:"organization,omitempty" dynamodbav:"organization,omitempty"`
	Contact      string           `json:"contact,omitempty" dynamodbav:"contact,omitempty"`
	Phone        string           `json:"phone,omitempty" dynamodbav:"phone,omitempty"`
	PhoneRegion  string           `json:"phoneRegion,omitempty" dynamodbav:"phoneRegion,omitempty"`
	Status       SubmissionStatus `json:"status,omitempty" dynamodbav:"status,omitempty"`
	CreatedAt    time.Time        `json:"createdAt" dynamodbav:"createdAt"`
}

// Key is the natural identifier used for duplicate detection.
func (s *Submission) Key() string {
	return string(s.Kind) + "#" + s.Email
}
