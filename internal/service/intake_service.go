package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/networkhq/network-intake/internal/domain"
	"github.com/networkhq/network-intake/internal/events"
	"github.com/networkhq/network-intake/internal/observability"
	"github.com/networkhq/network-intake/internal/repository"
	"github.com/networkhq/network-intake/internal/validation"
	apperrors "github.com/networkhq/network-intake/pkg/util"
)

// User-facing outcome messages.
const (
	MsgWaitlistCreated   = "Email added to waitlist successfully"
	MsgWaitlistDuplicate = "Email already exists in waitlist"
	MsgWaitlistFailed    = "Failed to add email to waitlist"
	MsgPartnerCreated    = "Partnership request submitted successfully"
	MsgPartnerDuplicate  = "Partnership request already submitted with this email"
	MsgPartnerFailed     = "Failed to submit partnership request"
)

// IntakeResult is the outcome of a submission that reached the store.
// Duplicate results carry no Submission.
type IntakeResult struct {
	Duplicate  bool
	Message    string
	Submission *domain.Submission
}

// PartnershipInput carries the raw partnership fields.
type PartnershipInput struct {
	Organization string
	Contact      string
	Email        string
	Phone        string
}

// IntakeService enforces the one-record-per-email rule and persists submissions.
type IntakeService struct {
	repo       repository.SubmissionRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
	newID      func() string
}

// IntakeDependencies bundles collaborators for the intake service. Now and
// NewID default to time.Now and uuid.NewString.
type IntakeDependencies struct {
	Repo       repository.SubmissionRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Now        func() time.Time
	NewID      func() string
}

// NewIntakeService constructs the service.
func NewIntakeService(deps IntakeDependencies) *IntakeService {
	s := &IntakeService{
		repo:       deps.Repo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		now:        deps.Now,
		newID:      deps.NewID,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// SubmitWaitlist records email on the waitlist. The caller validates format.
func (s *IntakeService) SubmitWaitlist(ctx context.Context, email string) (*IntakeResult, error) {
	sub := &domain.Submission{
		Kind:      domain.KindWaitlist,
		Email:     validation.NormalizeEmail(email),
		CreatedAt: s.now().UTC(),
	}
	return s.submit(ctx, sub, MsgWaitlistCreated, MsgWaitlistDuplicate, MsgWaitlistFailed)
}

// SubmitPartnership records a partnership request with status PENDING and a
// fresh request identifier.
func (s *IntakeService) SubmitPartnership(ctx context.Context, input PartnershipInput) (*IntakeResult, error) {
	phone := validation.ValidatePhone(input.Phone)
	formatted := strings.TrimSpace(input.Phone)
	if phone.Valid {
		formatted = validation.FormatPhone(input.Phone)
	}

	sub := &domain.Submission{
		Kind:         domain.KindPartnership,
		Email:        validation.NormalizeEmail(input.Email),
		RequestID:    s.newID(),
		Organization: strings.TrimSpace(input.Organization),
		Contact:      strings.TrimSpace(input.Contact),
		Phone:        formatted,
		PhoneRegion:  string(phone.Region),
		Status:       domain.SubmissionStatusPending,
		CreatedAt:    s.now().UTC(),
	}
	return s.submit(ctx, sub, MsgPartnerCreated, MsgPartnerDuplicate, MsgPartnerFailed)
}

func (s *IntakeService) submit(ctx context.Context, sub *domain.Submission, created, duplicate, failed string) (*IntakeResult, error) {
	kind := string(sub.Kind)

	exists, err := s.repo.Exists(ctx, sub.Kind, sub.Email)
	if err != nil {
		s.metrics.RecordSubmission(kind, "failed")
		s.logger.Error("submission lookup failed", zap.String("kind", kind), zap.String("email", sub.Email), zap.Error(err))
		return nil, apperrors.NewStoreFailure(failed, err)
	}
	if exists {
		s.metrics.RecordSubmission(kind, "duplicate")
		return &IntakeResult{Duplicate: true, Message: duplicate}, nil
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.metrics.RecordSubmission(kind, "duplicate")
			return &IntakeResult{Duplicate: true, Message: duplicate}, nil
		}
		s.metrics.RecordSubmission(kind, "failed")
		s.logger.Error("submission write failed", zap.String("kind", kind), zap.String("email", sub.Email), zap.Error(err))
		return nil, apperrors.NewStoreFailure(failed, err)
	}

	s.metrics.RecordSubmission(kind, "created")
	s.publishEvent(ctx, sub)
	return &IntakeResult{Message: created, Submission: sub}, nil
}

func (s *IntakeService) publishEvent(ctx context.Context, sub *domain.Submission) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, events.NewSubmissionEvent(uuid.NewString(), sub)); err != nil {
		s.logger.Warn("event handlers failed", zap.String("kind", string(sub.Kind)), zap.Error(err))
	}
}
