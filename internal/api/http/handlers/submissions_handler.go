package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/networkhq/network-intake/internal/api/dto"
	"github.com/networkhq/network-intake/internal/service"
	"github.com/networkhq/network-intake/internal/validation"
	apperrors "github.com/networkhq/network-intake/pkg/util"
)

const msgInvalidBody = "Invalid request body"

// SubmissionsHandler serves the public intake endpoints. Rate limiting runs
// before these handlers; they check required fields, then formats, then
// hand off to the intake service.
type SubmissionsHandler struct {
	intake *service.IntakeService
}

// NewSubmissionsHandler constructs handler.
func NewSubmissionsHandler(intake *service.IntakeService) *SubmissionsHandler {
	return &SubmissionsHandler{intake: intake}
}

// Waitlist handles POST /api/waitlist.
func (h *SubmissionsHandler) Waitlist(c *fiber.Ctx) error {
	var req dto.WaitlistRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := validation.RequireFields(
		validation.Field{Name: "email", Value: req.Email, Message: "Email is required"},
	); err != nil {
		return missingField(err)
	}
	if res := validation.ValidateEmail(req.Email); !res.Valid {
		return apperrors.NewValidationError(res.Error, nil)
	}

	result, err := h.intake.SubmitWaitlist(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	return respond(c, result)
}

// Partner handles POST /api/partner.
func (h *SubmissionsHandler) Partner(c *fiber.Ctx) error {
	var req dto.PartnerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := validation.RequireFields(
		validation.Field{Name: "organization", Value: req.Organization, Message: "Organization name is required"},
		validation.Field{Name: "contact", Value: req.Contact, Message: "Contact person name is required"},
		validation.Field{Name: "email", Value: req.Email, Message: "Email is required"},
		validation.Field{Name: "phone", Value: req.Phone, Message: "Phone number is required"},
	); err != nil {
		return missingField(err)
	}
	if res := validation.ValidateEmail(req.Email); !res.Valid {
		return apperrors.NewValidationError(res.Error, nil)
	}
	if res := validation.ValidatePhone(req.Phone); !res.Valid {
		return apperrors.NewValidationError(res.Error, nil)
	}

	result, err := h.intake.SubmitPartnership(c.UserContext(), service.PartnershipInput{
		Organization: req.Organization,
		Contact:      req.Contact,
		Email:        req.Email,
		Phone:        req.Phone,
	})
	if err != nil {
		return err
	}
	return respond(c, result)
}

// parseBody treats an empty body as an empty object so the required-field
// checks report the missing field. A body sent without a Content-Type is
// decoded as JSON.
func parseBody(c *fiber.Ctx, out interface{}) error {
	body := c.Body()
	if len(body) == 0 {
		return nil
	}
	var err error
	if c.Get(fiber.HeaderContentType) == "" {
		err = c.App().Config().JSONDecoder(body, out)
	} else {
		err = c.BodyParser(out)
	}
	if err != nil {
		return apperrors.NewValidationError(msgInvalidBody, nil)
	}
	return nil
}

func respond(c *fiber.Ctx, result *service.IntakeResult) error {
	if result.Duplicate {
		return apperrors.NewDuplicate(result.Message)
	}
	resp := dto.SubmissionResponse{Success: true, Message: result.Message}
	if result.Submission != nil {
		resp.RequestID = result.Submission.RequestID
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

func missingField(err error) error {
	var missing *validation.MissingFieldError
	if errors.As(err, &missing) {
		return apperrors.NewValidationError(missing.Message, map[string]any{"field": missing.Field})
	}
	return apperrors.NewValidationError(err.Error(), nil)
}
