package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/networkhq/network-intake/internal/api/dto"
	"github.com/networkhq/network-intake/internal/domain"
	"github.com/networkhq/network-intake/internal/repository"
	"github.com/networkhq/network-intake/internal/service"
	apperrors "github.com/networkhq/network-intake/pkg/util"
)

// AdminHandler exposes operator endpoints.
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: adminService}
}

// Login handles POST /api/admin/login.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request body", nil)
	}
	if req.Username == "" || req.Password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}

	token, exp, err := h.admin.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": dto.AuthResponse{Token: token, ExpiresAt: exp},
	})
}

// ListSubmissions handles GET /api/admin/submissions?kind=&limit=&offset=.
func (h *AdminHandler) ListSubmissions(c *fiber.Ctx) error {
	filter := repository.SubmissionFilter{
		Kind:   domain.SubmissionKind(c.Query("kind")),
		Limit:  c.QueryInt("limit", 0),
		Offset: c.QueryInt("offset", 0),
	}

	items, err := h.admin.ListSubmissions(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.SubmissionListResponse{
		Data:   items,
		Limit:  filter.EffectiveLimit(),
		Offset: filter.EffectiveOffset(),
	})
}
