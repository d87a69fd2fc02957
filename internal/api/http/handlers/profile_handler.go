package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/dto"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/service"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

// ProfileHandler exposes account maintenance and lookup endpoints.
type ProfileHandler struct {
	profiles *service.ProfileService
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Me handles GET /api/{role}s/me.
func (h *ProfileHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewAuthenticationError("unauthorised request")
	}
	return c.JSON(dto.Success(http.StatusOK, principal.Public(), principal.Role.Label()+" fetched successfully"))
}

// UpdateAccount handles PATCH /api/users/update-account.
func (h *ProfileHandler) UpdateAccount(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewAuthenticationError("unauthorised request")
	}

	var req dto.UpdateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}
	if req.FullName == "" || req.Email == "" {
		return apperrors.NewValidationError("all fields are required")
	}
	if principal.Role == domain.RoleUser && req.Mobile == "" {
		return apperrors.NewValidationError("all fields are required")
	}

	public, err := h.profiles.UpdateDetails(c.UserContext(), principal, service.UpdateDetailsInput{
		FullName: req.FullName,
		Email:    req.Email,
		Mobile:   req.Mobile,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.Success(http.StatusOK, public, "account details updated successfully"))
}

// ChangePassword handles POST /api/{role}s/change-password.
func (h *ProfileHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewAuthenticationError("unauthorised request")
	}

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("old and new passwords are required")
	}

	if err := h.profiles.ChangePassword(c.UserContext(), principal.ID, req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(dto.Success(http.StatusOK, nil, "password changed successfully"))
}

// ListUsers handles GET /api/users (admin only).
func (h *ProfileHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.profiles.List(c.UserContext(), domain.RoleUser)
	if err != nil {
		return err
	}
	return c.JSON(dto.Success(http.StatusOK, users, "users fetched successfully"))
}

// GetUserByID handles GET /api/users/:id (admin only).
func (h *ProfileHandler) GetUserByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return apperrors.NewValidationError("invalid request")
	}

	user, err := h.profiles.GetPublicByID(c.UserContext(), domain.RoleUser, id)
	if err != nil {
		return err
	}
	return c.JSON(dto.Success(http.StatusOK, user, "user fetched successfully"))
}
