package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-desk/internal/api/dto"
	"github.com/spec-kit/complaint-desk/internal/service"
	apperrors "github.com/spec-kit/complaint-desk/pkg/util/errorutil"
)

// UsersHandler exposes auth endpoints for students.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// Login handles POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.auth.Authenticate(c.UserContext(), req.StudentID, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(dto.AuthResponse{
		Success:   true,
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      dto.NewUserResponse(result.User),
	})
}

// Me handles GET /auth/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(dto.UserEnvelope{Success: true, User: dto.NewUserResponse(principal.User)})
}

// ChangePassword handles POST /auth/password/change.
func (h *UsersHandler) ChangePassword(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.auth.ChangePassword(c.UserContext(), principal.User.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: "Password updated"})
}
