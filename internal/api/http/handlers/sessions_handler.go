package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/dto"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/service"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

// SessionsHandler exposes the session lifecycle endpoints for one role.
// The same handler type is instantiated for users and admins; only the role
// tag and the mobile-handle requirement differ.
type SessionsHandler struct {
	sessions *service.SessionService
	role     domain.Role
}

// NewSessionsHandler constructs a handler bound to a role.
func NewSessionsHandler(sessions *service.SessionService, role domain.Role) *SessionsHandler {
	return &SessionsHandler{sessions: sessions, role: role}
}

// Register handles POST /api/{role}s/register.
func (h *SessionsHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}
	if req.FullName == "" || req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("all fields are compulsory")
	}
	if h.role == domain.RoleUser && req.Mobile == "" {
		return apperrors.NewValidationError("all fields are compulsory")
	}

	principal, err := h.sessions.Register(c.UserContext(), h.role, service.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Mobile:   req.Mobile,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(dto.Success(
		http.StatusCreated,
		fiber.Map{h.role.Label(): principal.Public()},
		h.role.Label()+" registered successfully",
	))
}

// Login handles POST /api/{role}s/login.
func (h *SessionsHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}
	if req.Email == "" && req.Mobile == "" {
		return apperrors.NewValidationError("email or mobile field is missing")
	}
	if req.Password == "" {
		return apperrors.NewValidationError("password field is missing")
	}

	principal, pair, err := h.sessions.Login(c.UserContext(), h.role, service.LoginInput{
		Email:    req.Email,
		Mobile:   req.Mobile,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	setTokenCookies(c, pair)
	return c.JSON(dto.Success(
		http.StatusOK,
		fiber.Map{
			h.role.Label(): principal.Public(),
			"accessToken":  pair.AccessToken,
			"refreshToken": pair.RefreshToken,
		},
		"login successful",
	))
}

// Refresh handles POST /api/{role}s/refresh-token. The refresh token is
// read from the cookie, falling back to the request body.
func (h *SessionsHandler) Refresh(c *fiber.Ctx) error {
	presented := c.Cookies(auth.RefreshTokenCookie)
	if presented == "" {
		var req dto.RefreshRequest
		_ = c.BodyParser(&req)
		presented = req.RefreshToken
	}

	pair, err := h.sessions.Refresh(c.UserContext(), h.role, presented)
	if err != nil {
		return err
	}

	setTokenCookies(c, pair)
	return c.JSON(dto.Success(
		http.StatusOK,
		dto.TokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken},
		"access token refreshed",
	))
}

// Logout handles POST /api/{role}s/logout.
func (h *SessionsHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewAuthenticationError("unauthorised request")
	}

	if err := h.sessions.Logout(c.UserContext(), principal); err != nil {
		return err
	}

	clearTokenCookies(c)
	return c.JSON(dto.Success(http.StatusOK, nil, "logged out successfully"))
}

func setTokenCookies(c *fiber.Ctx, pair *service.TokenPair) {
	c.Cookie(&fiber.Cookie{
		Name:     auth.AccessTokenCookie,
		Value:    pair.AccessToken,
		Expires:  pair.AccessExpiresAt,
		HTTPOnly: true,
		Secure:   true,
	})
	c.Cookie(&fiber.Cookie{
		Name:     auth.RefreshTokenCookie,
		Value:    pair.RefreshToken,
		Expires:  pair.RefreshExpiresAt,
		HTTPOnly: true,
		Secure:   true,
	})
}

func clearTokenCookies(c *fiber.Ctx) {
	for _, name := range []string{auth.AccessTokenCookie, auth.RefreshTokenCookie} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Expires:  time.Now().Add(-time.Hour),
			HTTPOnly: true,
			Secure:   true,
		})
	}
}
