package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// AccessTokenCookie and RefreshTokenCookie name the cookies carrying the
// token pair.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// AuthMiddleware validates access tokens and loads the calling principal.
type AuthMiddleware struct {
	tokens     *TokenManager
	principals repository.PrincipalRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, principals repository.PrincipalRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, principals: principals}
}

// Handle enforces authentication for protected routes. The access token is
// accepted from the accessToken cookie or an Authorization bearer header.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	tokenStr := AccessTokenFromRequest(c)
	if tokenStr == "" {
		return apperrors.NewAuthenticationError("unauthorised request")
	}

	claims, err := m.tokens.ParseAccessToken(tokenStr)
	if err != nil {
		return apperrors.NewAuthenticationError("invalid token")
	}

	principal, err := m.principals.GetByID(c.UserContext(), claims.PrincipalID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewAuthenticationError("invalid token")
		}
		return apperrors.ToDomainError(err)
	}
	if principal.Role != claims.Role {
		return apperrors.NewAuthenticationError("invalid token")
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// AccessTokenFromRequest extracts the raw access token, preferring the
// cookie over the bearer header.
func AccessTokenFromRequest(c *fiber.Ctx) string {
	if cookie := c.Cookies(AccessTokenCookie); cookie != "" {
		return cookie
	}
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// PrincipalFromContext retrieves the authenticated principal.
func PrincipalFromContext(c *fiber.Ctx) (*domain.Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*domain.Principal)
	return principal, ok
}
