package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-desk/internal/domain"
	apperrors "github.com/spec-kit/complaint-desk/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	User *domain.User
}

// IdentityResolver verifies bearer tokens and loads the user behind them.
type IdentityResolver interface {
	VerifyToken(token string) (string, error)
	ResolveUser(ctx context.Context, userID string) (*domain.User, error)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	identities IdentityResolver
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(identities IdentityResolver) *AuthMiddleware {
	return &AuthMiddleware{identities: identities}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	token, ok := BearerToken(authHeader)
	if !ok {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	userID, err := m.identities.VerifyToken(token)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	user, err := m.identities.ResolveUser(c.UserContext(), userID)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeNotFound) {
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, &Principal{User: user})
	return c.Next()
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header value.
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal.User != nil
}
