package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-desk/internal/domain"
	apperrors "github.com/spec-kit/complaint-desk/pkg/util/errorutil"
)

type stubResolver struct {
	tokens map[string]string
	users  map[string]*domain.User
	err    error
}

func (s *stubResolver) VerifyToken(token string) (string, error) {
	id, ok := s.tokens[token]
	if !ok {
		return "", ErrInvalidToken
	}
	return id, nil
}

func (s *stubResolver) ResolveUser(_ context.Context, userID string) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	user, ok := s.users[userID]
	if !ok {
		return nil, apperrors.NewNotFound("user", nil)
	}
	return user, nil
}

func newGuardedApp(resolver IdentityResolver) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"message": de.Message})
		},
	})
	mw := NewAuthMiddleware(resolver)
	app.Get("/me", mw.Handle, func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return errors.New("principal missing")
		}
		return c.SendString(principal.User.StudentID)
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	resolver := &stubResolver{
		tokens: map[string]string{"good": "u1", "orphan": "gone"},
		users:  map[string]*domain.User{"u1": {ID: "u1", StudentID: "21-0001"}},
	}
	app := newGuardedApp(resolver)

	cases := map[string]struct {
		header string
		status int
	}{
		"valid":            {"Bearer good", http.StatusOK},
		"lowercase":        {"bearer good", http.StatusOK},
		"missing":          {"", http.StatusUnauthorized},
		"wrong scheme":     {"Basic good", http.StatusUnauthorized},
		"empty token":      {"Bearer ", http.StatusUnauthorized},
		"invalid token":    {"Bearer forged", http.StatusUnauthorized},
		"user was removed": {"Bearer orphan", http.StatusUnauthorized},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test() unexpected error: %v", err)
			}
			if resp.StatusCode != tc.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.status)
			}
		})
	}
}

func TestAuthMiddlewareStoreFailure(t *testing.T) {
	resolver := &stubResolver{
		tokens: map[string]string{"good": "u1"},
		err:    errors.New("db down"),
	}
	app := newGuardedApp(resolver)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestBearerToken(t *testing.T) {
	if tok, ok := BearerToken("Bearer abc.def"); !ok || tok != "abc.def" {
		t.Errorf("BearerToken() = %q, %v", tok, ok)
	}
	if _, ok := BearerToken("abc.def"); ok {
		t.Error("BearerToken() accepted a header without scheme")
	}
}
