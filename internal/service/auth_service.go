package service

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/complaint-desk/internal/auth"
	"github.com/spec-kit/complaint-desk/internal/config"
	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/repository"
	apperrors "github.com/spec-kit/complaint-desk/pkg/util/errorutil"
)

const (
	minPasswordLength = 6
	// bcrypt ignores input past 72 bytes.
	maxPasswordLength = 72

	invalidCredentialsMessage = "Invalid student ID or password"
)

var (
	// ErrStudentNotFound is wrapped by Authenticate when no record matches the student id.
	ErrStudentNotFound = errors.New("student not found")
	// ErrInvalidCredential is wrapped by Authenticate when the password does not match.
	ErrInvalidCredential = errors.New("invalid credential")
)

// AuthService coordinates login, token verification and password changes.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL()),
		bcryptCost: cfg.BcryptCost,
	}
}

// WithTokenManager swaps the token manager; tests use it to pin the clock.
func (s *AuthService) WithTokenManager(tm *auth.TokenManager) *AuthService {
	s.tokenMgr = tm
	return s
}

// LoginResult is returned by Authenticate. User never carries the password
// hash.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Authenticate checks the student's password and issues a token. Unknown
// students and wrong passwords both surface as the same 401; the wrapped
// cause is ErrStudentNotFound or ErrInvalidCredential.
func (s *AuthService) Authenticate(ctx context.Context, studentID, password string) (*LoginResult, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" || password == "" {
		return nil, apperrors.NewValidationError("Please provide student ID and password", nil)
	}

	user, err := s.users.GetByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = auth.ComparePassword(s.fakeHash(), password)
			return nil, credentialError(ErrStudentNotFound)
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, credentialError(ErrInvalidCredential)
	}

	token, exp, err := s.IssueToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user.Public(), Token: token, ExpiresAt: exp}, nil
}

// IssueToken signs a bearer token for userID.
func (s *AuthService) IssueToken(userID string) (string, time.Time, error) {
	token, exp, err := s.tokenMgr.GenerateToken(userID)
	if err != nil {
		return "", time.Time{}, apperrors.NewInternalError(err)
	}
	return token, exp, nil
}

// VerifyToken returns the user id carried by a valid token.
func (s *AuthService) VerifyToken(token string) (string, error) {
	claims, err := s.tokenMgr.ParseToken(token)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// ResolveUser loads the full user record for an authenticated id.
func (s *AuthService) ResolveUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	return user, nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return apperrors.NewValidationError("Please provide current and new password", nil)
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.ResolveUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("Current password is incorrect")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("user", nil)
		}
		return err
	}
	return nil
}

// RegisterStudentInput describes a student account created out of band.
type RegisterStudentInput struct {
	StudentID string
	Name      string
	Email     string
	Course    string
	YearLevel string
	Password  string
}

// RegisterStudent creates a student account. There is no public sign-up
// route; accounts are provisioned by cmd/seed.
func (s *AuthService) RegisterStudent(ctx context.Context, input RegisterStudentInput) (*domain.User, error) {
	input.StudentID = strings.TrimSpace(input.StudentID)
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	details := map[string]any{}
	if input.StudentID == "" {
		details["studentId"] = "required"
	}
	if input.Name == "" {
		details["name"] = "required"
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		details["email"] = "must be a valid email address"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid student record", details)
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		StudentID:    input.StudentID,
		Name:         input.Name,
		Email:        input.Email,
		Course:       strings.TrimSpace(input.Course),
		YearLevel:    strings.TrimSpace(input.YearLevel),
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("student id or email already registered", map[string]any{"studentId": input.StudentID})
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) fakeHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = auth.HashPassword("complaint-desk-timing-pad", s.bcryptCost)
	})
	return s.dummyHash
}

func credentialError(cause error) error {
	err := apperrors.NewDomainError(apperrors.CodeUnauthorized, invalidCredentialsMessage, http.StatusUnauthorized, nil)
	err.Err = cause
	return err
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.NewValidationError("Password must be at least 6 characters", map[string]any{"password": "too short"})
	}
	if len(password) > maxPasswordLength {
		return apperrors.NewValidationError("Password must be at most 72 bytes", map[string]any{"password": "too long"})
	}
	return nil
}
