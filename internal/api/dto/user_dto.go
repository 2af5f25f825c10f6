package dto

import (
	"time"

	"github.com/spec-kit/complaint-desk/internal/domain"
)

// LoginRequest payload for login.
type LoginRequest struct {
	StudentID string `json:"studentId"`
	Password  string `json:"password"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// UserResponse is the public view of a student. The password hash never
// leaves the service.
type UserResponse struct {
	ID        string `json:"id"`
	StudentID string `json:"studentId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Course    string `json:"course"`
	YearLevel string `json:"yearLevel"`
}

// AuthResponse standard response for the login endpoint.
type AuthResponse struct {
	Success   bool         `json:"success"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// UserEnvelope wraps the current user.
type UserEnvelope struct {
	Success bool         `json:"success"`
	User    UserResponse `json:"user"`
}

// NewUserResponse maps a user to its public view.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		StudentID: user.StudentID,
		Name:      user.Name,
		Email:     user.Email,
		Course:    user.Course,
		YearLevel: user.YearLevel,
	}
}
