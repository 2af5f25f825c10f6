package domain

import "time"

// User is a student who can sign in and file complaint tickets.
type User struct {
	ID           string
	StudentID    string
	Name         string
	Email        string
	Course       string
	YearLevel    string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Public returns a copy of the user without the password hash.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	public := *u
	public.PasswordHash = ""
	return &public
}
