package domain

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID            int64
	FirstName     string
	LastName      string
	Email         string
	PasswordHash  string
	Role          UserRole
	Avatar        string
	Phone         string
	IsActive      bool
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastLogin     *time.Time
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
