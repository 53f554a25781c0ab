package models

import "time"

// Role values recognised across the API.
const (
	RoleAdmin      = "admin"
	RoleTeamLeader = "teamleader"
	RoleUser       = "user"
)

// User represents an account that uploads, reviews or administers files.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:255;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:32;not null;default:user" json:"role"`
	Team         string    `gorm:"size:64;index" json:"team"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsTeamLeader reports whether the user holds the team leader role.
func (u User) IsTeamLeader() bool {
	return u.Role == RoleTeamLeader
}
