package models

import (
	"time"

	"gorm.io/datatypes"
)

// Assignment represents a task a team leader hands to team members, each of
// whom responds with a file submission.
type Assignment struct {
	ID            uint               `gorm:"primaryKey" json:"id"`
	Title         string             `gorm:"size:255;not null" json:"title"`
	Description   string             `gorm:"type:text" json:"description"`
	OwnerID       uint               `gorm:"not null;index" json:"owner_id"`
	OwnerUsername string             `gorm:"size:64;not null" json:"owner_username"`
	Team          string             `gorm:"size:64;index" json:"team"`
	DueDate       time.Time          `json:"due_date"`
	AllTeam       bool               `gorm:"not null;default:false" json:"all_team"`
	Metadata      datatypes.JSONMap  `gorm:"type:json" json:"metadata"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	Members       []AssignmentMember `json:"members"`
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return !a.DueDate.IsZero() && reference.After(a.DueDate)
}

// Member status values for assignment participation.
const (
	MemberStatusPending   = "pending"
	MemberStatusSubmitted = "submitted"
)

// AssignmentMember links a user to an assignment and to at most one
// submission once they have responded.
type AssignmentMember struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AssignmentID uint      `gorm:"not null;index" json:"assignment_id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Username     string    `gorm:"size:64" json:"username"`
	Status       string    `gorm:"size:32;not null;default:pending" json:"status"`
	SubmissionID *uint     `json:"submission_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasSubmitted reports whether the member already responded with a file.
func (m AssignmentMember) HasSubmitted() bool {
	return m.Status == MemberStatusSubmitted && m.SubmissionID != nil
}
