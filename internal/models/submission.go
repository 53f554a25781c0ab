package models

import (
	"time"

	"github.com/fileflow/fileflow-api/internal/workflow"
)

// Submission represents an uploaded file moving through the review pipeline.
// Status and CurrentStage are mutated only by the review workflow and must
// always be one of the pairs defined by the workflow package.
type Submission struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	OwnerID       uint            `gorm:"not null;index" json:"owner_id"`
	OwnerUsername string          `gorm:"size:64;not null" json:"owner_username"`
	Team          string          `gorm:"size:64;index" json:"team"`
	Filename      string          `gorm:"size:255;not null" json:"filename"`
	FileURL       string          `gorm:"size:512" json:"file_url"`
	PublicURL     string          `gorm:"size:512" json:"public_url"`
	Status        workflow.Status `gorm:"size:32;not null" json:"status"`
	CurrentStage  workflow.Stage  `gorm:"size:32;not null;index" json:"current_stage"`

	// Team-leader review slot, populated once that stage has been reached.
	TeamLeaderReviewerID       *uint      `json:"team_leader_reviewer_id"`
	TeamLeaderReviewerUsername string     `gorm:"size:64" json:"team_leader_reviewer_username"`
	TeamLeaderReviewedAt       *time.Time `json:"team_leader_reviewed_at"`
	TeamLeaderComment          string     `gorm:"type:text" json:"team_leader_comment"`

	// Admin review slot.
	AdminReviewerID       *uint      `json:"admin_reviewer_id"`
	AdminReviewerUsername string     `gorm:"size:64" json:"admin_reviewer_username"`
	AdminReviewedAt       *time.Time `json:"admin_reviewed_at"`
	AdminComment          string     `gorm:"type:text" json:"admin_comment"`

	FinalApprovedAt *time.Time `json:"final_approved_at"`

	// Rejection metadata, present only while status is a rejected variant.
	RejectionReason    string     `gorm:"type:text" json:"rejection_reason"`
	RejectedByID       *uint      `json:"rejected_by_id"`
	RejectedByUsername string     `gorm:"size:64" json:"rejected_by_username"`
	RejectedAt         *time.Time `json:"rejected_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPublished reports whether the submission reached public publication.
func (s Submission) IsPublished() bool {
	return s.CurrentStage == workflow.StagePublishedToPublic
}

// IsOwnedBy reports whether the given user uploaded this submission.
func (s Submission) IsOwnedBy(userID uint) bool {
	return s.OwnerID == userID
}
