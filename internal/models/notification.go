package models

import "time"

// Notification type values written by the fan-out rules. Historical rows may
// carry an empty type; the navigation resolver infers a target from the
// file/assignment references in that case.
const (
	NotificationTypeComment              = "comment"
	NotificationTypeSubmission           = "submission"
	NotificationTypeFileUploaded         = "file_uploaded"
	NotificationTypeAssignment           = "assignment"
	NotificationTypeApproval             = "approval"
	NotificationTypeRejection            = "rejection"
	NotificationTypeFinalApproval        = "final_approval"
	NotificationTypeFinalRejection       = "final_rejection"
	NotificationTypePasswordResetRequest = "password_reset_request"
)

// Notification is a durable per-recipient record created by the fan-out
// rules when a workflow transition occurs.
type Notification struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"not null;index" json:"user_id"`
	Type             string    `gorm:"size:64" json:"type"`
	Title            string    `gorm:"size:255" json:"title"`
	Message          string    `gorm:"type:text" json:"message"`
	FileID           *uint     `gorm:"index" json:"file_id"`
	AssignmentID     *uint     `gorm:"index" json:"assignment_id"`
	ActionByID       uint      `json:"action_by_id"`
	ActionByUsername string    `gorm:"size:64" json:"action_by_username"`
	ActionByRole     string    `gorm:"size:32" json:"action_by_role"`
	IsRead           bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
