package models

import "time"

// Workflow event kinds recorded in the outbox.
const (
	EventFileSubmitted        = "file_submitted"
	EventTeamLeaderApproved   = "team_leader_approved"
	EventTeamLeaderRejected   = "team_leader_rejected"
	EventAdminApproved        = "admin_approved"
	EventAdminRejected        = "admin_rejected"
	EventCommentPosted        = "comment_posted"
	EventReplyPosted          = "reply_posted"
	EventPasswordResetRequest = "password_reset_requested"
)

// OutboxEvent records a completed workflow transition awaiting notification
// fan-out. It is written in the same transaction as the transition so a
// crash between commit and fan-out cannot silently drop notifications; the
// dispatcher redelivers stale rows (at-least-once).
type OutboxEvent struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Kind          string     `gorm:"size:64;not null;index" json:"kind"`
	SubmissionID  *uint      `json:"submission_id"`
	AssignmentID  *uint      `json:"assignment_id"`
	CommentID     *uint      `json:"comment_id"`
	ActorID       uint       `json:"actor_id"`
	ActorUsername string     `gorm:"size:64" json:"actor_username"`
	ActorRole     string     `gorm:"size:32" json:"actor_role"`
	OwnerID       uint       `json:"owner_id"`
	Team          string     `gorm:"size:64" json:"team"`
	Detail        string     `gorm:"type:text" json:"detail"`
	DispatchedAt  *time.Time `gorm:"index" json:"dispatched_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Dispatched reports whether fan-out already ran for this event.
func (e OutboxEvent) Dispatched() bool {
	return e.DispatchedAt != nil
}
