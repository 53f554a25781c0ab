package models

import "time"

// AssignmentComment is a top-level comment on an assignment.
type AssignmentComment struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	AssignmentID   uint           `gorm:"not null;index" json:"assignment_id"`
	AuthorID       uint           `gorm:"not null;index" json:"author_id"`
	AuthorUsername string         `gorm:"size:64;not null" json:"author_username"`
	Content        string         `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	Replies        []CommentReply `gorm:"foreignKey:CommentID" json:"replies"`
}

// CommentReply is a threaded reply to an assignment comment.
type CommentReply struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CommentID      uint      `gorm:"not null;index" json:"comment_id"`
	AuthorID       uint      `gorm:"not null;index" json:"author_id"`
	AuthorUsername string    `gorm:"size:64;not null" json:"author_username"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
