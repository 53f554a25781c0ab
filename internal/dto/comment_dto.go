package dto

import (
	"time"

	"github.com/fileflow/fileflow-api/internal/models"
)

// CommentCreateRequest is the payload for posting a comment on an assignment.
type CommentCreateRequest struct {
	Content string `json:"content" validate:"required,min=1,max=5000"`
}

// ReplyCreateRequest is the payload for replying to a comment.
type ReplyCreateRequest struct {
	Content string `json:"content" validate:"required,min=1,max=5000"`
}

// CommentReplyResponse serializes a threaded reply.
type CommentReplyResponse struct {
	ID             uint      `json:"id"`
	CommentID      uint      `json:"comment_id"`
	AuthorID       uint      `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// CommentResponse serializes a comment with its replies.
type CommentResponse struct {
	ID             uint                   `json:"id"`
	AssignmentID   uint                   `json:"assignment_id"`
	AuthorID       uint                   `json:"author_id"`
	AuthorUsername string                 `json:"author_username"`
	Content        string                 `json:"content"`
	Replies        []CommentReplyResponse `json:"replies"`
	CreatedAt      time.Time              `json:"created_at"`
}

// NewCommentReplyResponse converts a reply model into a DTO.
func NewCommentReplyResponse(model models.CommentReply) CommentReplyResponse {
	return CommentReplyResponse{
		ID:             model.ID,
		CommentID:      model.CommentID,
		AuthorID:       model.AuthorID,
		AuthorUsername: model.AuthorUsername,
		Content:        model.Content,
		CreatedAt:      model.CreatedAt,
	}
}

// NewCommentResponse converts a comment model into a DTO.
func NewCommentResponse(model models.AssignmentComment) CommentResponse {
	replies := make([]CommentReplyResponse, 0, len(model.Replies))
	for _, reply := range model.Replies {
		replies = append(replies, NewCommentReplyResponse(reply))
	}

	return CommentResponse{
		ID:             model.ID,
		AssignmentID:   model.AssignmentID,
		AuthorID:       model.AuthorID,
		AuthorUsername: model.AuthorUsername,
		Content:        model.Content,
		Replies:        replies,
		CreatedAt:      model.CreatedAt,
	}
}

// NewCommentResponseSlice maps a slice of comment models into DTOs.
func NewCommentResponseSlice(comments []models.AssignmentComment) []CommentResponse {
	responses := make([]CommentResponse, 0, len(comments))
	for _, comment := range comments {
		responses = append(responses, NewCommentResponse(comment))
	}
	return responses
}
