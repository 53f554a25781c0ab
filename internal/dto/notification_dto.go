package dto

import (
	"time"

	"github.com/fileflow/fileflow-api/internal/models"
)

// NotificationResponse is returned to API clients when viewing notifications.
type NotificationResponse struct {
	ID               uint      `json:"id"`
	UserID           uint      `json:"user_id"`
	Type             string    `json:"type"`
	Title            string    `json:"title"`
	Message          string    `json:"message"`
	FileID           *uint     `json:"file_id"`
	AssignmentID     *uint     `json:"assignment_id"`
	ActionByID       uint      `json:"action_by_id"`
	ActionByUsername string    `json:"action_by_username"`
	ActionByRole     string    `json:"action_by_role"`
	IsRead           bool      `json:"is_read"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewNotificationResponse converts a Notification model into a DTO.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:               model.ID,
		UserID:           model.UserID,
		Type:             model.Type,
		Title:            model.Title,
		Message:          model.Message,
		FileID:           model.FileID,
		AssignmentID:     model.AssignmentID,
		ActionByID:       model.ActionByID,
		ActionByUsername: model.ActionByUsername,
		ActionByRole:     model.ActionByRole,
		IsRead:           model.IsRead,
		CreatedAt:        model.CreatedAt,
	}
}

// NewNotificationResponseSlice maps a slice of models into DTOs.
func NewNotificationResponseSlice(notifications []models.Notification) []NotificationResponse {
	responses := make([]NotificationResponse, 0, len(notifications))
	for _, notification := range notifications {
		responses = append(responses, NewNotificationResponse(notification))
	}
	return responses
}
