package dto

import (
	"time"

	"github.com/fileflow/fileflow-api/internal/models"
)

// AssignmentCreateRequest describes the payload for creating an assignment.
// Either AllTeam is set or MemberIDs names the participants explicitly.
type AssignmentCreateRequest struct {
	Title       string    `json:"title" validate:"required,min=3,max=255"`
	Description string    `json:"description" validate:"omitempty,max=5000"`
	DueDate     time.Time `json:"due_date" validate:"required"`
	AllTeam     bool      `json:"all_team"`
	MemberIDs   []uint    `json:"member_ids" validate:"required_without=AllTeam,omitempty,min=1,dive,gt=0"`
}

// AssignmentMemberResponse serializes a member row.
type AssignmentMemberResponse struct {
	ID           uint   `json:"id"`
	UserID       uint   `json:"user_id"`
	Username     string `json:"username"`
	Status       string `json:"status"`
	SubmissionID *uint  `json:"submission_id"`
}

// AssignmentResponse is returned to API clients when viewing assignments.
type AssignmentResponse struct {
	ID            uint                       `json:"id"`
	Title         string                     `json:"title"`
	Description   string                     `json:"description"`
	OwnerID       uint                       `json:"owner_id"`
	OwnerUsername string                     `json:"owner_username"`
	Team          string                     `json:"team"`
	DueDate       time.Time                  `json:"due_date"`
	AllTeam       bool                       `json:"all_team"`
	Members       []AssignmentMemberResponse `json:"members"`
	CreatedAt     time.Time                  `json:"created_at"`
	UpdatedAt     time.Time                  `json:"updated_at"`
}

// NewAssignmentResponse converts an Assignment model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	members := make([]AssignmentMemberResponse, 0, len(model.Members))
	for _, member := range model.Members {
		members = append(members, AssignmentMemberResponse{
			ID:           member.ID,
			UserID:       member.UserID,
			Username:     member.Username,
			Status:       member.Status,
			SubmissionID: member.SubmissionID,
		})
	}

	return AssignmentResponse{
		ID:            model.ID,
		Title:         model.Title,
		Description:   model.Description,
		OwnerID:       model.OwnerID,
		OwnerUsername: model.OwnerUsername,
		Team:          model.Team,
		DueDate:       model.DueDate,
		AllTeam:       model.AllTeam,
		Members:       members,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice maps a slice of models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}
	return responses
}
