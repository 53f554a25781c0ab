package dto

import (
	"time"

	"github.com/fileflow/fileflow-api/internal/models"
	"github.com/fileflow/fileflow-api/internal/workflow"
)

// Review decisions accepted by the review endpoints.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// ReviewRequest is the payload for team-leader and admin review decisions.
type ReviewRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Comment  string `json:"comment" validate:"omitempty,max=2000"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	OwnerID *uint   `query:"owner_id"`
	Team    *string `query:"team"`
	Stage   *string `query:"stage" validate:"omitempty,oneof=pending_team_leader pending_admin published_to_public rejected_by_team_leader rejected_by_admin"`
	Status  *string `query:"status" validate:"omitempty,oneof=uploaded team_leader_approved final_approved rejected_by_team_leader rejected_by_admin under_revision"`
}

// ReviewSlot serializes one reviewer's action on a submission.
type ReviewSlot struct {
	ReviewerID       *uint      `json:"reviewer_id"`
	ReviewerUsername string     `json:"reviewer_username,omitempty"`
	ReviewedAt       *time.Time `json:"reviewed_at"`
	Comment          string     `json:"comment,omitempty"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID              uint            `json:"id"`
	OwnerID         uint            `json:"owner_id"`
	OwnerUsername   string          `json:"owner_username"`
	Team            string          `json:"team"`
	Filename        string          `json:"filename"`
	FileURL         string          `json:"file_url"`
	PublicURL       string          `json:"public_url,omitempty"`
	Status          workflow.Status `json:"status"`
	CurrentStage    workflow.Stage  `json:"current_stage"`
	TeamLeader      ReviewSlot      `json:"team_leader_review"`
	Admin           ReviewSlot      `json:"admin_review"`
	FinalApprovedAt *time.Time      `json:"final_approved_at"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	RejectedBy      string          `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time      `json:"rejected_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:            model.ID,
		OwnerID:       model.OwnerID,
		OwnerUsername: model.OwnerUsername,
		Team:          model.Team,
		Filename:      model.Filename,
		FileURL:       model.FileURL,
		PublicURL:     model.PublicURL,
		Status:        model.Status,
		CurrentStage:  model.CurrentStage,
		TeamLeader: ReviewSlot{
			ReviewerID:       model.TeamLeaderReviewerID,
			ReviewerUsername: model.TeamLeaderReviewerUsername,
			ReviewedAt:       model.TeamLeaderReviewedAt,
			Comment:          model.TeamLeaderComment,
		},
		Admin: ReviewSlot{
			ReviewerID:       model.AdminReviewerID,
			ReviewerUsername: model.AdminReviewerUsername,
			ReviewedAt:       model.AdminReviewedAt,
			Comment:          model.AdminComment,
		},
		FinalApprovedAt: model.FinalApprovedAt,
		RejectionReason: model.RejectionReason,
		RejectedBy:      model.RejectedByUsername,
		RejectedAt:      model.RejectedAt,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

// NewSubmissionResponseSlice maps a slice of models into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}
	return responses
}
