package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fileflow/fileflow-api/internal/dto"
	"github.com/fileflow/fileflow-api/internal/models"
	"github.com/fileflow/fileflow-api/internal/repository"
	"github.com/fileflow/fileflow-api/internal/workflow"
)

// AssignmentService orchestrates assignments and member file submissions.
type AssignmentService interface {
	Create(ctx context.Context, owner models.User, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	List(ctx context.Context, viewer models.User) ([]dto.AssignmentResponse, error)
	Get(ctx context.Context, id uint) (dto.AssignmentResponse, error)
	SubmitFile(ctx context.Context, assignmentID uint, member models.User, file *multipart.FileHeader) (dto.SubmissionResponse, error)
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	users       repository.UserRepository
	storage     FileStorage
	fanout      FanoutService
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssignmentService constructs an AssignmentService instance.
func NewAssignmentService(
	assignmentRepo repository.AssignmentRepository,
	submissionRepo repository.SubmissionRepository,
	userRepo repository.UserRepository,
	storage FileStorage,
	fanout FanoutService,
	validate *validator.Validate,
	logger zerolog.Logger,
) AssignmentService {
	return &assignmentService{
		assignments: assignmentRepo,
		submissions: submissionRepo,
		users:       userRepo,
		storage:     storage,
		fanout:      fanout,
		validator:   validate,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		now:         time.Now,
	}
}

func (s *assignmentService) Create(ctx context.Context, owner models.User, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	members, err := s.resolveMembers(ctx, owner, payload)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment := models.Assignment{
		Title:         payload.Title,
		Description:   payload.Description,
		OwnerID:       owner.ID,
		OwnerUsername: owner.Username,
		Team:          owner.Team,
		DueDate:       payload.DueDate,
		AllTeam:       payload.AllTeam,
		Metadata:      datatypes.JSONMap{"created_by_role": owner.Role},
		Members:       members,
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Str("owner", owner.Username).
		Int("members", len(members)).Msg("assignment created")

	return dto.NewAssignmentResponse(assignment), nil
}

// List scopes results by role: admins see everything, team leaders their
// own assignments, members the ones they belong to.
func (s *assignmentService) List(ctx context.Context, viewer models.User) ([]dto.AssignmentResponse, error) {
	filter := repository.AssignmentFilter{}
	switch viewer.Role {
	case models.RoleAdmin:
	case models.RoleTeamLeader:
		filter.OwnerID = &viewer.ID
	default:
		filter.MemberID = &viewer.ID
	}

	assignments, err := s.assignments.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments), nil
}

func (s *assignmentService) Get(ctx context.Context, id uint) (dto.AssignmentResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}
	return dto.NewAssignmentResponse(assignment), nil
}

// SubmitFile records a member's response: the file enters the review
// pipeline as a regular submission and the member row links to it.
func (s *assignmentService) SubmitFile(ctx context.Context, assignmentID uint, member models.User, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	if file == nil {
		return dto.SubmissionResponse{}, fmt.Errorf("submission file is required")
	}

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if assignment.IsPastDue(s.now()) {
		return dto.SubmissionResponse{}, ErrAssignmentPastDue
	}

	memberRow, err := s.assignments.GetMember(ctx, assignmentID, member.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrNotAssignmentMember
		}
		return dto.SubmissionResponse{}, err
	}

	if memberRow.HasSubmitted() {
		return dto.SubmissionResponse{}, ErrAlreadySubmitted
	}

	if err := validateFileType(file); err != nil {
		return dto.SubmissionResponse{}, err
	}

	reader, err := file.Open()
	if err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	fileURL, err := s.storage.Upload(ctx, file.Filename, reader)
	if err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("failed to upload file: %w", err)
	}

	submission := models.Submission{
		OwnerID:       member.ID,
		OwnerUsername: member.Username,
		Team:          member.Team,
		Filename:      file.Filename,
		FileURL:       fileURL,
		Status:        workflow.StatusUploaded,
		CurrentStage:  workflow.StagePendingTeamLeader,
	}

	event := models.OutboxEvent{
		Kind:          models.EventFileSubmitted,
		AssignmentID:  &assignment.ID,
		ActorID:       member.ID,
		ActorUsername: member.Username,
		ActorRole:     member.Role,
		OwnerID:       member.ID,
		Team:          assignment.Team,
		Detail:        file.Filename,
	}

	if err := s.submissions.CreateWithEvent(ctx, &submission, &event); err != nil {
		return dto.SubmissionResponse{}, err
	}

	memberRow.Status = models.MemberStatusSubmitted
	memberRow.SubmissionID = &submission.ID
	if err := s.assignments.UpdateMember(ctx, &memberRow); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.fanout.Dispatch(ctx, event)

	s.logger.Info().Uint("assignment_id", assignmentID).Uint("submission_id", submission.ID).
		Str("member", member.Username).Msg("assignment file submitted")

	return dto.NewSubmissionResponse(submission), nil
}

// resolveMembers expands an all-team assignment to every team member, or
// looks up the explicitly named users.
func (s *assignmentService) resolveMembers(ctx context.Context, owner models.User, payload dto.AssignmentCreateRequest) ([]models.AssignmentMember, error) {
	if payload.AllTeam {
		teamUsers, err := s.users.ListByTeam(ctx, owner.Team)
		if err != nil {
			return nil, err
		}

		members := make([]models.AssignmentMember, 0, len(teamUsers))
		for _, user := range teamUsers {
			if user.ID == owner.ID {
				continue
			}
			members = append(members, models.AssignmentMember{
				UserID:   user.ID,
				Username: user.Username,
				Status:   models.MemberStatusPending,
			})
		}
		return members, nil
	}

	members := make([]models.AssignmentMember, 0, len(payload.MemberIDs))
	for _, id := range payload.MemberIDs {
		user, err := s.users.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, id)
			}
			return nil, err
		}
		members = append(members, models.AssignmentMember{
			UserID:   user.ID,
			Username: user.Username,
			Status:   models.MemberStatusPending,
		})
	}

	return members, nil
}
