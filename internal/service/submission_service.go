package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fileflow/fileflow-api/internal/dto"
	"github.com/fileflow/fileflow-api/internal/models"
	"github.com/fileflow/fileflow-api/internal/repository"
	"github.com/fileflow/fileflow-api/internal/workflow"
)

// FileStorage abstracts upload destinations.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// SubmissionService orchestrates the owner-side submission workflow: upload,
// revision resubmission and withdrawal.
type SubmissionService interface {
	List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
	Get(ctx context.Context, id uint) (dto.SubmissionResponse, error)
	Upload(ctx context.Context, owner models.User, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	SubmitForReview(ctx context.Context, id uint, owner models.User) (dto.SubmissionResponse, error)
	Resubmit(ctx context.Context, id uint, owner models.User, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	Withdraw(ctx context.Context, id uint, owner models.User) error
}

type submissionService struct {
	submissions repository.SubmissionRepository
	storage     FileStorage
	fanout      FanoutService
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(subRepo repository.SubmissionRepository, storage FileStorage, fanout FanoutService, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: subRepo,
		storage:     storage,
		fanout:      fanout,
		validator:   validate,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

func (s *submissionService) List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	repoFilter := repository.SubmissionFilter{OwnerID: filter.OwnerID, Team: filter.Team}
	if filter.Stage != nil {
		stage := workflow.Stage(*filter.Stage)
		repoFilter.Stage = &stage
	}
	if filter.Status != nil {
		status := workflow.Status(*filter.Status)
		repoFilter.Status = &status
	}

	submissions, err := s.submissions.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) Get(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}
	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Upload(ctx context.Context, owner models.User, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	if file == nil {
		return dto.SubmissionResponse{}, fmt.Errorf("submission file is required")
	}

	fileURL, err := s.storeFile(ctx, file)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission := models.Submission{
		OwnerID:       owner.ID,
		OwnerUsername: owner.Username,
		Team:          owner.Team,
		Filename:      file.Filename,
		FileURL:       fileURL,
		Status:        workflow.StatusUploaded,
		CurrentStage:  workflow.StagePendingTeamLeader,
	}

	event := models.OutboxEvent{
		Kind:          models.EventFileSubmitted,
		ActorID:       owner.ID,
		ActorUsername: owner.Username,
		ActorRole:     owner.Role,
		OwnerID:       owner.ID,
		Team:          owner.Team,
		Detail:        file.Filename,
	}

	if err := s.submissions.CreateWithEvent(ctx, &submission, &event); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.fanout.Dispatch(ctx, event)

	s.logger.Info().Uint("submission_id", submission.ID).Str("owner", owner.Username).Msg("submission uploaded")

	return dto.NewSubmissionResponse(submission), nil
}

// SubmitForReview places an uploaded or revised submission back into the
// team-leader queue. Any other starting status is an invalid state.
func (s *submissionService) SubmitForReview(ctx context.Context, id uint, owner models.User) (dto.SubmissionResponse, error) {
	submission, err := s.getOwned(ctx, id, owner)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if !workflow.AwaitsSubmission(submission.Status) {
		return dto.SubmissionResponse{}, fmt.Errorf("%w: status %q", workflow.ErrInvalidState, submission.Status)
	}

	event := models.OutboxEvent{
		Kind:          models.EventFileSubmitted,
		ActorID:       owner.ID,
		ActorUsername: owner.Username,
		ActorRole:     owner.Role,
		OwnerID:       submission.OwnerID,
		Team:          submission.Team,
		Detail:        submission.Filename,
	}

	updates := map[string]interface{}{
		"current_stage": workflow.StagePendingTeamLeader,
		"updated_at":    s.now().UTC(),
	}

	if err := s.submissions.Transition(ctx, id, submission.CurrentStage, updates, &event); err != nil {
		return dto.SubmissionResponse{}, translateTransitionErr(err)
	}

	s.fanout.Dispatch(ctx, event)

	return s.Get(ctx, id)
}

// Resubmit replaces a rejected submission's file and restarts the pipeline.
// Resubmission is keyed on the submission id, never on filename matching.
func (s *submissionService) Resubmit(ctx context.Context, id uint, owner models.User, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	submission, err := s.getOwned(ctx, id, owner)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if !workflow.IsRejected(submission.Status) {
		return dto.SubmissionResponse{}, fmt.Errorf("%w: only rejected submissions may be resubmitted", workflow.ErrInvalidState)
	}
	if file == nil {
		return dto.SubmissionResponse{}, fmt.Errorf("revision file is required")
	}

	fileURL, err := s.storeFile(ctx, file)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	event := models.OutboxEvent{
		Kind:          models.EventFileSubmitted,
		ActorID:       owner.ID,
		ActorUsername: owner.Username,
		ActorRole:     owner.Role,
		OwnerID:       submission.OwnerID,
		Team:          submission.Team,
		Detail:        file.Filename,
	}

	// The revision clears both review slots and the rejection metadata so
	// the record reads as a fresh entry into the pipeline.
	updates := map[string]interface{}{
		"status":                        workflow.StatusUnderRevision,
		"current_stage":                 workflow.StagePendingTeamLeader,
		"filename":                      file.Filename,
		"file_url":                      fileURL,
		"team_leader_reviewer_id":       nil,
		"team_leader_reviewer_username": "",
		"team_leader_reviewed_at":       nil,
		"team_leader_comment":           "",
		"admin_reviewer_id":             nil,
		"admin_reviewer_username":       "",
		"admin_reviewed_at":             nil,
		"admin_comment":                 "",
		"rejection_reason":              "",
		"rejected_by_id":                nil,
		"rejected_by_username":          "",
		"rejected_at":                   nil,
		"updated_at":                    s.now().UTC(),
	}

	if err := s.submissions.Transition(ctx, id, submission.CurrentStage, updates, &event); err != nil {
		return dto.SubmissionResponse{}, translateTransitionErr(err)
	}

	s.fanout.Dispatch(ctx, event)

	s.logger.Info().Uint("submission_id", id).Str("owner", owner.Username).Msg("revision resubmitted")

	return s.Get(ctx, id)
}

// Withdraw permanently removes the submission. Published files cannot be
// withdrawn.
func (s *submissionService) Withdraw(ctx context.Context, id uint, owner models.User) error {
	submission, err := s.getOwned(ctx, id, owner)
	if err != nil {
		return err
	}

	if submission.IsPublished() {
		return ErrAlreadyPublished
	}

	if err := s.submissions.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubmissionNotFound
		}
		return err
	}

	s.logger.Info().Uint("submission_id", id).Str("owner", owner.Username).Msg("submission withdrawn")

	return nil
}

func (s *submissionService) getOwned(ctx context.Context, id uint, owner models.User) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrSubmissionNotFound
		}
		return models.Submission{}, err
	}

	if !submission.IsOwnedBy(owner.ID) && !owner.IsAdmin() {
		return models.Submission{}, ErrNotOwner
	}

	return submission, nil
}

func (s *submissionService) storeFile(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if err := validateFileType(file); err != nil {
		return "", err
	}

	reader, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	fileURL, err := s.storage.Upload(ctx, file.Filename, reader)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return fileURL, nil
}

func translateTransitionErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSubmissionNotFound
	}
	return err
}

func validateFileType(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}

	allowed := []string{
		"application/pdf",
		"application/zip",
		"application/x-zip-compressed",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"image/png",
		"image/jpeg",
		"text/plain",
	}
	for _, a := range allowed {
		if mime.Is(a) {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrUnsupportedFileType, mime.String())
}
