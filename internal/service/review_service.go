package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/fileflow/fileflow-api/internal/dto"
	"github.com/fileflow/fileflow-api/internal/models"
	"github.com/fileflow/fileflow-api/internal/observability"
	"github.com/fileflow/fileflow-api/internal/repository"
	"github.com/fileflow/fileflow-api/internal/workflow"
)

// PublicLinker resolves the public URL for a published submission. The file
// storage adapter implements it.
type PublicLinker interface {
	PublicURL(ctx context.Context, submission models.Submission) (string, error)
}

// ReviewService applies reviewer decisions to submissions. Each decision is
// a single stage-guarded transaction; a reviewer racing a colleague on the
// same submission loses with ErrWrongStage and the state is untouched.
type ReviewService interface {
	TeamLeaderReview(ctx context.Context, id uint, reviewer models.User, payload dto.ReviewRequest) (dto.SubmissionResponse, error)
	AdminReview(ctx context.Context, id uint, reviewer models.User, payload dto.ReviewRequest) (dto.SubmissionResponse, error)
}

// ReviewFunc is the shape shared by both review operations.
type ReviewFunc func(ctx context.Context, id uint, reviewer models.User, payload dto.ReviewRequest) (dto.SubmissionResponse, error)

type reviewService struct {
	submissions repository.SubmissionRepository
	linker      PublicLinker
	fanout      FanoutService
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewReviewService constructs a ReviewService instance.
func NewReviewService(subRepo repository.SubmissionRepository, linker PublicLinker, fanout FanoutService, validate *validator.Validate, logger zerolog.Logger) ReviewService {
	return &reviewService{
		submissions: subRepo,
		linker:      linker,
		fanout:      fanout,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "review_service").Logger(),
		tracer:      otel.Tracer("github.com/fileflow/fileflow-api/internal/service/review"),
		now:         time.Now,
	}
}

func (s *reviewService) TeamLeaderReview(ctx context.Context, id uint, reviewer models.User, payload dto.ReviewRequest) (dto.SubmissionResponse, error) {
	return s.review(ctx, id, reviewer, payload, workflow.StagePendingTeamLeader)
}

func (s *reviewService) AdminReview(ctx context.Context, id uint, reviewer models.User, payload dto.ReviewRequest) (dto.SubmissionResponse, error) {
	return s.review(ctx, id, reviewer, payload, workflow.StagePendingAdmin)
}

func (s *reviewService) review(ctx context.Context, id uint, reviewer models.User, payload dto.ReviewRequest, expectedStage workflow.Stage) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	attrs := []attribute.KeyValue{
		attribute.Int64("submission.id", int64(id)),
		attribute.String("review.stage", string(expectedStage)),
		attribute.String("review.decision", payload.Decision),
	}
	spanCtx, span := s.tracer.Start(ctx, "review.apply", trace.WithAttributes(attrs...))
	defer span.End()

	submission, err := s.submissions.GetByID(spanCtx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	// Terminal states are an invalid starting point rather than a race; a
	// stage mismatch on a live pipeline means another reviewer got there
	// first.
	if workflow.IsTerminal(submission.Status) {
		observability.TransitionsRejectedTotal().WithLabelValues(string(expectedStage)).Inc()
		return dto.SubmissionResponse{}, fmt.Errorf("%w: status %q", workflow.ErrInvalidState, submission.Status)
	}
	if submission.CurrentStage != expectedStage {
		observability.TransitionsRejectedTotal().WithLabelValues(string(expectedStage)).Inc()
		return dto.SubmissionResponse{}, fmt.Errorf("%w: at %q, expected %q", workflow.ErrWrongStage, submission.CurrentStage, expectedStage)
	}

	comment := strings.TrimSpace(s.sanitizer.Sanitize(payload.Comment))
	approve := payload.Decision == dto.DecisionApprove

	var updates map[string]interface{}
	var event models.OutboxEvent

	if expectedStage == workflow.StagePendingTeamLeader {
		updates, event = s.teamLeaderOutcome(submission, reviewer, approve, comment)
	} else {
		updates, event = s.adminOutcome(spanCtx, submission, reviewer, approve, comment)
	}

	if err := s.submissions.Transition(spanCtx, id, expectedStage, updates, &event); err != nil {
		span.RecordError(err)
		if errors.Is(err, workflow.ErrWrongStage) {
			observability.TransitionsRejectedTotal().WithLabelValues(string(expectedStage)).Inc()
		}
		return dto.SubmissionResponse{}, translateTransitionErr(err)
	}

	observability.TransitionsAppliedTotal().WithLabelValues(event.Kind).Inc()
	s.fanout.Dispatch(spanCtx, event)

	s.logger.Info().Uint("submission_id", id).Str("reviewer", reviewer.Username).
		Str("decision", payload.Decision).Str("stage", string(expectedStage)).
		Msg("review applied")

	updated, err := s.submissions.GetByID(spanCtx, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(updated), nil
}

func (s *reviewService) teamLeaderOutcome(submission models.Submission, reviewer models.User, approve bool, comment string) (map[string]interface{}, models.OutboxEvent) {
	now := s.now().UTC()

	// The review slot is recorded for both outcomes.
	updates := map[string]interface{}{
		"team_leader_reviewer_id":       reviewer.ID,
		"team_leader_reviewer_username": reviewer.Username,
		"team_leader_reviewed_at":       now,
		"team_leader_comment":           comment,
		"updated_at":                    now,
	}

	event := models.OutboxEvent{
		ActorID:       reviewer.ID,
		ActorUsername: reviewer.Username,
		ActorRole:     reviewer.Role,
		OwnerID:       submission.OwnerID,
		Team:          submission.Team,
		Detail:        comment,
	}

	if approve {
		updates["status"] = workflow.StatusTeamLeaderApproved
		updates["current_stage"] = workflow.StagePendingAdmin
		event.Kind = models.EventTeamLeaderApproved
	} else {
		updates["status"] = workflow.StatusRejectedByTeamLeader
		updates["current_stage"] = workflow.StageRejectedByTeamLeader
		updates["rejection_reason"] = comment
		updates["rejected_by_id"] = reviewer.ID
		updates["rejected_by_username"] = reviewer.Username
		updates["rejected_at"] = now
		event.Kind = models.EventTeamLeaderRejected
	}

	return updates, event
}

func (s *reviewService) adminOutcome(ctx context.Context, submission models.Submission, reviewer models.User, approve bool, comment string) (map[string]interface{}, models.OutboxEvent) {
	now := s.now().UTC()

	updates := map[string]interface{}{
		"admin_reviewer_id":       reviewer.ID,
		"admin_reviewer_username": reviewer.Username,
		"admin_reviewed_at":       now,
		"admin_comment":           comment,
		"updated_at":              now,
	}

	event := models.OutboxEvent{
		ActorID:       reviewer.ID,
		ActorUsername: reviewer.Username,
		ActorRole:     reviewer.Role,
		OwnerID:       submission.OwnerID,
		Team:          submission.Team,
		Detail:        comment,
	}

	if approve {
		updates["status"] = workflow.StatusFinalApproved
		updates["current_stage"] = workflow.StagePublishedToPublic
		updates["final_approved_at"] = now
		event.Kind = models.EventAdminApproved

		publicURL, err := s.linker.PublicURL(ctx, submission)
		if err != nil {
			// Publication proceeds without the link; it can be
			// regenerated from the stored file reference.
			s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to resolve public url")
		} else {
			updates["public_url"] = publicURL
		}
	} else {
		updates["status"] = workflow.StatusRejectedByAdmin
		updates["current_stage"] = workflow.StageRejectedByAdmin
		updates["rejection_reason"] = comment
		updates["rejected_by_id"] = reviewer.ID
		updates["rejected_by_username"] = reviewer.Username
		updates["rejected_at"] = now
		event.Kind = models.EventAdminRejected
	}

	return updates, event
}
