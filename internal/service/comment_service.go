package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fileflow/fileflow-api/internal/dto"
	"github.com/fileflow/fileflow-api/internal/models"
	"github.com/fileflow/fileflow-api/internal/repository"
)

// CommentService manages threaded discussion on assignments.
type CommentService interface {
	ListByAssignment(ctx context.Context, assignmentID uint) ([]dto.CommentResponse, error)
	CreateComment(ctx context.Context, assignmentID uint, author models.User, payload dto.CommentCreateRequest) (dto.CommentResponse, error)
	CreateReply(ctx context.Context, commentID uint, author models.User, payload dto.ReplyCreateRequest) (dto.CommentReplyResponse, error)
}

type commentService struct {
	comments    repository.CommentRepository
	assignments repository.AssignmentRepository
	outbox      repository.OutboxRepository
	fanout      FanoutService
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewCommentService constructs a CommentService instance.
func NewCommentService(
	commentRepo repository.CommentRepository,
	assignmentRepo repository.AssignmentRepository,
	outboxRepo repository.OutboxRepository,
	fanout FanoutService,
	validate *validator.Validate,
	logger zerolog.Logger,
) CommentService {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("br")

	return &commentService{
		comments:    commentRepo,
		assignments: assignmentRepo,
		outbox:      outboxRepo,
		fanout:      fanout,
		validator:   validate,
		sanitizer:   policy,
		logger:      logger.With().Str("component", "comment_service").Logger(),
		now:         time.Now,
	}
}

func (s *commentService) ListByAssignment(ctx context.Context, assignmentID uint) ([]dto.CommentResponse, error) {
	if _, err := s.assignments.GetByID(ctx, assignmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	comments, err := s.comments.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	return dto.NewCommentResponseSlice(comments), nil
}

func (s *commentService) CreateComment(ctx context.Context, assignmentID uint, author models.User, payload dto.CommentCreateRequest) (dto.CommentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CommentResponse{}, err
	}

	content := strings.TrimSpace(s.sanitizer.Sanitize(payload.Content))
	if content == "" {
		return dto.CommentResponse{}, errors.New("comment empty after sanitization")
	}

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CommentResponse{}, ErrAssignmentNotFound
		}
		return dto.CommentResponse{}, err
	}

	comment := models.AssignmentComment{
		AssignmentID:   assignment.ID,
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		Content:        content,
	}

	if err := s.comments.CreateComment(ctx, &comment); err != nil {
		return dto.CommentResponse{}, err
	}

	s.recordAndDispatch(ctx, models.OutboxEvent{
		Kind:          models.EventCommentPosted,
		AssignmentID:  &assignment.ID,
		CommentID:     &comment.ID,
		ActorID:       author.ID,
		ActorUsername: author.Username,
		ActorRole:     author.Role,
		OwnerID:       assignment.OwnerID,
		Team:          assignment.Team,
	})

	s.logger.Info().Uint("assignment_id", assignment.ID).Uint("comment_id", comment.ID).
		Str("author", author.Username).Msg("comment posted")

	return dto.NewCommentResponse(comment), nil
}

func (s *commentService) CreateReply(ctx context.Context, commentID uint, author models.User, payload dto.ReplyCreateRequest) (dto.CommentReplyResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CommentReplyResponse{}, err
	}

	content := strings.TrimSpace(s.sanitizer.Sanitize(payload.Content))
	if content == "" {
		return dto.CommentReplyResponse{}, errors.New("reply empty after sanitization")
	}

	parent, err := s.comments.GetComment(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CommentReplyResponse{}, ErrCommentNotFound
		}
		return dto.CommentReplyResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, parent.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CommentReplyResponse{}, ErrAssignmentNotFound
		}
		return dto.CommentReplyResponse{}, err
	}

	reply := models.CommentReply{
		CommentID:      parent.ID,
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		Content:        content,
	}

	if err := s.comments.CreateReply(ctx, &reply); err != nil {
		return dto.CommentReplyResponse{}, err
	}

	s.recordAndDispatch(ctx, models.OutboxEvent{
		Kind:          models.EventReplyPosted,
		AssignmentID:  &assignment.ID,
		CommentID:     &parent.ID,
		ActorID:       author.ID,
		ActorUsername: author.Username,
		ActorRole:     author.Role,
		OwnerID:       assignment.OwnerID,
		Team:          assignment.Team,
	})

	s.logger.Info().Uint("comment_id", parent.ID).Uint("reply_id", reply.ID).
		Str("author", author.Username).Msg("reply posted")

	return dto.NewCommentReplyResponse(reply), nil
}

// recordAndDispatch writes the outbox row, then fans out. An outbox write
// failure degrades to direct dispatch so the notification is still
// attempted once.
func (s *commentService) recordAndDispatch(ctx context.Context, event models.OutboxEvent) {
	if err := s.outbox.Create(ctx, &event); err != nil {
		s.logger.Warn().Err(err).Str("kind", event.Kind).Msg("failed to record outbox event")
	}
	s.fanout.Dispatch(ctx, event)
}
