package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/fileflow/fileflow-api/internal/models"
	"github.com/fileflow/fileflow-api/internal/observability"
	"github.com/fileflow/fileflow-api/internal/repository"
)

// NotificationSink persists and broadcasts a single notification row. The
// notification service implements it.
type NotificationSink interface {
	Deliver(ctx context.Context, notification *models.Notification) error
}

// FanoutService turns committed workflow events into notification rows. A
// fan-out failure never propagates to the transition that produced the
// event; undelivered events stay in the outbox and are retried by Run.
type FanoutService interface {
	Dispatch(ctx context.Context, event models.OutboxEvent)
	Run(ctx context.Context)
}

type fanoutService struct {
	users         repository.UserRepository
	assignments   repository.AssignmentRepository
	comments      repository.CommentRepository
	outbox        repository.OutboxRepository
	sink          NotificationSink
	logger        zerolog.Logger
	tracer        trace.Tracer
	retryInterval time.Duration
	minEventAge   time.Duration
	now           func() time.Time
}

// NewFanoutService constructs the fan-out dispatcher.
func NewFanoutService(
	users repository.UserRepository,
	assignments repository.AssignmentRepository,
	comments repository.CommentRepository,
	outbox repository.OutboxRepository,
	sink NotificationSink,
	retryInterval time.Duration,
	logger zerolog.Logger,
) FanoutService {
	if retryInterval <= 0 {
		retryInterval = 30 * time.Second
	}

	return &fanoutService{
		users:         users,
		assignments:   assignments,
		comments:      comments,
		outbox:        outbox,
		sink:          sink,
		logger:        logger.With().Str("component", "fanout_service").Logger(),
		tracer:        otel.Tracer("github.com/fileflow/fileflow-api/internal/service/fanout"),
		retryInterval: retryInterval,
		minEventAge:   retryInterval,
		now:           time.Now,
	}
}

// Dispatch resolves recipients for the event, writes one notification per
// recipient and marks the event dispatched. All failures are logged only.
func (s *fanoutService) Dispatch(ctx context.Context, event models.OutboxEvent) {
	attrs := []attribute.KeyValue{
		attribute.String("event.kind", event.Kind),
		attribute.Int64("event.id", int64(event.ID)),
	}
	spanCtx, span := s.tracer.Start(ctx, "fanout.dispatch", trace.WithAttributes(attrs...))
	defer span.End()

	notifications, err := s.buildNotifications(spanCtx, event)
	if err != nil {
		span.RecordError(err)
		if isPermanentFanoutErr(err) {
			s.logger.Warn().Err(err).Uint("event_id", event.ID).Str("kind", event.Kind).
				Msg("notification fan-out skipped")
			// Retrying can never produce recipients; keep the event from
			// looping through the dispatcher forever.
			s.markDispatched(spanCtx, event.ID)
			return
		}
		s.logger.Warn().Err(err).Uint("event_id", event.ID).Str("kind", event.Kind).
			Msg("notification fan-out deferred for retry")
		return
	}

	if len(notifications) == 0 {
		s.logger.Warn().Uint("event_id", event.ID).Str("kind", event.Kind).
			Err(ErrNoRecipients).Msg("notification fan-out skipped")
		s.markDispatched(spanCtx, event.ID)
		return
	}

	delivered := 0
	for i := range notifications {
		if err := s.sink.Deliver(spanCtx, &notifications[i]); err != nil {
			span.RecordError(err)
			s.logger.Error().Err(err).Uint("event_id", event.ID).
				Uint("recipient", notifications[i].UserID).
				Msg("failed to deliver notification")
			continue
		}
		delivered++
		observability.NotificationsCreatedTotal().WithLabelValues(notifications[i].Type).Inc()
	}

	if delivered == len(notifications) {
		s.markDispatched(spanCtx, event.ID)
	}

	s.logger.Info().Uint("event_id", event.ID).Str("kind", event.Kind).
		Int("recipients", delivered).Msg("workflow event fanned out")
}

// Run periodically redelivers events that were committed but never fully
// fanned out, e.g. after a crash between commit and dispatch.
func (s *fanoutService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.retryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.redispatchStale(ctx)
		}
	}
}

func (s *fanoutService) redispatchStale(ctx context.Context) {
	cutoff := s.now().Add(-s.minEventAge)
	events, err := s.outbox.ListUndispatched(ctx, cutoff, 100)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list undispatched events")
		return
	}

	for _, event := range events {
		observability.OutboxRedispatchesTotal().Inc()
		s.Dispatch(ctx, event)
	}
}

func (s *fanoutService) markDispatched(ctx context.Context, id uint) {
	if err := s.outbox.MarkDispatched(ctx, id, s.now().UTC()); err != nil {
		s.logger.Error().Err(err).Uint("event_id", id).Msg("failed to mark event dispatched")
	}
}

// buildNotifications applies the fan-out rules for one event kind.
func (s *fanoutService) buildNotifications(ctx context.Context, event models.OutboxEvent) ([]models.Notification, error) {
	switch event.Kind {
	case models.EventFileSubmitted:
		leaders, err := s.users.ListTeamLeaders(ctx, event.Team)
		if err != nil {
			return nil, err
		}
		return s.forUsers(leaders, event, models.NotificationTypeSubmission,
			"New File Submission",
			fmt.Sprintf("%s submitted %q for review", event.ActorUsername, event.Detail)), nil

	case models.EventTeamLeaderApproved:
		admins, err := s.users.ListAdmins(ctx)
		if err != nil {
			return nil, err
		}
		notifications := s.forUserIDs([]uint{event.OwnerID}, event, models.NotificationTypeApproval,
			"File Approved by Team Leader",
			fmt.Sprintf("%s approved your file and forwarded it for final review", event.ActorUsername))
		notifications = append(notifications, s.forUsers(admins, event, models.NotificationTypeApproval,
			"File Awaiting Final Review",
			fmt.Sprintf("%s approved a file from %s; it awaits your decision", event.ActorUsername, event.Team))...)
		return notifications, nil

	case models.EventTeamLeaderRejected:
		return s.forUserIDs([]uint{event.OwnerID}, event, models.NotificationTypeRejection,
			"File Rejected by Team Leader",
			fmt.Sprintf("%s rejected your file: %s", event.ActorUsername, event.Detail)), nil

	case models.EventAdminApproved:
		return s.withTeamLeaders(ctx, event, models.NotificationTypeFinalApproval,
			"File Published",
			fmt.Sprintf("%s gave final approval; the file is now public", event.ActorUsername))

	case models.EventAdminRejected:
		return s.withTeamLeaders(ctx, event, models.NotificationTypeFinalRejection,
			"File Rejected by Admin",
			fmt.Sprintf("%s rejected the file at final review: %s", event.ActorUsername, event.Detail))

	case models.EventCommentPosted, models.EventReplyPosted:
		return s.forCommentThread(ctx, event)

	case models.EventPasswordResetRequest:
		admins, err := s.users.ListAdmins(ctx)
		if err != nil {
			return nil, err
		}
		return s.forUsers(admins, event, models.NotificationTypePasswordResetRequest,
			"Password Reset Requested",
			fmt.Sprintf("%s requested a password reset", event.ActorUsername)), nil

	default:
		return nil, fmt.Errorf("%w: %q", errUnhandledEventKind, event.Kind)
	}
}

var errUnhandledEventKind = errors.New("unhandled event kind")

// isPermanentFanoutErr separates failures no retry can fix (no recipients,
// unknown kind, referenced row gone) from transient lookup errors that stay
// pending for the redispatch loop.
func isPermanentFanoutErr(err error) bool {
	return errors.Is(err, ErrNoRecipients) ||
		errors.Is(err, errUnhandledEventKind) ||
		errors.Is(err, gorm.ErrRecordNotFound)
}

// withTeamLeaders notifies the submission owner plus the team's leaders.
func (s *fanoutService) withTeamLeaders(ctx context.Context, event models.OutboxEvent, notificationType, title, message string) ([]models.Notification, error) {
	leaders, err := s.users.ListTeamLeaders(ctx, event.Team)
	if err != nil {
		return nil, err
	}

	notifications := s.forUserIDs([]uint{event.OwnerID}, event, notificationType, title, message)
	notifications = append(notifications, s.forUsers(leaders, event, notificationType, title, message)...)
	return notifications, nil
}

// forCommentThread notifies the assignment owner and every prior commenter
// except the author of the new comment.
func (s *fanoutService) forCommentThread(ctx context.Context, event models.OutboxEvent) ([]models.Notification, error) {
	if event.AssignmentID == nil {
		return nil, ErrNoRecipients
	}

	assignment, err := s.assignments.GetByID(ctx, *event.AssignmentID)
	if err != nil {
		return nil, err
	}

	participants, err := s.comments.ListParticipants(ctx, assignment.ID)
	if err != nil {
		return nil, err
	}

	recipients := make([]uint, 0, len(participants)+1)
	seen := map[uint]struct{}{event.ActorID: {}}
	for _, id := range append([]uint{assignment.OwnerID}, participants...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		recipients = append(recipients, id)
	}

	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}

	title := "New Comment on Assignment"
	message := fmt.Sprintf("%s commented on %q", event.ActorUsername, assignment.Title)
	if event.Kind == models.EventReplyPosted {
		title = "New Reply on Assignment"
		message = fmt.Sprintf("%s replied to your comment on %q", event.ActorUsername, assignment.Title)
	}

	return s.forUserIDs(recipients, event, models.NotificationTypeComment, title, message), nil
}

func (s *fanoutService) forUsers(users []models.User, event models.OutboxEvent, notificationType, title, message string) []models.Notification {
	ids := make([]uint, 0, len(users))
	for _, user := range users {
		ids = append(ids, user.ID)
	}
	return s.forUserIDs(ids, event, notificationType, title, message)
}

func (s *fanoutService) forUserIDs(ids []uint, event models.OutboxEvent, notificationType, title, message string) []models.Notification {
	notifications := make([]models.Notification, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		notifications = append(notifications, models.Notification{
			UserID:           id,
			Type:             notificationType,
			Title:            title,
			Message:          message,
			FileID:           event.SubmissionID,
			AssignmentID:     event.AssignmentID,
			ActionByID:       event.ActorID,
			ActionByUsername: event.ActorUsername,
			ActionByRole:     event.ActorRole,
		})
	}
	return notifications
}
