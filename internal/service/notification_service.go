package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/fileflow/fileflow-api/internal/dto"
	"github.com/fileflow/fileflow-api/internal/models"
	"github.com/fileflow/fileflow-api/internal/navigation"
	"github.com/fileflow/fileflow-api/internal/observability"
	"github.com/fileflow/fileflow-api/internal/repository"
)

const notificationBufferSize = 16

// NotificationService stores notification rows and exposes the consumption
// surface used by the dashboards: polling list, unread counter, read/delete
// mutations, navigation resolution and an optional push stream.
type NotificationService interface {
	NotificationSink
	List(ctx context.Context, userID uint, limit, offset int) ([]dto.NotificationResponse, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, id, userID uint) (dto.NotificationResponse, error)
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
	Delete(ctx context.Context, id, userID uint) error
	DeleteRead(ctx context.Context, userID uint) (int64, error)
	Navigation(ctx context.Context, id, userID uint, role string) (navigation.Resolution, error)
	Subscribe(userID uint) (<-chan dto.NotificationResponse, func())
	Start(ctx context.Context)
}

type notificationService struct {
	repo        repository.NotificationRepository
	redis       *redis.Client
	redisChan   string
	nats        *nats.Conn
	natsSubject string
	cacheTTL    time.Duration
	logger      zerolog.Logger
	tracer      trace.Tracer
	broker      *notificationBroker
	nodeID      string
}

type notificationEvent struct {
	Source       string                   `json:"source"`
	Notification dto.NotificationResponse `json:"notification"`
	SentAt       time.Time                `json:"sent_at"`
}

type notificationBroker struct {
	mu          sync.RWMutex
	subscribers map[uint]map[chan dto.NotificationResponse]struct{}
}

// NewNotificationService constructs a notification service. Redis and NATS
// are optional; with neither configured, delivery is purely in-process.
func NewNotificationService(repo repository.NotificationRepository, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, cacheTTL time.Duration, logger zerolog.Logger) NotificationService {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":notifications"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".notifications"
	}
	if cacheTTL <= 0 {
		cacheTTL = 15 * time.Second
	}

	return &notificationService{
		repo:        repo,
		redis:       redisClient,
		redisChan:   channel,
		nats:        natsConn,
		natsSubject: subject,
		cacheTTL:    cacheTTL,
		logger:      logger.With().Str("component", "notification_service").Logger(),
		tracer:      otel.Tracer("github.com/fileflow/fileflow-api/internal/service/notification"),
		broker: &notificationBroker{
			subscribers: make(map[uint]map[chan dto.NotificationResponse]struct{}),
		},
		nodeID: uuid.NewString(),
	}
}

func (s *notificationService) Start(ctx context.Context) {
	if s.redis != nil && s.redisChan != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

// Deliver persists the notification and broadcasts it. The write is the
// contract; broadcast failures are logged and ignored.
func (s *notificationService) Deliver(ctx context.Context, notification *models.Notification) error {
	if notification.UserID == 0 {
		return errors.New("notification requires a recipient")
	}

	attrs := []attribute.KeyValue{
		attribute.Int64("notification.user_id", int64(notification.UserID)),
		attribute.String("notification.type", notification.Type),
	}
	spanCtx, span := s.tracer.Start(ctx, "notifications.deliver", trace.WithAttributes(attrs...))
	defer span.End()

	if err := s.repo.Create(spanCtx, notification); err != nil {
		span.RecordError(err)
		return err
	}

	s.invalidateUnread(spanCtx, notification.UserID)

	response := dto.NewNotificationResponse(*notification)
	s.broker.broadcast(notification.UserID, response)
	if err := s.publish(spanCtx, response); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish notification to broker")
	}

	return nil
}

func (s *notificationService) List(ctx context.Context, userID uint, limit, offset int) ([]dto.NotificationResponse, error) {
	if userID == 0 {
		return nil, errors.New("user id is required")
	}

	notifications, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return dto.NewNotificationResponseSlice(notifications), nil
}

// UnreadCount serves the badge counter the dashboards poll on an interval;
// a short redis cache absorbs the poll traffic.
func (s *notificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	key := s.unreadKey(userID)
	if s.redis != nil && key != "" {
		if cached, err := s.redis.Get(ctx, key).Result(); err == nil {
			if count, parseErr := strconv.ParseInt(cached, 10, 64); parseErr == nil {
				return count, nil
			}
		}
	}

	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}

	if s.redis != nil && key != "" {
		if err := s.redis.Set(ctx, key, count, s.cacheTTL).Err(); err != nil {
			s.logger.Debug().Err(err).Msg("failed to cache unread count")
		}
	}

	return count, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID uint) (dto.NotificationResponse, error) {
	notification, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.NotificationResponse{}, ErrNotificationNotFound
		}
		return dto.NotificationResponse{}, err
	}

	s.invalidateUnread(ctx, userID)

	return dto.NewNotificationResponse(notification), nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	updated, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}

	s.invalidateUnread(ctx, userID)

	return updated, nil
}

func (s *notificationService) Delete(ctx context.Context, id, userID uint) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}

	s.invalidateUnread(ctx, userID)

	return nil
}

func (s *notificationService) DeleteRead(ctx context.Context, userID uint) (int64, error) {
	return s.repo.DeleteRead(ctx, userID)
}

// Navigation resolves where a notification click should take the viewer.
// Resolution never fails on malformed rows; only a missing or foreign row
// is an error.
func (s *notificationService) Navigation(ctx context.Context, id, userID uint, role string) (navigation.Resolution, error) {
	notification, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return navigation.Resolution{}, ErrNotificationNotFound
		}
		return navigation.Resolution{}, err
	}

	if notification.UserID != userID {
		return navigation.Resolution{}, ErrNotificationNotFound
	}

	resolution := navigation.Resolve(notification, role)
	if resolution.NotificationType == navigation.TypeUnknown {
		s.logger.Warn().Uint("notification_id", id).Str("type", notification.Type).
			Msg("notification did not resolve to a navigation target")
	}

	return resolution, nil
}

func (s *notificationService) Subscribe(userID uint) (<-chan dto.NotificationResponse, func()) {
	channel := make(chan dto.NotificationResponse, notificationBufferSize)

	s.broker.subscribe(userID, channel)
	observability.StreamClientsActive().Inc()

	cleanup := func() {
		s.broker.unsubscribe(userID, channel)
		observability.StreamClientsActive().Dec()
	}

	return channel, cleanup
}

func (s *notificationService) unreadKey(userID uint) string {
	if s.redisChan == "" {
		return ""
	}
	return fmt.Sprintf("%s:unread:%d", s.redisChan, userID)
}

func (s *notificationService) invalidateUnread(ctx context.Context, userID uint) {
	key := s.unreadKey(userID)
	if s.redis == nil || key == "" {
		return
	}
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		s.logger.Debug().Err(err).Msg("failed to invalidate unread count cache")
	}
}

func (s *notificationService) publish(ctx context.Context, notification dto.NotificationResponse) error {
	event := notificationEvent{
		Source:       s.nodeID,
		Notification: notification,
		SentAt:       time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisChan != "" {
		if err := s.redis.Publish(ctx, s.redisChan, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *notificationService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisChan)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("notification redis subscription closed")
			return
		}
		s.handleEvent([]byte(msg.Payload))
	}
}

func (s *notificationService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.QueueSubscribe(s.natsSubject, "fileflow-notifications", func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats notifications subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain notification nats subscription")
		}
	}()
}

func (s *notificationService) handleEvent(payload []byte) {
	var event notificationEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid notification event payload")
		return
	}

	if event.Source == s.nodeID {
		return
	}

	s.broker.broadcast(event.Notification.UserID, event.Notification)
}

func (b *notificationBroker) subscribe(userID uint, ch chan dto.NotificationResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[userID]; !exists {
		b.subscribers[userID] = make(map[chan dto.NotificationResponse]struct{})
	}
	b.subscribers[userID][ch] = struct{}{}
}

func (b *notificationBroker) unsubscribe(userID uint, ch chan dto.NotificationResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[userID]; ok {
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, userID)
		}
	}
}

func (b *notificationBroker) broadcast(userID uint, notification dto.NotificationResponse) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	subscribers := b.subscribers[userID]
	for ch := range subscribers {
		select {
		case ch <- notification:
		default:
		}
	}
}
