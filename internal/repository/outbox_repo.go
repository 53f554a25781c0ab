package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/fileflow/fileflow-api/internal/models"
)

// OutboxRepository manages the workflow event outbox.
type OutboxRepository interface {
	Create(ctx context.Context, event *models.OutboxEvent) error
	MarkDispatched(ctx context.Context, id uint, at time.Time) error
	ListUndispatched(ctx context.Context, olderThan time.Time, limit int) ([]models.OutboxEvent, error)
}

type outboxRepository struct {
	db *gorm.DB
}

// NewOutboxRepository constructs a repository backed by GORM.
func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) Create(ctx context.Context, event *models.OutboxEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *outboxRepository) MarkDispatched(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Update("dispatched_at", at).Error
}

func (r *outboxRepository) ListUndispatched(ctx context.Context, olderThan time.Time, limit int) ([]models.OutboxEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	var events []models.OutboxEvent
	if err := r.db.WithContext(ctx).
		Where("dispatched_at IS NULL").
		Where("created_at < ?", olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, err
	}

	return events, nil
}
