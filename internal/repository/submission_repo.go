package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/fileflow/fileflow-api/internal/models"
	"github.com/fileflow/fileflow-api/internal/workflow"
)

// SubmissionFilter narrows submission queries.
type SubmissionFilter struct {
	OwnerID *uint
	Team    *string
	Stage   *workflow.Stage
	Status  *workflow.Status
}

// SubmissionRepository defines data operations for submissions. Transition
// applies a stage-guarded update together with its outbox event in one
// transaction, so partial status/stage writes are never observable.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	CreateWithEvent(ctx context.Context, submission *models.Submission, event *models.OutboxEvent) error
	Transition(ctx context.Context, id uint, fromStage workflow.Stage, updates map[string]interface{}, event *models.OutboxEvent) error
	Delete(ctx context.Context, id uint) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.db.WithContext(ctx).Model(&models.Submission{})

	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.Team != nil {
		query = query.Where("team = ?", *filter.Team)
	}
	if filter.Stage != nil {
		query = query.Where("current_stage = ?", *filter.Stage)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var submissions []models.Submission
	if err := query.Order("created_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) CreateWithEvent(ctx context.Context, submission *models.Submission, event *models.OutboxEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(submission).Error; err != nil {
			return err
		}
		if event != nil {
			event.SubmissionID = &submission.ID
			if err := tx.Create(event).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *submissionRepository) Transition(ctx context.Context, id uint, fromStage workflow.Stage, updates map[string]interface{}, event *models.OutboxEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Submission{}).
			Where("id = ? AND current_stage = ?", id, fromStage).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}

		// Zero rows means either the row vanished or another reviewer
		// advanced the stage first; distinguish the two for the caller.
		if result.RowsAffected == 0 {
			var exists int64
			if err := tx.Model(&models.Submission{}).Where("id = ?", id).Count(&exists).Error; err != nil {
				return err
			}
			if exists == 0 {
				return gorm.ErrRecordNotFound
			}
			return workflow.ErrWrongStage
		}

		if event != nil {
			if event.SubmissionID == nil {
				event.SubmissionID = &id
			}
			if err := tx.Create(event).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *submissionRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Submission{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
