package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/fileflow/fileflow-api/internal/models"
)

// AssignmentFilter narrows assignment queries.
type AssignmentFilter struct {
	OwnerID  *uint
	Team     *string
	MemberID *uint
}

// AssignmentRepository defines data operations for assignments and their
// member rows.
type AssignmentRepository interface {
	List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, error)
	GetByID(ctx context.Context, id uint) (models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	GetMember(ctx context.Context, assignmentID, userID uint) (models.AssignmentMember, error)
	UpdateMember(ctx context.Context, member *models.AssignmentMember) error
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates the repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, error) {
	query := r.db.WithContext(ctx).Model(&models.Assignment{}).Preload("Members")

	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.Team != nil {
		query = query.Where("team = ?", *filter.Team)
	}
	if filter.MemberID != nil {
		query = query.Where("id IN (?)", r.db.Model(&models.AssignmentMember{}).
			Select("assignment_id").
			Where("user_id = ?", *filter.MemberID))
	}

	var assignments []models.Assignment
	if err := query.Order("created_at DESC").Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).Preload("Members").First(&assignment, id).Error; err != nil {
		return models.Assignment{}, err
	}
	return assignment, nil
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) GetMember(ctx context.Context, assignmentID, userID uint) (models.AssignmentMember, error) {
	var member models.AssignmentMember
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Where("user_id = ?", userID).
		First(&member).Error; err != nil {
		return models.AssignmentMember{}, err
	}
	return member, nil
}

func (r *assignmentRepository) UpdateMember(ctx context.Context, member *models.AssignmentMember) error {
	return r.db.WithContext(ctx).Save(member).Error
}
