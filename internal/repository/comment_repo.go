package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/fileflow/fileflow-api/internal/models"
)

// CommentRepository handles persistence for assignment comments and replies.
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.AssignmentComment) error
	CreateReply(ctx context.Context, reply *models.CommentReply) error
	GetComment(ctx context.Context, id uint) (models.AssignmentComment, error)
	ListByAssignment(ctx context.Context, assignmentID uint) ([]models.AssignmentComment, error)
	ListParticipants(ctx context.Context, assignmentID uint) ([]uint, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository constructs a repository backed by GORM.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) CreateComment(ctx context.Context, comment *models.AssignmentComment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepository) CreateReply(ctx context.Context, reply *models.CommentReply) error {
	return r.db.WithContext(ctx).Create(reply).Error
}

func (r *commentRepository) GetComment(ctx context.Context, id uint) (models.AssignmentComment, error) {
	var comment models.AssignmentComment
	if err := r.db.WithContext(ctx).Preload("Replies").First(&comment, id).Error; err != nil {
		return models.AssignmentComment{}, err
	}
	return comment, nil
}

func (r *commentRepository) ListByAssignment(ctx context.Context, assignmentID uint) ([]models.AssignmentComment, error) {
	var comments []models.AssignmentComment
	if err := r.db.WithContext(ctx).
		Preload("Replies").
		Where("assignment_id = ?", assignmentID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// ListParticipants returns the distinct author ids of every comment and
// reply on the assignment, used for comment fan-out.
func (r *commentRepository) ListParticipants(ctx context.Context, assignmentID uint) ([]uint, error) {
	var commentAuthors []uint
	if err := r.db.WithContext(ctx).Model(&models.AssignmentComment{}).
		Distinct("author_id").
		Where("assignment_id = ?", assignmentID).
		Pluck("author_id", &commentAuthors).Error; err != nil {
		return nil, err
	}

	var replyAuthors []uint
	if err := r.db.WithContext(ctx).Model(&models.CommentReply{}).
		Distinct("author_id").
		Where("comment_id IN (?)", r.db.Model(&models.AssignmentComment{}).
			Select("id").
			Where("assignment_id = ?", assignmentID)).
		Pluck("author_id", &replyAuthors).Error; err != nil {
		return nil, err
	}

	seen := make(map[uint]struct{}, len(commentAuthors)+len(replyAuthors))
	participants := make([]uint, 0, len(commentAuthors)+len(replyAuthors))
	for _, id := range append(commentAuthors, replyAuthors...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		participants = append(participants, id)
	}

	return participants, nil
}
