package postgres

import (
	"context"
	"time"

	"beatmarket/internal/domain/entity"
	domainerrors "beatmarket/internal/domain/errors"
	"beatmarket/internal/domain/repository"
	"beatmarket/internal/errors"
	"beatmarket/internal/infra/persistence/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// commentRepository implements the repository.CommentRepository interface.
type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository is the constructor for commentRepository.
func NewCommentRepository(db *gorm.DB) repository.CommentRepository {
	return &commentRepository{db: db}
}

func (repo *commentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Comment, error) {
	var commentM model.CommentModel
	if err := repo.db.WithContext(ctx).Where("id = ?", id).First(&commentM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrCommentNotFound
		}

		return nil, domainerrors.NewStorageError(err, "failed to find comment")
	}

	return toCommentDomain(&commentM), nil
}

// ListByBeat pages the beat's comments, newest first.
func (repo *commentRepository) ListByBeat(ctx context.Context, beatID uuid.UUID, page entity.Page) ([]*entity.Comment, int64, error) {
	var total int64
	if err := repo.db.WithContext(ctx).
		Model(&model.CommentModel{}).
		Where("beat_id = ?", beatID).
		Count(&total).Error; err != nil {
		return nil, 0, domainerrors.NewStorageError(err, "failed to count comments")
	}

	var commentModels []*model.CommentModel
	if err := repo.db.WithContext(ctx).
		Where("beat_id = ?", beatID).
		Order("created_at DESC").
		Order("id ASC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&commentModels).Error; err != nil {
		return nil, 0, domainerrors.NewStorageError(err, "failed to list comments")
	}

	comments := make([]*entity.Comment, 0, len(commentModels))
	for _, commentM := range commentModels {
		comments = append(comments, toCommentDomain(commentM))
	}

	return comments, total, nil
}

func (repo *commentRepository) Create(ctx context.Context, comment *entity.Comment) error {
	if err := repo.db.WithContext(ctx).Create(fromCommentDomain(comment)).Error; err != nil {
		return domainerrors.NewStorageError(err, "failed to create comment")
	}

	return nil
}

// UpdateText replaces the comment text and returns the updated row.
func (repo *commentRepository) UpdateText(ctx context.Context, id uuid.UUID, text string) (*entity.Comment, error) {
	var commentM model.CommentModel
	result := repo.db.WithContext(ctx).
		Model(&commentM).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"text":       text,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return nil, domainerrors.NewStorageError(result.Error, "failed to update comment")
	}
	if result.RowsAffected == 0 {
		return nil, repository.ErrCommentNotFound
	}

	return toCommentDomain(&commentM), nil
}

func (repo *commentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).Where("id = ?", id).Delete(&model.CommentModel{})
	if result.Error != nil {
		return domainerrors.NewStorageError(result.Error, "failed to delete comment")
	}
	if result.RowsAffected == 0 {
		return repository.ErrCommentNotFound
	}

	return nil
}

// DeleteByBeat removes every comment of the beat.
func (repo *commentRepository) DeleteByBeat(ctx context.Context, beatID uuid.UUID) error {
	if err := repo.db.WithContext(ctx).
		Where("beat_id = ?", beatID).
		Delete(&model.CommentModel{}).Error; err != nil {
		return domainerrors.NewStorageError(err, "failed to delete comments")
	}

	return nil
}

// --- Mapper Functions ---

func toCommentDomain(data *model.CommentModel) *entity.Comment {
	if data == nil {
		return nil
	}

	return &entity.Comment{
		ID:             data.ID,
		BeatID:         data.BeatID,
		UserID:         data.UserID,
		AuthorUsername: data.AuthorUsername,
		Text:           data.Text,
		CreatedAt:      data.CreatedAt,
		UpdatedAt:      data.UpdatedAt,
	}
}

func fromCommentDomain(data *entity.Comment) *model.CommentModel {
	if data == nil {
		return nil
	}

	return &model.CommentModel{
		ID:             data.ID,
		BeatID:         data.BeatID,
		UserID:         data.UserID,
		AuthorUsername: data.AuthorUsername,
		Text:           data.Text,
		CreatedAt:      data.CreatedAt,
		UpdatedAt:      data.UpdatedAt,
	}
}
