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
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const beatColumns = "beats.id, beats.title, beats.author_display_name, beats.price, beats.description, beats.tags, " +
	"beats.image_ref, beats.audio_ref, beats.owner_user_id, beats.created_at, beats.updated_at"

// beatRow is a beat joined with rating aggregates or the listing user's score.
type beatRow struct {
	ID                uuid.UUID
	Title             string
	AuthorDisplayName string
	Price             decimal.Decimal
	Description       string
	Tags              pq.StringArray `gorm:"type:text[]"`
	ImageRef          string
	AudioRef          string
	OwnerUserID       uuid.UUID
	CreatedAt         time.Time
	UpdatedAt         time.Time

	RatingSum   int64
	RatingCount int64
	UserScore   int
}

func (row *beatRow) beat() *entity.Beat {
	return toBeatDomain(&model.BeatModel{
		ID:                row.ID,
		Title:             row.Title,
		AuthorDisplayName: row.AuthorDisplayName,
		Price:             row.Price,
		Description:       row.Description,
		Tags:              row.Tags,
		ImageRef:          row.ImageRef,
		AudioRef:          row.AudioRef,
		OwnerUserID:       row.OwnerUserID,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	})
}

// ratingRepository implements the repository.RatingRepository interface.
type ratingRepository struct {
	db *gorm.DB
}

// NewRatingRepository is the constructor for ratingRepository.
func NewRatingRepository(db *gorm.DB) repository.RatingRepository {
	return &ratingRepository{db: db}
}

// Upsert relies on the (beat_id, user_id) unique index so concurrent first ratings collapse into one row.
func (repo *ratingRepository) Upsert(ctx context.Context, rating *entity.Rating) (*entity.Rating, error) {
	ratingM := fromRatingDomain(rating)

	err := repo.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns: []clause.Column{{Name: "beat_id"}, {Name: "user_id"}},
				DoUpdates: clause.Assignments(map[string]any{
					"value":      ratingM.Value,
					"updated_at": ratingM.UpdatedAt,
				}),
			},
			clause.Returning{},
		).
		Create(ratingM).Error
	if err != nil {
		if isForeignKeyConstraintViolation(err) {
			return nil, repository.ErrBeatNotFound
		}
		if isCheckConstraintViolation(err) {
			return nil, domainerrors.ErrInvalidRating
		}

		return nil, domainerrors.NewStorageError(err, "failed to upsert rating")
	}

	return toRatingDomain(ratingM), nil
}

// Find returns the user's rating of the beat.
func (repo *ratingRepository) Find(ctx context.Context, beatID, userID uuid.UUID) (*entity.Rating, error) {
	var ratingM model.RatingModel
	if err := repo.db.WithContext(ctx).
		Where("beat_id = ? AND user_id = ?", beatID, userID).
		First(&ratingM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRatingNotFound
		}

		return nil, domainerrors.NewStorageError(err, "failed to find rating")
	}

	return toRatingDomain(&ratingM), nil
}

// ListByBeat returns every rating of the beat, newest first.
func (repo *ratingRepository) ListByBeat(ctx context.Context, beatID uuid.UUID) ([]*entity.Rating, error) {
	var ratingModels []*model.RatingModel
	if err := repo.db.WithContext(ctx).
		Where("beat_id = ?", beatID).
		Order("created_at DESC").
		Find(&ratingModels).Error; err != nil {
		return nil, domainerrors.NewStorageError(err, "failed to list ratings")
	}

	ratings := make([]*entity.Rating, 0, len(ratingModels))
	for _, ratingM := range ratingModels {
		ratings = append(ratings, toRatingDomain(ratingM))
	}

	return ratings, nil
}

// Stats aggregates the beat's ratings in the database.
func (repo *ratingRepository) Stats(ctx context.Context, beatID uuid.UUID) (sum, count int64, err error) {
	var agg struct {
		Sum   int64
		Count int64
	}
	if err := repo.db.WithContext(ctx).
		Model(&model.RatingModel{}).
		Select("COALESCE(SUM(value), 0) AS sum, COUNT(*) AS count").
		Where("beat_id = ?", beatID).
		Scan(&agg).Error; err != nil {
		return 0, 0, domainerrors.NewStorageError(err, "failed to aggregate ratings")
	}

	return agg.Sum, agg.Count, nil
}

// StatsForBeatsCreatedBetween groups ratings per beat with a LEFT JOIN so unrated beats are kept.
func (repo *ratingRepository) StatsForBeatsCreatedBetween(ctx context.Context, since, until time.Time) ([]entity.BeatRatingStats, error) {
	var rows []*beatRow
	if err := repo.db.WithContext(ctx).
		Table("beats").
		Select(beatColumns+", COALESCE(SUM(ratings.value), 0) AS rating_sum, COUNT(ratings.id) AS rating_count").
		Joins("LEFT JOIN ratings ON ratings.beat_id = beats.id").
		Where("beats.created_at BETWEEN ? AND ?", since, until).
		Group("beats.id").
		Order("beats.created_at DESC").
		Order("beats.id ASC").
		Scan(&rows).Error; err != nil {
		return nil, domainerrors.NewStorageError(err, "failed to aggregate beat ratings")
	}

	stats := make([]entity.BeatRatingStats, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, entity.BeatRatingStats{
			Beat:  row.beat(),
			Sum:   row.RatingSum,
			Count: row.RatingCount,
		})
	}

	return stats, nil
}

// ListRatedByUser pages the beats the user rated together with the score given.
func (repo *ratingRepository) ListRatedByUser(ctx context.Context, userID uuid.UUID, search string, score int, page entity.Page) ([]*entity.RatedBeat, int64, error) {
	filtered := func() *gorm.DB {
		query := repo.db.WithContext(ctx).
			Table("ratings").
			Joins("JOIN beats ON beats.id = ratings.beat_id").
			Where("ratings.user_id = ?", userID)
		if score != 0 {
			query = query.Where("ratings.value = ?", score)
		}
		if search != "" {
			query = query.Where("beats.title ILIKE ?", likePattern(search))
		}

		return query
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, domainerrors.NewStorageError(err, "failed to count rated beats")
	}

	var rows []*beatRow
	if err := filtered().
		Select(beatColumns + ", ratings.value AS user_score").
		Order("ratings.updated_at DESC").
		Order("beats.id ASC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Scan(&rows).Error; err != nil {
		return nil, 0, domainerrors.NewStorageError(err, "failed to list rated beats")
	}

	rated := make([]*entity.RatedBeat, 0, len(rows))
	for _, row := range rows {
		rated = append(rated, &entity.RatedBeat{Beat: row.beat(), UserScore: row.UserScore})
	}

	return rated, total, nil
}

// DeleteByBeat removes every rating of the beat.
func (repo *ratingRepository) DeleteByBeat(ctx context.Context, beatID uuid.UUID) error {
	if err := repo.db.WithContext(ctx).
		Where("beat_id = ?", beatID).
		Delete(&model.RatingModel{}).Error; err != nil {
		return domainerrors.NewStorageError(err, "failed to delete ratings")
	}

	return nil
}

// --- Mapper Functions ---

func toRatingDomain(data *model.RatingModel) *entity.Rating {
	if data == nil {
		return nil
	}

	return &entity.Rating{
		ID:        data.ID,
		BeatID:    data.BeatID,
		UserID:    data.UserID,
		Value:     int(data.Value),
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
}

func fromRatingDomain(data *entity.Rating) *model.RatingModel {
	if data == nil {
		return nil
	}

	return &model.RatingModel{
		ID:        data.ID,
		BeatID:    data.BeatID,
		UserID:    data.UserID,
		Value:     int16(data.Value),
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
}
