package postgres

import (
	"context"
	"strings"

	"beatmarket/internal/domain/entity"
	domainerrors "beatmarket/internal/domain/errors"
	"beatmarket/internal/domain/repository"
	"beatmarket/internal/errors"
	"beatmarket/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// beatRepository implements the repository.BeatRepository interface.
type beatRepository struct {
	db *gorm.DB
}

// NewBeatRepository is the constructor for beatRepository.
func NewBeatRepository(db *gorm.DB) repository.BeatRepository {
	return &beatRepository{db: db}
}

// FindByID retrieves a beat by its unique ID.
func (repo *beatRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Beat, error) {
	return repo.findByID(ctx, id, "")
}

// FindByIDForUpdate retrieves a beat with SELECT ... FOR UPDATE.
func (repo *beatRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Beat, error) {
	return repo.findByID(ctx, id, clause.LockingStrengthUpdate)
}

// FindByIDForShare retrieves a beat with SELECT ... FOR SHARE.
func (repo *beatRepository) FindByIDForShare(ctx context.Context, id uuid.UUID) (*entity.Beat, error) {
	return repo.findByID(ctx, id, clause.LockingStrengthShare)
}

func (repo *beatRepository) findByID(ctx context.Context, id uuid.UUID, lockStrength string) (*entity.Beat, error) {
	var beatM model.BeatModel
	if err := beatByID(repo.db.WithContext(ctx), id, lockStrength).First(&beatM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrBeatNotFound
		}

		return nil, domainerrors.NewStorageError(err, "failed to find beat by id")
	}

	return toBeatDomain(&beatM), nil
}

// beatByID scopes the query to one beat; a non-empty lockStrength adds a row locking clause.
func beatByID(db *gorm.DB, id uuid.UUID, lockStrength string) *gorm.DB {
	query := db.Where("id = ?", id)
	if lockStrength != "" {
		query = query.Clauses(clause.Locking{Strength: lockStrength})
	}

	return query
}

// List pages beats matching the filter, newest first.
func (repo *beatRepository) List(ctx context.Context, filter entity.BeatFilter, page entity.Page) ([]*entity.Beat, int64, error) {
	filtered := func() *gorm.DB {
		return applyBeatFilter(repo.db.WithContext(ctx).Model(&model.BeatModel{}), filter)
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, domainerrors.NewStorageError(err, "failed to count beats")
	}

	var beatModels []*model.BeatModel
	if err := filtered().
		Order("created_at DESC").
		Order("id ASC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&beatModels).Error; err != nil {
		return nil, 0, domainerrors.NewStorageError(err, "failed to list beats")
	}

	beats := make([]*entity.Beat, 0, len(beatModels))
	for _, beatM := range beatModels {
		beats = append(beats, toBeatDomain(beatM))
	}

	return beats, total, nil
}

func applyBeatFilter(query *gorm.DB, filter entity.BeatFilter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("title ILIKE ?", likePattern(filter.Search))
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	if len(filter.Tags) > 0 {
		query = query.Where("tags && ?", pq.StringArray(filter.Tags))
	}
	if filter.OwnerUserID != nil {
		query = query.Where("owner_user_id = ?", *filter.OwnerUserID)
	}

	return query
}

// likePattern builds a substring pattern with LIKE metacharacters escaped.
func likePattern(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

	return "%" + replacer.Replace(s) + "%"
}

// Create persists a new beat.
func (repo *beatRepository) Create(ctx context.Context, beat *entity.Beat) error {
	beatM := fromBeatDomain(beat)

	if err := repo.db.WithContext(ctx).Create(beatM).Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return repository.ErrUserNotFound
		}

		return domainerrors.NewStorageError(err, "failed to create beat")
	}

	return nil
}

// Update writes every editable column of the beat.
func (repo *beatRepository) Update(ctx context.Context, beat *entity.Beat) error {
	result := repo.db.WithContext(ctx).
		Model(&model.BeatModel{}).
		Where("id = ?", beat.ID).
		Updates(map[string]any{
			"title":               beat.Title,
			"author_display_name": beat.AuthorDisplayName,
			"price":               beat.Price,
			"description":         beat.Description,
			"tags":                pq.StringArray(beat.Tags),
			"image_ref":           beat.ImageRef,
			"audio_ref":           beat.AudioRef,
			"updated_at":          beat.UpdatedAt,
		})
	if result.Error != nil {
		return domainerrors.NewStorageError(result.Error, "failed to update beat")
	}
	if result.RowsAffected == 0 {
		return repository.ErrBeatNotFound
	}

	return nil
}

// Delete removes the beat row.
func (repo *beatRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).Where("id = ?", id).Delete(&model.BeatModel{})
	if result.Error != nil {
		return domainerrors.NewStorageError(result.Error, "failed to delete beat")
	}
	if result.RowsAffected == 0 {
		return repository.ErrBeatNotFound
	}

	return nil
}

// --- Mapper Functions ---

func toBeatDomain(data *model.BeatModel) *entity.Beat {
	if data == nil {
		return nil
	}

	tags := []string(data.Tags)
	if tags == nil {
		tags = []string{}
	}

	return &entity.Beat{
		ID:                data.ID,
		Title:             data.Title,
		AuthorDisplayName: data.AuthorDisplayName,
		Price:             data.Price,
		Description:       data.Description,
		Tags:              tags,
		ImageRef:          data.ImageRef,
		AudioRef:          data.AudioRef,
		OwnerUserID:       data.OwnerUserID,
		CreatedAt:         data.CreatedAt,
		UpdatedAt:         data.UpdatedAt,
	}
}

func fromBeatDomain(data *entity.Beat) *model.BeatModel {
	if data == nil {
		return nil
	}

	tags := data.Tags
	if tags == nil {
		tags = []string{}
	}

	return &model.BeatModel{
		ID:                data.ID,
		Title:             data.Title,
		AuthorDisplayName: data.AuthorDisplayName,
		Price:             data.Price,
		Description:       data.Description,
		Tags:              pq.StringArray(tags),
		ImageRef:          data.ImageRef,
		AudioRef:          data.AudioRef,
		OwnerUserID:       data.OwnerUserID,
		CreatedAt:         data.CreatedAt,
		UpdatedAt:         data.UpdatedAt,
	}
}
