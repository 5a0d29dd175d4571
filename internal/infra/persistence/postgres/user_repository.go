package postgres

import (
	"bytes"
	"context"
	"slices"
	"time"

	"beatmarket/internal/domain/entity"
	domainerrors "beatmarket/internal/domain/errors"
	"beatmarket/internal/domain/repository"
	"beatmarket/internal/errors"
	"beatmarket/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// userRepository implements the repository.UserRepository interface using GORM.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository is the constructor for userRepository.
// It returns the repository as a repository.UserRepository interface, adhering to dependency inversion.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// FindByID retrieves a single user by their unique ID.
func (repo *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var userM model.UserModel
	if err := repo.db.WithContext(ctx).Where("id = ?", id).First(&userM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, domainerrors.NewStorageError(err, "failed to find user by id")
	}

	return toUserDomain(&userM), nil
}

// FindByUsername retrieves a single user by their username.
func (repo *userRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	var userM model.UserModel
	if err := repo.db.WithContext(ctx).Where("username = ?", username).First(&userM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, domainerrors.NewStorageError(err, "failed to find user by username")
	}

	return toUserDomain(&userM), nil
}

// LockByIDs takes SELECT ... FOR UPDATE locks on the given users in ascending id order,
// so two transactions locking overlapping sets never wait on each other in a cycle.
func (repo *userRepository) LockByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.User, error) {
	sorted := slices.Clone(ids)
	slices.SortFunc(sorted, compareUUID)
	sorted = slices.Compact(sorted)

	var userModels []*model.UserModel
	if err := repo.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("id IN ?", sorted).
		Order("id ASC").
		Find(&userModels).Error; err != nil {
		return nil, domainerrors.NewStorageError(err, "failed to lock users")
	}

	users := make(map[uuid.UUID]*entity.User, len(userModels))
	for _, userM := range userModels {
		users[userM.ID] = toUserDomain(userM)
	}

	return users, nil
}

// Create persists a new user entity to the database.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	userM := fromUserDomain(user)

	if err := repo.db.WithContext(ctx).Create(userM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrUsernameTaken
		}

		return domainerrors.NewStorageError(err, "failed to create user")
	}

	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt

	return nil
}

// UpdateProfile writes the editable profile columns.
func (repo *userRepository) UpdateProfile(ctx context.Context, user *entity.User) error {
	now := time.Now().UTC()
	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"bio":        user.Bio,
			"photo_ref":  user.PhotoRef,
			"updated_at": now,
		})
	if result.Error != nil {
		return domainerrors.NewStorageError(result.Error, "failed to update user profile")
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}
	user.UpdatedAt = now

	return nil
}

// AdjustBalance applies delta in a single UPDATE ... RETURNING statement.
// The non-negative balance check constraint rejects overdrafts.
func (repo *userRepository) AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	var userM model.UserModel
	result := repo.db.WithContext(ctx).
		Model(&userM).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "balance"}}}).
		Where("id = ?", id).
		Updates(map[string]any{
			"balance":    gorm.Expr("balance + ?", delta),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		if isCheckConstraintViolation(result.Error) {
			return decimal.Zero, domainerrors.ErrInsufficientFunds
		}
		if isNumericOverflow(result.Error) {
			return decimal.Zero, domainerrors.ErrInvalidAmount.WithDetails("balance would exceed the maximum amount")
		}

		return decimal.Zero, domainerrors.NewStorageError(result.Error, "failed to adjust balance")
	}
	if result.RowsAffected == 0 {
		return decimal.Zero, repository.ErrUserNotFound
	}

	return userM.Balance, nil
}

// --- Mapper Functions ---

// toUserDomain converts a GORM UserModel to a domain User entity.
func toUserDomain(data *model.UserModel) *entity.User {
	if data == nil {
		return nil
	}

	return &entity.User{
		ID:           data.ID,
		Username:     data.Username,
		PasswordHash: data.PasswordHash,
		PhotoRef:     data.PhotoRef,
		Balance:      data.Balance,
		Bio:          data.Bio,
		Role:         entity.Role(data.Role),
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}

// fromUserDomain converts a domain User entity to a GORM UserModel for persistence.
func fromUserDomain(data *entity.User) *model.UserModel {
	if data == nil {
		return nil
	}

	role := data.Role
	if !role.IsValid() {
		role = entity.RoleUser
	}

	return &model.UserModel{
		ID:           data.ID,
		Username:     data.Username,
		PasswordHash: data.PasswordHash,
		PhotoRef:     data.PhotoRef,
		Balance:      data.Balance,
		Bio:          data.Bio,
		Role:         role.String(),
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}

// compareUUID orders ids byte-wise, which matches PostgreSQL's uuid ordering.
func compareUUID(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}
