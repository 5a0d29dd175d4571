package postgres

import (
	"context"

	"beatmarket/internal/domain/entity"
	domainerrors "beatmarket/internal/domain/errors"
	"beatmarket/internal/domain/repository"
	"beatmarket/internal/infra/persistence/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ledgerRepository implements the repository.LedgerRepository interface on the transactions table.
type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository is the constructor for ledgerRepository.
func NewLedgerRepository(db *gorm.DB) repository.LedgerRepository {
	return &ledgerRepository{db: db}
}

// Create appends a ledger entry. The (beat_id, buyer_user_id) unique index rejects a second purchase.
func (repo *ledgerRepository) Create(ctx context.Context, tx *entity.Transaction) error {
	txM := fromTransactionDomain(tx)

	if err := repo.db.WithContext(ctx).Create(txM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrDuplicatePurchase
		}

		return domainerrors.NewStorageError(err, "failed to insert ledger entry")
	}

	return nil
}

// Exists reports whether the buyer already owns the beat.
func (repo *ledgerRepository) Exists(ctx context.Context, beatID, buyerID uuid.UUID) (bool, error) {
	var count int64
	if err := repo.db.WithContext(ctx).
		Model(&model.TransactionModel{}).
		Where("beat_id = ? AND buyer_user_id = ?", beatID, buyerID).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, domainerrors.NewStorageError(err, "failed to look up purchase")
	}

	return count > 0, nil
}

// CountForBeat counts completed purchases of the beat.
func (repo *ledgerRepository) CountForBeat(ctx context.Context, beatID uuid.UUID) (int64, error) {
	var count int64
	if err := repo.db.WithContext(ctx).
		Model(&model.TransactionModel{}).
		Where("beat_id = ?", beatID).
		Count(&count).Error; err != nil {
		return 0, domainerrors.NewStorageError(err, "failed to count purchases")
	}

	return count, nil
}

// ListForUser pages purchases (user is buyer) or sales (user is seller), newest first,
// with the beat title and the other party's username joined in.
func (repo *ledgerRepository) ListForUser(ctx context.Context, userID uuid.UUID, kind entity.TransactionKind, page entity.Page) ([]*entity.TransactionView, int64, error) {
	ownColumn, counterpartyColumn := "transactions.buyer_user_id", "transactions.seller_user_id"
	if kind == entity.TransactionKindSales {
		ownColumn, counterpartyColumn = counterpartyColumn, ownColumn
	}

	var total int64
	if err := repo.db.WithContext(ctx).
		Model(&model.TransactionModel{}).
		Where(ownColumn+" = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, domainerrors.NewStorageError(err, "failed to count transactions")
	}

	var rows []struct {
		model.TransactionModel
		BeatTitle            string
		CounterpartyUsername string
	}
	if err := repo.db.WithContext(ctx).
		Table("transactions").
		Select("transactions.*, COALESCE(beats.title, '') AS beat_title, COALESCE(users.username, '') AS counterparty_username").
		Joins("LEFT JOIN beats ON beats.id = transactions.beat_id").
		Joins("LEFT JOIN users ON users.id = "+counterpartyColumn).
		Where(ownColumn+" = ?", userID).
		Order("transactions.created_at DESC").
		Order("transactions.id ASC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Scan(&rows).Error; err != nil {
		return nil, 0, domainerrors.NewStorageError(err, "failed to list transactions")
	}

	views := make([]*entity.TransactionView, 0, len(rows))
	for _, row := range rows {
		views = append(views, &entity.TransactionView{
			Transaction:          *toTransactionDomain(&row.TransactionModel),
			BeatTitle:            row.BeatTitle,
			CounterpartyUsername: row.CounterpartyUsername,
		})
	}

	return views, total, nil
}

// --- Mapper Functions ---

func toTransactionDomain(data *model.TransactionModel) *entity.Transaction {
	if data == nil {
		return nil
	}

	return &entity.Transaction{
		ID:           data.ID,
		BeatID:       data.BeatID,
		BuyerUserID:  data.BuyerUserID,
		SellerUserID: data.SellerUserID,
		Amount:       data.Amount,
		Commission:   data.Commission,
		CreatedAt:    data.CreatedAt,
	}
}

func fromTransactionDomain(data *entity.Transaction) *model.TransactionModel {
	if data == nil {
		return nil
	}

	return &model.TransactionModel{
		ID:           data.ID,
		BeatID:       data.BeatID,
		BuyerUserID:  data.BuyerUserID,
		SellerUserID: data.SellerUserID,
		Amount:       data.Amount,
		Commission:   data.Commission,
		CreatedAt:    data.CreatedAt,
	}
}
