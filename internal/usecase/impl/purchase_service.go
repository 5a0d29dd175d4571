// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"beatmarket/config"
	deliverycontext "beatmarket/internal/delivery/context"
	"beatmarket/internal/domain/entity"
	domainerrors "beatmarket/internal/domain/errors"
	"beatmarket/internal/domain/repository"
	"beatmarket/internal/domain/service"
	"beatmarket/internal/errors"
	"beatmarket/internal/usecase"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

const (
	defaultTransactionsPageSize = 5
	maxPageSize                 = 50
)

// purchaseService implements the PurchaseUsecase interface.
type purchaseService struct {
	txManager        repository.TransactionManager
	ledgerRepo       repository.LedgerRepository
	publisher        service.EventPublisher
	platformUsername string
	commissionRate   decimal.Decimal
	now              func() time.Time
	logger           *slog.Logger
}

// PurchaseServiceParams holds dependencies for PurchaseService, injected by Fx.
type PurchaseServiceParams struct {
	fx.In

	TxManager  repository.TransactionManager
	LedgerRepo repository.LedgerRepository
	Publisher  service.EventPublisher `optional:"true"`
	Config     *config.Config
	Logger     *slog.Logger
}

// NewPurchaseService is the constructor for purchaseService.
func NewPurchaseService(params PurchaseServiceParams) usecase.PurchaseUsecase {
	return &purchaseService{
		txManager:        params.TxManager,
		ledgerRepo:       params.LedgerRepo,
		publisher:        params.Publisher,
		platformUsername: params.Config.Marketplace.PlatformUsername,
		commissionRate:   params.Config.Marketplace.CommissionRate,
		now:              time.Now,
		logger:           params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *purchaseService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Purchase validates and applies a purchase as one atomic unit: three balance updates and one ledger row.
func (srv *purchaseService) Purchase(ctx context.Context, input *usecase.PurchaseInput) (*usecase.PurchaseResult, error) {
	var result *usecase.PurchaseResult
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		res, err := srv.purchaseInTx(ctx, repoFactory, input)
		if err != nil {
			return err
		}
		result = res

		return nil
	})
	if err != nil {
		if domainerrors.IsKind(err, domainerrors.KindStorage) || domainerrors.IsKind(err, domainerrors.KindInternal) {
			srv.log(ctx).Error("Purchase failed", slog.Any("beatID", input.BeatID), slog.Any("buyerID", input.BuyerID), slog.Any("error", err))
		} else {
			srv.log(ctx).Info("Purchase rejected", slog.Any("beatID", input.BeatID), slog.Any("buyerID", input.BuyerID), slog.String("reason", err.Error()))
		}

		return nil, err
	}

	srv.log(ctx).Info("Purchase completed",
		slog.Any("transactionID", result.Transaction.ID),
		slog.Any("beatID", input.BeatID),
		slog.Any("buyerID", input.BuyerID),
		slog.String("amount", result.Transaction.Amount.StringFixed(entity.CentPlaces)),
	)

	srv.publishCompleted(ctx, result.Transaction)

	return result, nil
}

func (srv *purchaseService) purchaseInTx(ctx context.Context, repoFactory repository.RepositoryFactory, input *usecase.PurchaseInput) (*usecase.PurchaseResult, error) {
	beatRepo := repoFactory.BeatRepo()
	userRepo := repoFactory.UserRepo()
	ledgerRepo := repoFactory.LedgerRepo()

	// Held until commit so the beat cannot be deleted or repriced mid-purchase.
	beat, err := beatRepo.FindByIDForShare(ctx, input.BeatID)
	if err != nil {
		return nil, mapBeatErr(err)
	}

	purchased, err := ledgerRepo.Exists(ctx, beat.ID, input.BuyerID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check existing purchase")
	}
	if purchased {
		return nil, domainerrors.ErrAlreadyPurchased
	}

	if beat.OwnerUserID == input.BuyerID {
		return nil, domainerrors.ErrSelfPurchase
	}

	platformID := uuid.Nil
	platform, err := userRepo.FindByUsername(ctx, srv.platformUsername)
	switch {
	case err == nil:
		platformID = platform.ID
	case !errors.Is(err, repository.ErrUserNotFound):
		return nil, errors.Wrap(err, "failed to load platform account")
	}

	ids := []uuid.UUID{input.BuyerID, beat.OwnerUserID}
	if platformID != uuid.Nil {
		ids = append(ids, platformID)
	}
	accounts, err := userRepo.LockByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "failed to lock purchase participants")
	}

	buyer, ok := accounts[input.BuyerID]
	if !ok {
		return nil, domainerrors.ErrUserNotFound.WithDetails("buyer")
	}
	if _, ok := accounts[platformID]; !ok {
		return nil, domainerrors.ErrPlatformAccountNotFound
	}
	if _, ok := accounts[beat.OwnerUserID]; !ok {
		return nil, domainerrors.ErrUserNotFound.WithDetails("seller")
	}

	if buyer.Balance.LessThan(beat.Price) {
		return nil, domainerrors.ErrInsufficientFunds.WithDetails(
			"balance " + buyer.Balance.StringFixed(entity.CentPlaces) + " is below price " + beat.Price.StringFixed(entity.CentPlaces))
	}

	commission, sellerAmount := entity.SplitPayment(beat.Price, srv.commissionRate)

	// Roles may share an account, so deltas are accumulated per account before they are applied.
	deltas := map[uuid.UUID]decimal.Decimal{}
	deltas[buyer.ID] = deltas[buyer.ID].Sub(beat.Price)
	deltas[beat.OwnerUserID] = deltas[beat.OwnerUserID].Add(sellerAmount)
	deltas[platformID] = deltas[platformID].Add(commission)

	participants := make([]uuid.UUID, 0, len(deltas))
	for id := range deltas {
		participants = append(participants, id)
	}
	slices.SortFunc(participants, compareUUID)

	var buyerBalance decimal.Decimal
	for _, id := range participants {
		balance, err := userRepo.AdjustBalance(ctx, id, deltas[id])
		if err != nil {
			return nil, errors.Wrap(err, "failed to adjust balance")
		}
		if id == buyer.ID {
			buyerBalance = balance
		}
	}

	txn := &entity.Transaction{
		ID:           uuid.New(),
		BeatID:       beat.ID,
		BuyerUserID:  buyer.ID,
		SellerUserID: beat.OwnerUserID,
		Amount:       beat.Price,
		Commission:   commission,
		CreatedAt:    srv.now().UTC(),
	}
	if err := ledgerRepo.Create(ctx, txn); err != nil {
		if errors.Is(err, repository.ErrDuplicatePurchase) {
			return nil, domainerrors.ErrAlreadyPurchased
		}

		return nil, errors.Wrap(err, "failed to record transaction")
	}

	return &usecase.PurchaseResult{
		Transaction:     txn,
		BuyerNewBalance: buyerBalance,
	}, nil
}

func (srv *purchaseService) publishCompleted(ctx context.Context, txn *entity.Transaction) {
	if srv.publisher == nil {
		return
	}

	event := &service.PurchaseCompletedEvent{
		RequestID:     deliverycontext.GetRequestIDFromContext(ctx),
		TransactionID: txn.ID.String(),
		BeatID:        txn.BeatID.String(),
		BuyerID:       txn.BuyerUserID.String(),
		SellerID:      txn.SellerUserID.String(),
		Amount:        txn.Amount.StringFixed(entity.CentPlaces),
		Commission:    txn.Commission.StringFixed(entity.CentPlaces),
		CompletedAt:   txn.CreatedAt,
	}
	if err := srv.publisher.PublishPurchaseCompleted(ctx, event); err != nil {
		srv.log(ctx).Warn("Failed to publish purchase event", slog.Any("transactionID", txn.ID), slog.Any("error", err))
	}
}

// TopUp credits amount to the user's balance.
func (srv *purchaseService) TopUp(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() || !entity.IsStorableAmount(amount) {
		return decimal.Zero, domainerrors.ErrInvalidAmount
	}

	var balance decimal.Decimal
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		newBalance, err := repoFactory.UserRepo().AdjustBalance(ctx, userID, amount)
		if err != nil {
			return mapUserErr(err)
		}
		balance = newBalance

		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	srv.log(ctx).Info("Balance topped up", slog.Any("userID", userID), slog.String("amount", amount.StringFixed(entity.CentPlaces)))

	return balance, nil
}

// ListTransactions pages the user's purchases or sales, newest first.
func (srv *purchaseService) ListTransactions(ctx context.Context, userID uuid.UUID, kind entity.TransactionKind, page entity.Page) (*usecase.PageResult[*entity.TransactionView], error) {
	if !kind.IsValid() {
		return nil, domainerrors.ErrValidationFailed.WithDetails("type must be purchases or sales")
	}

	page = page.Normalize(defaultTransactionsPageSize, maxPageSize)
	items, total, err := srv.ledgerRepo.ListForUser(ctx, userID, kind, page)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list transactions")
	}

	return &usecase.PageResult[*entity.TransactionView]{Items: items, Total: total, Page: page}, nil
}
