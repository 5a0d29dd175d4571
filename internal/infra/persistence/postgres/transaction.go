// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"log/slog"
	"time"

	"beatmarket/config"
	deliverycontext "beatmarket/internal/delivery/context"
	domainerrors "beatmarket/internal/domain/errors"
	"beatmarket/internal/domain/repository"
	"beatmarket/internal/errors"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

const maxRetryInterval = 500 * time.Millisecond

// gormTransactionManager implements the domain's TransactionManager interface using GORM.
type gormTransactionManager struct {
	db              *gorm.DB
	maxRetries      uint64
	initialInterval time.Duration
	logger          *slog.Logger
}

// gormRepositoryFactory implements the domain's RepositoryFactory interface.
// It holds a specific GORM transaction object and uses it to create
// repository instances that are bound to that single transaction.
type gormRepositoryFactory struct {
	tx *gorm.DB
}

func (f *gormRepositoryFactory) UserRepo() repository.UserRepository {
	return NewUserRepository(f.tx)
}

func (f *gormRepositoryFactory) BeatRepo() repository.BeatRepository {
	return NewBeatRepository(f.tx)
}

func (f *gormRepositoryFactory) RatingRepo() repository.RatingRepository {
	return NewRatingRepository(f.tx)
}

func (f *gormRepositoryFactory) LedgerRepo() repository.LedgerRepository {
	return NewLedgerRepository(f.tx)
}

func (f *gormRepositoryFactory) CommentRepo() repository.CommentRepository {
	return NewCommentRepository(f.tx)
}

// TransactionManagerParams holds dependencies for the transaction manager, injected by Fx.
type TransactionManagerParams struct {
	fx.In

	DB     *gorm.DB
	Config *config.Config
	Logger *slog.Logger
}

// NewTransactionManager is the constructor for gormTransactionManager.
func NewTransactionManager(params TransactionManagerParams) repository.TransactionManager {
	return &gormTransactionManager{
		db:              params.DB,
		maxRetries:      params.Config.Store.MaxRetries,
		initialInterval: params.Config.Store.InitialInterval,
		logger:          params.Logger,
	}
}

// Execute runs fn within a single database transaction. Serialization failures and deadlocks
// replay the whole transaction with exponential backoff; any other error is returned as is.
func (tm *gormTransactionManager) Execute(ctx context.Context, fn func(repoFactory repository.RepositoryFactory) error) error {
	attempt := 0
	operation := func() error {
		attempt++
		err := tm.executeOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return backoff.Permanent(err)
		}

		deliverycontext.GetLoggerOrDefault(ctx, tm.logger).Warn("Retrying transaction",
			slog.Int("attempt", attempt),
			slog.Any("error", err),
		)

		return err
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(tm.newBackOff(), tm.maxRetries), ctx))
	if err != nil && isRetryable(err) {
		return domainerrors.NewStorageError(err, "transaction retries exhausted")
	}

	return err
}

func (tm *gormTransactionManager) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = tm.initialInterval
	b.MaxInterval = maxRetryInterval
	b.MaxElapsedTime = 0
	b.Reset()

	return b
}

func (tm *gormTransactionManager) executeOnce(ctx context.Context, fn func(repoFactory repository.RepositoryFactory) error) error {
	tx := tm.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return domainerrors.NewStorageError(tx.Error, "failed to begin transaction")
	}

	// Roll back on panic, then re-panic so the recover middleware can report it.
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(&gormRepositoryFactory{tx: tx}); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			return errors.Wrapf(err, "transaction rollback failed: %v", rbErr)
		}

		return err
	}

	if err := tx.Commit().Error; err != nil {
		return domainerrors.NewStorageError(err, "failed to commit transaction")
	}

	return nil
}
