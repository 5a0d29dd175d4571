package impl

import (
	"context"
	"testing"
	"time"

	deliverycontext "beatmarket/internal/delivery/context"
	"beatmarket/internal/domain/entity"
	domainerrors "beatmarket/internal/domain/errors"
	"beatmarket/internal/domain/service"
	"beatmarket/internal/errors"
	mockSvc "beatmarket/internal/mocks/service"
	"beatmarket/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRankingService_RankPopular_CacheHitSkipsAggregation(t *testing.T) {
	store := newMemStore()
	cache := mockSvc.NewMockPopularityCache(t)
	srv := newTestRankingService(store, nil, time.Now())
	srv.cache = cache

	ctx := context.Background()
	cached := []*entity.PopularBeat{{Beat: &entity.Beat{ID: uuid.New()}, AverageRating: 5, RatingsCount: 1}}

	cache.EXPECT().Get(ctx, entity.PeriodDay).Return(cached, true, nil)

	got, err := srv.RankPopular(ctx, entity.PeriodDay)
	require.NoError(t, err)
	assert.Equal(t, cached, got)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestRankingService_RankPopular_CacheErrorsAreNotFatal(t *testing.T) {
	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	owner := store.addUser("owner", "0")
	beat := store.addBeat(owner.ID, "1.00", now.Add(-time.Hour))
	rateN(store, beat.ID, 4)

	cache := mockSvc.NewMockPopularityCache(t)
	srv := newTestRankingService(store, nil, now)
	srv.cache = cache

	ctx := context.Background()
	cache.EXPECT().Get(ctx, entity.PeriodMonth).Return(nil, false, errors.New("redis down"))
	cache.EXPECT().Set(ctx, entity.PeriodMonth, mock.AnythingOfType("[]*entity.PopularBeat")).Return(errors.New("redis down"))

	got, err := srv.RankPopular(ctx, entity.PeriodMonth)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, beat.ID, got[0].Beat.ID)
}

func TestRatingService_SubmitRating_InvalidatesCache(t *testing.T) {
	store := newMemStore()
	owner := store.addUser("owner", "0")
	rater := store.addUser("rater", "0")
	beat := store.addBeat(owner.ID, "1.00", time.Now())
	repos := store.factory()

	cache := mockSvc.NewMockPopularityCache(t)
	srv := NewRatingService(RatingServiceParams{
		TxManager:  store,
		BeatRepo:   repos.BeatRepo(),
		RatingRepo: repos.RatingRepo(),
		Cache:      cache,
		Logger:     newDiscardLogger(),
	})

	ctx := context.Background()
	cache.EXPECT().Invalidate(ctx).Return(errors.New("redis down")).Once()

	rating, err := srv.SubmitRating(ctx, beat.ID, rater.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, rating.Value)

	// rejected input never reaches the cache
	_, err = srv.SubmitRating(ctx, beat.ID, rater.ID, 6)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidRating)
}

func TestPurchaseService_Purchase_EventCarriesRequestID(t *testing.T) {
	f := newPurchaseFixture(t, "20.00", "50.00")
	publisher := mockSvc.NewMockEventPublisher(t)
	f.srv.publisher = publisher

	ctx := deliverycontext.WithRequestID(context.Background(), "req-42")

	var published *service.PurchaseCompletedEvent
	publisher.EXPECT().
		PublishPurchaseCompleted(ctx, mock.AnythingOfType("*service.PurchaseCompletedEvent")).
		Run(func(_ context.Context, event *service.PurchaseCompletedEvent) { published = event }).
		Return(errors.New("broker unavailable"))

	result, err := f.srv.Purchase(ctx, &usecase.PurchaseInput{BeatID: f.beat.ID, BuyerID: f.buyer.ID})
	require.NoError(t, err)

	assertBalance(t, f.store, f.buyer.ID, "30.00")
	require.NotNil(t, published)
	assert.Equal(t, "req-42", published.RequestID)
	assert.Equal(t, result.Transaction.ID.String(), published.TransactionID)
	assert.Equal(t, "20.00", published.Amount)
	assert.Equal(t, "0.60", published.Commission)
}

func TestPurchaseService_Purchase_RejectedPurchaseIsNotPublished(t *testing.T) {
	f := newPurchaseFixture(t, "20.00", "5.00")
	publisher := mockSvc.NewMockEventPublisher(t)
	f.srv.publisher = publisher

	_, err := f.srv.Purchase(context.Background(), &usecase.PurchaseInput{BeatID: f.beat.ID, BuyerID: f.buyer.ID})
	assert.ErrorIs(t, err, domainerrors.ErrInsufficientFunds)
	publisher.AssertNotCalled(t, "PublishPurchaseCompleted", mock.Anything, mock.Anything)
}

func TestBeatService_ShareQR_Errors(t *testing.T) {
	f := newBeatFixture(t)
	qr := mockSvc.NewMockQRCodeService(t)
	f.srv.qrCode = qr

	ctx := context.Background()
	beat := f.store.addBeat(f.owner.ID, "5.00", time.Now())

	qr.EXPECT().GenerateBeatShareQR(beat.ID).Return(nil, errors.New("content too long"))
	_, err := f.srv.ShareQR(ctx, beat.ID)
	assert.ErrorContains(t, err, "failed to generate share QR code")

	qr.EXPECT().ParseBeatShareQR("https://elsewhere/beats/1").Return(uuid.Nil, errors.New("not a beat share link"))
	_, err = f.srv.ResolveShareLink(ctx, "https://elsewhere/beats/1", nil)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidShareLink)
}
