package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"beatmarket/config"
	apimiddleware "beatmarket/internal/delivery/api/middleware"
	"beatmarket/internal/delivery/api/router"
	"beatmarket/internal/delivery/api/router/handler"
	"beatmarket/internal/domain/entity"
	domainerrors "beatmarket/internal/domain/errors"
	"beatmarket/internal/domain/service"
	"beatmarket/internal/infra/auth"
	"beatmarket/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- stub usecases ---

type stubAuth struct {
	registered *usecase.RegisterInput
}

func (s *stubAuth) Register(_ context.Context, input *usecase.RegisterInput) (*entity.User, error) {
	if input.Username == "taken" {
		return nil, domainerrors.ErrUserAlreadyExists
	}
	s.registered = input

	return &entity.User{ID: uuid.New(), Username: input.Username, Balance: decimal.Zero, Role: entity.RoleUser}, nil
}

func (s *stubAuth) Login(context.Context, *usecase.LoginInput) (*usecase.LoginOutput, error) {
	return nil, domainerrors.ErrInvalidCredentials
}

type stubBeats struct {
	beat   *entity.Beat
	filter entity.BeatFilter
	page   entity.Page
}

func (s *stubBeats) CreateBeat(_ context.Context, ownerID uuid.UUID, in *usecase.CreateBeatInput) (*entity.Beat, error) {
	if in.Price.IsNegative() {
		return nil, domainerrors.ErrInvalidPrice
	}

	return &entity.Beat{ID: uuid.New(), Title: in.Title, Price: in.Price, OwnerUserID: ownerID}, nil
}

func (s *stubBeats) GetBeat(_ context.Context, beatID uuid.UUID, viewerID *uuid.UUID) (*usecase.BeatDetails, error) {
	if s.beat == nil || beatID != s.beat.ID {
		return nil, domainerrors.ErrBeatNotFound
	}
	summary := &entity.RatingSummary{AverageRating: 4.5, RatingsCount: 2}
	if viewerID != nil {
		summary.UserRating = 4
	}

	return &usecase.BeatDetails{Beat: s.beat, Rating: summary}, nil
}

func (s *stubBeats) ListBeats(_ context.Context, filter entity.BeatFilter, page entity.Page) (*usecase.PageResult[*entity.Beat], error) {
	s.filter, s.page = filter, page

	return &usecase.PageResult[*entity.Beat]{Items: []*entity.Beat{s.beat}, Total: 41, Page: entity.Page{Page: 3, Limit: 20}}, nil
}

func (s *stubBeats) UpdateBeat(context.Context, entity.Principal, uuid.UUID, *usecase.UpdateBeatInput) (*entity.Beat, error) {
	return nil, domainerrors.ErrForbidden
}

func (s *stubBeats) DeleteBeat(context.Context, entity.Principal, uuid.UUID) error {
	return domainerrors.ErrBeatHasPurchases
}

func (s *stubBeats) ShareQR(context.Context, uuid.UUID) ([]byte, error) {
	return []byte("\x89PNG"), nil
}

func (s *stubBeats) ResolveShareLink(ctx context.Context, link string, viewerID *uuid.UUID) (*usecase.BeatDetails, error) {
	rest, ok := strings.CutPrefix(link, "beatmarket://beats/")
	if !ok {
		return nil, domainerrors.ErrInvalidShareLink
	}
	beatID, err := uuid.Parse(rest)
	if err != nil {
		return nil, domainerrors.ErrInvalidShareLink
	}

	return s.GetBeat(ctx, beatID, viewerID)
}

type stubRanking struct{ period entity.Period }

func (s *stubRanking) RankPopular(_ context.Context, period entity.Period) ([]*entity.PopularBeat, error) {
	s.period = period

	return []*entity.PopularBeat{}, nil
}

type stubPurchases struct{}

func (stubPurchases) Purchase(_ context.Context, in *usecase.PurchaseInput) (*usecase.PurchaseResult, error) {
	return &usecase.PurchaseResult{
		Transaction: &entity.Transaction{
			ID:          uuid.New(),
			BeatID:      in.BeatID,
			BuyerUserID: in.BuyerID,
			Amount:      decimal.RequireFromString("100"),
			Commission:  decimal.RequireFromString("3"),
		},
		BuyerNewBalance: decimal.RequireFromString("50"),
	}, nil
}

func (stubPurchases) TopUp(context.Context, uuid.UUID, decimal.Decimal) (decimal.Decimal, error) {
	return decimal.Zero, domainerrors.ErrInsufficientFunds
}

func (stubPurchases) ListTransactions(context.Context, uuid.UUID, entity.TransactionKind, entity.Page) (*usecase.PageResult[*entity.TransactionView], error) {
	return &usecase.PageResult[*entity.TransactionView]{}, nil
}

type stubProfiles struct{ usecase.ProfileUsecase }
type stubRatings struct{ usecase.RatingUsecase }

func (stubRatings) ListRatings(_ context.Context, beatID uuid.UUID) ([]*entity.Rating, error) {
	if beatID == uuid.Nil {
		return nil, domainerrors.ErrBeatNotFound
	}

	return []*entity.Rating{{ID: uuid.New(), BeatID: beatID, UserID: beatID, Value: 4}}, nil
}

type stubComments struct{ usecase.CommentUsecase }
type stubMedia struct{ usecase.MediaUsecase }

// --- harness ---

type harness struct {
	e      *echo.Echo
	tokens service.TokenService
	beats  *stubBeats
	rank   *stubRanking
	auth   *stubAuth
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := &config.Config{}
	cfg.HTTP.MaxRequestBodySize = "1MB"
	cfg.SecretKey.Access = "test-secret"
	cfg.RateLimit = &config.RateLimitConfig{PurchasesPerMinute: 60, Burst: 1}

	tokens, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	beat := &entity.Beat{ID: uuid.New(), Title: "Night Drive", Price: decimal.RequireFromString("19.9"), CreatedAt: time.Now()}
	h := &harness{tokens: tokens, beats: &stubBeats{beat: beat}, rank: &stubRanking{}, auth: &stubAuth{}}

	h.e = newEcho(ServerParams{
		Cfg:             cfg,
		Logger:          logger,
		ErrorMiddleware: apimiddleware.NewErrorMiddleware(logger),
		RouterParams: router.RouterParams{
			AuthHandler:         handler.NewAuthHandler(handler.AuthHandlerParams{AuthUC: h.auth, Logger: logger}),
			ProfileHandler:      handler.NewProfileHandler(handler.ProfileHandlerParams{ProfileUC: stubProfiles{}, PurchaseUC: stubPurchases{}, Logger: logger}),
			BeatHandler:         handler.NewBeatHandler(handler.BeatHandlerParams{BeatUC: h.beats, RankingUC: h.rank, Logger: logger}),
			RatingHandler:       handler.NewRatingHandler(handler.RatingHandlerParams{RatingUC: stubRatings{}, Logger: logger}),
			PurchaseHandler:     handler.NewPurchaseHandler(handler.PurchaseHandlerParams{PurchaseUC: stubPurchases{}, Logger: logger}),
			CommentHandler:      handler.NewCommentHandler(handler.CommentHandlerParams{CommentUC: stubComments{}, Logger: logger}),
			MediaHandler:        handler.NewMediaHandler(handler.MediaHandlerParams{MediaUC: stubMedia{}, Logger: logger}),
			AuthMiddleware:      apimiddleware.NewAuthMiddleware(tokens),
			RateLimitMiddleware: apimiddleware.NewRateLimitMiddleware(cfg),
		},
	})

	return h
}

func (h *harness) do(t *testing.T, method, target, body string, userID *uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if userID != nil {
		token, err := h.tokens.GenerateAccessToken(*userID, []string{"user"})
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)

	return rec
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
	Meta struct {
		RequestID  string `json:"request_id"`
		Pagination *struct {
			Page  int   `json:"page"`
			Limit int   `json:"limit"`
			Total int64 `json:"total"`
		} `json:"pagination"`
	} `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())

	return env
}

// --- tests ---

func TestAPI_HealthAndRequestID(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "req-123", decode(t, rec).Meta.RequestID)
}

func TestAPI_Register(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/auth/register", `{"username":"mira","password":"correct horse"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "mira", h.auth.registered.Username)

	var user struct {
		Username string      `json:"username"`
		Balance  json.Number `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &user))
	assert.Equal(t, "mira", user.Username)
	assert.Equal(t, json.Number("0.00"), user.Balance)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = h.do(t, http.MethodPost, "/auth/register", `{"username":"mi","password":"short"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	assert.Contains(t, env.Error.Details, "username must be at least 3")

	rec = h.do(t, http.MethodPost, "/auth/register", `{"username":"taken","password":"correct horse"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAPI_LoginFailure(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/auth/login", `{"username":"mira","password":"wrong"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decode(t, rec).Error.Code)
}

func TestAPI_RequiresToken(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/v1/beats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_ListBeats_QueryAndPagination(t *testing.T) {
	h := newHarness(t)
	userID := uuid.New()

	rec := h.do(t, http.MethodGet, "/api/v1/beats?search=night&minPrice=5&maxPrice=25.50&tags=lofi,chill&tags=jazz&page=3", "", &userID)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "night", h.beats.filter.Search)
	assert.Equal(t, "5", h.beats.filter.MinPrice.String())
	assert.Equal(t, "25.5", h.beats.filter.MaxPrice.String())
	assert.Equal(t, []string{"lofi", "chill", "jazz"}, h.beats.filter.Tags)
	assert.Equal(t, 3, h.beats.page.Page)

	env := decode(t, rec)
	require.NotNil(t, env.Meta.Pagination)
	assert.Equal(t, int64(41), env.Meta.Pagination.Total)
	assert.Contains(t, string(env.Data), `"price":19.90`)

	rec = h.do(t, http.MethodGet, "/api/v1/beats?minPrice=cheap", "", &userID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_ListMyBeats_ScopesToCaller(t *testing.T) {
	h := newHarness(t)
	userID := uuid.New()

	rec := h.do(t, http.MethodGet, "/api/v1/beats/mine", "", &userID)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, h.beats.filter.OwnerUserID)
	assert.Equal(t, userID, *h.beats.filter.OwnerUserID)
}

func TestAPI_GetBeat(t *testing.T) {
	h := newHarness(t)
	userID := uuid.New()

	rec := h.do(t, http.MethodGet, "/api/v1/beats/"+h.beats.beat.ID.String(), "", &userID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_rating":4`)

	rec = h.do(t, http.MethodGet, "/api/v1/beats/"+uuid.NewString(), "", &userID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "BEAT_NOT_FOUND", decode(t, rec).Error.Code)

	rec = h.do(t, http.MethodGet, "/api/v1/beats/not-a-uuid", "", &userID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_PopularDefaultsToMonth(t *testing.T) {
	h := newHarness(t)
	userID := uuid.New()

	rec := h.do(t, http.MethodGet, "/api/v1/beats/popular", "", &userID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entity.PeriodMonth, h.rank.period)

	h.do(t, http.MethodGet, "/api/v1/beats/popular?period=day", "", &userID)
	assert.Equal(t, entity.PeriodDay, h.rank.period)
}

func TestAPI_DomainErrorsMapToStatus(t *testing.T) {
	h := newHarness(t)
	userID := uuid.New()
	beatPath := "/api/v1/beats/" + h.beats.beat.ID.String()

	rec := h.do(t, http.MethodPut, beatPath, `{"title":"x"}`, &userID)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(t, http.MethodDelete, beatPath, "", &userID)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "BEAT_HAS_PURCHASES", decode(t, rec).Error.Code)

	rec = h.do(t, http.MethodPut, "/api/v1/profile/balance", `{"amount":"10"}`, &userID)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestAPI_PurchaseAndRateLimit(t *testing.T) {
	h := newHarness(t)
	userID := uuid.New()
	path := "/api/v1/beats/" + h.beats.beat.ID.String() + "/purchase"

	rec := h.do(t, http.MethodPost, path, "", &userID)
	require.Equal(t, http.StatusCreated, rec.Code)

	var res struct {
		Transaction struct {
			Amount       json.Number `json:"amount"`
			Commission   json.Number `json:"commission"`
			SellerAmount json.Number `json:"seller_amount"`
		} `json:"transaction"`
		BuyerNewBalance json.Number `json:"buyer_new_balance"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &res))
	assert.Equal(t, json.Number("100.00"), res.Transaction.Amount)
	assert.Equal(t, json.Number("3.00"), res.Transaction.Commission)
	assert.Equal(t, json.Number("97.00"), res.Transaction.SellerAmount)
	assert.Equal(t, json.Number("50.00"), res.BuyerNewBalance)

	// burst of one
	rec = h.do(t, http.MethodPost, path, "", &userID)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestAPI_ShareQR(t *testing.T) {
	h := newHarness(t)
	userID := uuid.New()

	rec := h.do(t, http.MethodGet, "/api/v1/beats/"+h.beats.beat.ID.String()+"/qr", "", &userID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "\x89PNG", rec.Body.String())
}

func TestAPI_ResolveShare(t *testing.T) {
	h := newHarness(t)
	userID := uuid.New()

	link := url.QueryEscape("beatmarket://beats/" + h.beats.beat.ID.String())
	rec := h.do(t, http.MethodGet, "/api/v1/share?link="+link, "", &userID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), h.beats.beat.ID.String())

	rec = h.do(t, http.MethodGet, "/api/v1/share?link="+url.QueryEscape("https://example.com"), "", &userID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_SHARE_LINK", decode(t, rec).Error.Code)

	rec = h.do(t, http.MethodGet, "/api/v1/share", "", &userID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MISSING_LINK", decode(t, rec).Error.Code)
}

func TestAPI_ListRatings(t *testing.T) {
	h := newHarness(t)
	userID := uuid.New()
	beatID := h.beats.beat.ID

	rec := h.do(t, http.MethodGet, "/api/v1/beats/"+beatID.String()+"/ratings", "", &userID)
	require.Equal(t, http.StatusOK, rec.Code)

	var ratings []handler.BeatRatingResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &ratings))
	require.Len(t, ratings, 1)
	assert.Equal(t, beatID, ratings[0].UserID)
	assert.Equal(t, 4, ratings[0].Value)

	rec = h.do(t, http.MethodGet, "/api/v1/beats/"+uuid.Nil.String()+"/ratings", "", &userID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "BEAT_NOT_FOUND", decode(t, rec).Error.Code)
}
