package handler

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"beatmarket/internal/delivery/api/response"
	"beatmarket/internal/domain/entity"
	domainerrors "beatmarket/internal/domain/errors"
	"beatmarket/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// money renders an amount as an exact JSON number with cent precision.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

// --- Responses ---

// UserResponse is the caller's own account.
type UserResponse struct {
	ID        uuid.UUID   `json:"id"`
	Username  string      `json:"username"`
	PhotoRef  string      `json:"photo_ref,omitempty"`
	Balance   json.Number `json:"balance"`
	Bio       string      `json:"bio"`
	Role      string      `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

func toUserResponse(u *entity.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		PhotoRef:  u.PhotoRef,
		Balance:   money(u.Balance),
		Bio:       u.Bio,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt,
	}
}

// PublicUserResponse is what other users see of an account.
type PublicUserResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	PhotoRef string    `json:"photo_ref,omitempty"`
	Bio      string    `json:"bio"`
}

// PublicProfileResponse is a public profile with one page of the user's beats.
type PublicProfileResponse struct {
	User  *PublicUserResponse `json:"user"`
	Beats []*BeatResponse     `json:"beats"`
}

// BeatResponse is a beat listing.
type BeatResponse struct {
	ID                uuid.UUID   `json:"id"`
	Title             string      `json:"title"`
	AuthorDisplayName string      `json:"author_display_name"`
	Price             json.Number `json:"price"`
	Description       string      `json:"description"`
	Tags              []string    `json:"tags"`
	ImageRef          string      `json:"image_ref,omitempty"`
	AudioRef          string      `json:"audio_ref,omitempty"`
	OwnerUserID       uuid.UUID   `json:"owner_user_id"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

func toBeatResponse(b *entity.Beat) *BeatResponse {
	tags := b.Tags
	if tags == nil {
		tags = []string{}
	}

	return &BeatResponse{
		ID:                b.ID,
		Title:             b.Title,
		AuthorDisplayName: b.AuthorDisplayName,
		Price:             money(b.Price),
		Description:       b.Description,
		Tags:              tags,
		ImageRef:          b.ImageRef,
		AudioRef:          b.AudioRef,
		OwnerUserID:       b.OwnerUserID,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

func toBeatResponses(beats []*entity.Beat) []*BeatResponse {
	out := make([]*BeatResponse, 0, len(beats))
	for _, b := range beats {
		out = append(out, toBeatResponse(b))
	}

	return out
}

// RatingSummaryResponse is a beat's rating aggregate from the caller's perspective.
type RatingSummaryResponse struct {
	UserRating    int     `json:"user_rating"`
	AverageRating float64 `json:"average_rating"`
	RatingsCount  int64   `json:"ratings_count"`
}

func toBeatDetailsResponse(details *usecase.BeatDetails) BeatDetailsResponse {
	return BeatDetailsResponse{
		BeatResponse: toBeatResponse(details.Beat),
		Rating:       toRatingSummaryResponse(details.Rating),
	}
}

func toRatingSummaryResponse(s *entity.RatingSummary) *RatingSummaryResponse {
	return &RatingSummaryResponse{
		UserRating:    s.UserRating,
		AverageRating: s.AverageRating,
		RatingsCount:  s.RatingsCount,
	}
}

// BeatDetailsResponse is a single beat with its rating summary.
type BeatDetailsResponse struct {
	*BeatResponse
	Rating *RatingSummaryResponse `json:"rating"`
}

// PopularBeatResponse is one entry of a popularity ranking.
type PopularBeatResponse struct {
	*BeatResponse
	AverageRating float64 `json:"average_rating"`
	RatingsCount  int64   `json:"ratings_count"`
}

// RatedBeatResponse is a beat the caller has rated.
type RatedBeatResponse struct {
	*BeatResponse
	UserScore int `json:"user_score"`
}

// RatingResponse is the caller's stored rating.
type RatingResponse struct {
	BeatID    uuid.UUID `json:"beat_id"`
	Value     int       `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeatRatingResponse is one user's rating in a beat's rating list.
type BeatRatingResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Value     int       `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentResponse is a comment on a beat.
type CommentResponse struct {
	ID             uuid.UUID `json:"id"`
	BeatID         uuid.UUID `json:"beat_id"`
	UserID         uuid.UUID `json:"user_id"`
	AuthorUsername string    `json:"author_username"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toCommentResponse(cm *entity.Comment) *CommentResponse {
	return &CommentResponse{
		ID:             cm.ID,
		BeatID:         cm.BeatID,
		UserID:         cm.UserID,
		AuthorUsername: cm.AuthorUsername,
		Text:           cm.Text,
		CreatedAt:      cm.CreatedAt,
		UpdatedAt:      cm.UpdatedAt,
	}
}

// TransactionResponse is a ledger entry.
type TransactionResponse struct {
	ID                   uuid.UUID   `json:"id"`
	BeatID               uuid.UUID   `json:"beat_id"`
	BeatTitle            string      `json:"beat_title,omitempty"`
	BuyerUserID          uuid.UUID   `json:"buyer_user_id"`
	SellerUserID         uuid.UUID   `json:"seller_user_id"`
	CounterpartyUsername string      `json:"counterparty_username,omitempty"`
	Amount               json.Number `json:"amount"`
	Commission           json.Number `json:"commission"`
	SellerAmount         json.Number `json:"seller_amount"`
	CreatedAt            time.Time   `json:"created_at"`
}

func toTransactionResponse(tx *entity.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:           tx.ID,
		BeatID:       tx.BeatID,
		BuyerUserID:  tx.BuyerUserID,
		SellerUserID: tx.SellerUserID,
		Amount:       money(tx.Amount),
		Commission:   money(tx.Commission),
		SellerAmount: money(tx.SellerAmount()),
		CreatedAt:    tx.CreatedAt,
	}
}

// PurchaseResponse is the outcome of a purchase.
type PurchaseResponse struct {
	Transaction     *TransactionResponse `json:"transaction"`
	BuyerNewBalance json.Number          `json:"buyer_new_balance"`
}

// BalanceResponse is a balance after a top-up.
type BalanceResponse struct {
	Balance json.Number `json:"balance"`
}

// --- Query helpers ---

// bindPage reads the page and limit query parameters; usecases clamp them.
func bindPage(c echo.Context) (entity.Page, error) {
	var page entity.Page
	err := echo.QueryParamsBinder(c).
		Int("page", &page.Page).
		Int("limit", &page.Limit).
		BindError()
	if err != nil {
		return entity.Page{}, domainerrors.ErrValidationFailed.WithDetails("page and limit must be integers")
	}

	return page, nil
}

func pagination[T any](res *usecase.PageResult[T]) response.Pagination {
	return response.Pagination{Page: res.Page.Page, Limit: res.Page.Limit, Total: res.Total}
}

func parseID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, domainerrors.ErrValidationFailed.WithDetails("invalid " + name)
	}

	return id, nil
}

func parseOptionalDecimal(raw, name string) (*decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return nil, domainerrors.ErrValidationFailed.WithDetails(name + " must be a number")
	}

	return &d, nil
}

// splitTags accepts both repeated tags parameters and comma separated values.
func splitTags(values []string) []string {
	var tags []string
	for _, v := range values {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}

	return tags
}

func parseScore(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	score, err := strconv.Atoi(raw)
	if err != nil || score < 0 || score > entity.MaxRatingValue {
		return 0, domainerrors.ErrInvalidRating.WithDetails("score filter must be between 1 and 5")
	}

	return score, nil
}
