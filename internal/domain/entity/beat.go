package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Beat is a purchasable audio track listing owned by exactly one user.
type Beat struct {
	ID                uuid.UUID
	Title             string
	AuthorDisplayName string
	Price             decimal.Decimal
	Description       string
	Tags              []string
	ImageRef          string
	AudioRef          string
	OwnerUserID       uuid.UUID
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// BeatFilter narrows a beat listing. Zero values disable a criterion.
type BeatFilter struct {
	Search      string           // case-insensitive title substring
	MinPrice    *decimal.Decimal // inclusive
	MaxPrice    *decimal.Decimal // inclusive
	Tags        []string         // beats carrying any of the tags
	OwnerUserID *uuid.UUID
}

// Page is an offset pagination request. Page is 1-based.
type Page struct {
	Page  int
	Limit int
}

// Normalize clamps the page to sane values, using def when the limit is unset.
func (p Page) Normalize(def, max int) Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = def
	}
	if max > 0 && p.Limit > max {
		p.Limit = max
	}

	return p
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}
