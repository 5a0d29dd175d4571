package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// BeatModel mirrors the 'beats' table.
type BeatModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Title             string          `gorm:"type:varchar(200);not null"`
	AuthorDisplayName string          `gorm:"type:varchar(100);not null"`
	Price             decimal.Decimal `gorm:"type:numeric(12,2);not null;check:chk_beats_price_non_negative,price >= 0"`
	Description       string          `gorm:"type:text;not null;default:''"`
	Tags              pq.StringArray  `gorm:"type:text[];not null;default:'{}'"`
	ImageRef          string          `gorm:"type:varchar(512);not null;default:''"`
	AudioRef          string          `gorm:"type:varchar(512);not null;default:''"`
	OwnerUserID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	CreatedAt         time.Time       `gorm:"index"`
	UpdatedAt         time.Time

	Owner *UserModel `gorm:"foreignKey:OwnerUserID;constraint:OnDelete:RESTRICT"`
}

// TableName explicitly sets the table name for GORM.
func (BeatModel) TableName() string {
	return "beats"
}
