// Package model holds the GORM persistence models of the marketplace tables.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserModel mirrors the 'users' table. The balance check keeps every account non-negative
// even if a caller skips the funds check.
type UserModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Username     string          `gorm:"type:varchar(100);uniqueIndex;not null"`
	PasswordHash string          `gorm:"type:varchar(255);not null"`
	PhotoRef     string          `gorm:"type:varchar(512);not null;default:''"`
	Balance      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0;check:chk_users_balance_non_negative,balance >= 0"`
	Bio          string          `gorm:"type:text;not null;default:''"`
	Role         string          `gorm:"type:varchar(20);not null;default:'user'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
