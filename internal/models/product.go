package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog entry whose Stock is only changed by the ledger.
// Version is bumped on every stock write and guards against lost updates.
type Product struct {
	ID        uint                `gorm:"primaryKey" json:"id"`
	UserID    uint                `gorm:"index;not null;index:idx_product_user_code,unique,priority:1" json:"user_id"`
	Code      string              `gorm:"size:40;index:idx_product_user_code,unique,priority:2" json:"code,omitempty"`
	Name      string              `gorm:"size:255;not null" json:"name"`
	Price     decimal.Decimal     `gorm:"type:decimal(14,2);not null" json:"price"`
	Cost      decimal.NullDecimal `gorm:"type:decimal(14,2)" json:"cost"`
	Stock     int                 `gorm:"not null;default:0" json:"stock"`
	Version   int                 `gorm:"not null;default:1" json:"-"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	DeletedAt gorm.DeletedAt      `gorm:"index" json:"-"`
}

// GetUserID implements Ownable.
func (p *Product) GetUserID() uint { return p.UserID }

// Supplier is referenced by purchases.
type Supplier struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255" json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetUserID implements Ownable.
func (s *Supplier) GetUserID() uint { return s.UserID }
