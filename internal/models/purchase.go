package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase is a stock receipt from an optional supplier.
type Purchase struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UserID          uint            `gorm:"index;not null" json:"user_id"`
	SupplierID      *uint           `gorm:"index" json:"supplier_id,omitempty"`
	Supplier        *Supplier       `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total_amount"`
	TransactionDate time.Time       `gorm:"index;not null" json:"transaction_date"`
	InvoiceRef      string          `gorm:"size:100" json:"invoice_ref,omitempty"`
	Items           []PurchaseItem  `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// GetUserID implements Ownable.
func (p *Purchase) GetUserID() uint { return p.UserID }

type PurchaseItem struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	PurchaseID uint            `gorm:"index;not null" json:"purchase_id"`
	ProductID  uint            `gorm:"index;not null" json:"product_id"`
	Product    *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitCost   decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"unit_cost"`
	Position   int             `gorm:"not null;default:0" json:"position"`
	CreatedAt  time.Time       `json:"created_at"`
}

// LineTotal is quantity times unit cost.
func (i PurchaseItem) LineTotal() decimal.Decimal {
	return i.UnitCost.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
