package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventKind string

const (
	EventSaleSuccess     EventKind = "sale_success"
	EventPurchaseSuccess EventKind = "purchase_success"
	EventLowStock        EventKind = "low_stock"
)

// Event is published after a mutation commits. Payload is one of
// SaleSuccess, PurchaseSuccess or LowStock.
type Event struct {
	ID         string    `json:"id"`
	Kind       EventKind `json:"kind"`
	TenantID   uint      `json:"tenant_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

type SaleSuccess struct {
	ID          uint            `json:"id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type PurchaseSuccess struct {
	ID          uint            `json:"id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type LowStock struct {
	ProductID      uint   `json:"product_id"`
	ProductName    string `json:"product_name"`
	ResultingStock int    `json:"resulting_stock"`
}
