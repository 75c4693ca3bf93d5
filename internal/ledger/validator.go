package ledger

import (
	"fmt"

	"github.com/diewo77/stock-ledger/internal/validation"
	"github.com/shopspring/decimal"
)

// LineInput is a requested line item. UnitPrice holds the unit cost for purchases.
type LineInput struct {
	ProductID uint            `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Validator checks the shape of a request before any store access.
type Validator interface {
	Validate(items []LineInput, total decimal.Decimal) validation.Violations
}

// Bounds enforced by DefaultValidator. Money columns are decimal(14,2);
// MaxLineItems*MaxLineQuantity fits in a 32-bit int.
const (
	MaxLineItems    = 1000
	MaxLineQuantity = 1_000_000
	MoneyScale      = 2
)

// MaxAmount is the largest unit price or total a decimal(14,2) column holds.
var MaxAmount = decimal.RequireFromString("999999999999.99")

// DefaultValidator requires at least one item, a product id and a positive
// bounded quantity per item, and non-negative money amounts that fit the
// stored precision.
type DefaultValidator struct{}

func (DefaultValidator) Validate(items []LineInput, total decimal.Decimal) validation.Violations {
	v := validation.Violations{}
	if len(items) == 0 {
		v.Add("items", "required")
	}
	if len(items) > MaxLineItems {
		v.Add("items", "too_many")
	}
	for i, it := range items {
		prefix := fmt.Sprintf("items[%d].", i)
		validation.RequiredID(prefix+"product_id", it.ProductID, v)
		validation.PositiveInt(prefix+"quantity", it.Quantity, v)
		validation.MaxInt(prefix+"quantity", it.Quantity, MaxLineQuantity, v)
		money(prefix+"unit_price", it.UnitPrice, v)
	}
	money("total", total, v)
	return v
}

func money(field string, val decimal.Decimal, v validation.Violations) {
	validation.NonNegativeDecimal(field, val, v)
	validation.MaxDecimal(field, val, MaxAmount, v)
	validation.DecimalPlaces(field, val, MoneyScale, v)
}
