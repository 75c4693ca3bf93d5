package ledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/diewo77/stock-ledger/internal/models"
)

// Kind is the aggregate type driving the direction of a stock change.
type Kind string

const (
	KindSale     Kind = "sale"
	KindPurchase Kind = "purchase"
)

// Direction tells whether deltas are applied for new items or reversed for old ones.
type Direction int

const (
	Apply Direction = iota
	Reverse
)

// sign implements the direction table:
//
//	purchase apply +qty, purchase reverse -qty
//	sale apply -qty, sale reverse +qty
func (k Kind) sign(d Direction) int {
	s := 1
	if k == KindSale {
		s = -1
	}
	if d == Reverse {
		s = -s
	}
	return s
}

// Line is the stock-relevant part of a line item.
type Line struct {
	ProductID uint
	Quantity  int
}

// Deltas maps product id to a signed stock change.
type Deltas map[uint]int

// ComputeDeltas aggregates signed quantities per product. A product may
// appear on several lines. Negative quantities and sums that do not fit in
// an int fail with ErrQuantityOutOfRange.
func ComputeDeltas(kind Kind, dir Direction, lines []Line) (Deltas, error) {
	out := make(Deltas, len(lines))
	sign := kind.sign(dir)
	for _, l := range lines {
		if l.Quantity < 0 {
			return nil, fmt.Errorf("product %d quantity %d: %w", l.ProductID, l.Quantity, ErrQuantityOutOfRange)
		}
		sum, ok := addInt(out[l.ProductID], sign*l.Quantity)
		if !ok {
			return nil, fmt.Errorf("product %d: %w", l.ProductID, ErrQuantityOutOfRange)
		}
		out[l.ProductID] = sum
	}
	return out, nil
}

// Net sums several delta sets into one effective delta per product.
// Products whose deltas cancel out are kept with a zero value so that
// their existence is still checked when applied.
func Net(sets ...Deltas) (Deltas, error) {
	out := Deltas{}
	for _, set := range sets {
		for id, d := range set {
			sum, ok := addInt(out[id], d)
			if !ok {
				return nil, fmt.Errorf("product %d: %w", id, ErrQuantityOutOfRange)
			}
			out[id] = sum
		}
	}
	return out, nil
}

// ReplaceDeltas nets the reversal of old lines with the application of
// next lines, as an update needs.
func ReplaceDeltas(kind Kind, old, next []Line) (Deltas, error) {
	rev, err := ComputeDeltas(kind, Reverse, old)
	if err != nil {
		return nil, err
	}
	app, err := ComputeDeltas(kind, Apply, next)
	if err != nil {
		return nil, err
	}
	return Net(rev, app)
}

// addInt reports false when a+b overflows.
func addInt(a, b int) (int, bool) {
	s := a + b
	if (b > 0 && s < a) || (b < 0 && s > a) {
		return 0, false
	}
	return s, true
}

// ProductIDs returns the keys in ascending order, which is also the lock order.
func (d Deltas) ProductIDs() []uint {
	ids := make([]uint, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// StockChange is one applied delta and the stock it produced.
type StockChange struct {
	ProductID uint
	Name      string
	Delta     int
	Before    int
	After     int
}

// Calculator applies deltas to product stock inside an atomic unit.
type Calculator struct {
	LowStockThreshold int
}

// Apply locks every product in deltas, checks it exists for the tenant,
// and writes the new stock for each non-zero delta. It fails with
// ErrNotFound for a missing product and ErrInsufficientStock when stock
// would drop below zero. Nothing is rolled back here; the caller's unit
// does that.
func (c Calculator) Apply(ctx context.Context, tx Tx, tenantID uint, deltas Deltas) ([]StockChange, error) {
	ids := deltas.ProductIDs()
	if len(ids) == 0 {
		return nil, nil
	}
	products, err := tx.LockProducts(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	changes := make([]StockChange, 0, len(ids))
	for _, id := range ids {
		p, ok := products[id]
		if !ok {
			return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
		}
		d := deltas[id]
		if d == 0 {
			continue
		}
		next, ok := addInt(p.Stock, d)
		if !ok {
			return nil, fmt.Errorf("product %d stock %d%+d: %w", id, p.Stock, d, ErrQuantityOutOfRange)
		}
		if next < 0 {
			return nil, fmt.Errorf("product %d has %d, needs %d: %w", id, p.Stock, -d, ErrInsufficientStock)
		}
		before := p.Stock
		if err := tx.SetStock(ctx, p, next); err != nil {
			return nil, err
		}
		changes = append(changes, StockChange{ProductID: id, Name: p.Name, Delta: d, Before: before, After: next})
	}
	return changes, nil
}

// LowStock returns the changes that warrant a low-stock warning: sale path
// only, stock went down, and the result is in (0, threshold].
func (c Calculator) LowStock(kind Kind, changes []StockChange) []StockChange {
	if kind != KindSale {
		return nil
	}
	var out []StockChange
	for _, ch := range changes {
		if ch.Delta < 0 && ch.After > 0 && ch.After <= c.LowStockThreshold {
			out = append(out, ch)
		}
	}
	return out
}

func saleLines(items []models.SaleItem) []Line {
	lines := make([]Line, len(items))
	for i, it := range items {
		lines[i] = Line{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return lines
}

func purchaseLines(items []models.PurchaseItem) []Line {
	lines := make([]Line, len(items))
	for i, it := range items {
		lines[i] = Line{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return lines
}
