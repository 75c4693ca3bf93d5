package ledger

import (
	"context"
	"time"

	"github.com/diewo77/stock-ledger/internal/models"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// PurchaseInput mirrors SaleInput; UnitPrice on each line is the unit cost.
// SupplierID, when set, must reference a supplier of the same tenant.
type PurchaseInput struct {
	Items      []LineInput
	Total      decimal.Decimal
	SupplierID *uint
	InvoiceRef string
	Date       time.Time
}

func purchaseItems(in []LineInput) []models.PurchaseItem {
	items := make([]models.PurchaseItem, len(in))
	for i, l := range in {
		items[i] = models.PurchaseItem{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitCost:  l.UnitPrice,
			Position:  i,
		}
	}
	return items
}

func checkSupplier(ctx context.Context, tx Tx, tenantID uint, id *uint) error {
	if id == nil || *id == 0 {
		return nil
	}
	_, err := tx.FindSupplier(ctx, tenantID, *id)
	return err
}

func normalizeSupplier(id *uint) *uint {
	if id == nil || *id == 0 {
		return nil
	}
	v := *id
	return &v
}

// CreatePurchase records a purchase and increments stock for every line.
func (e *Engine) CreatePurchase(ctx context.Context, tenantID uint, in PurchaseInput) (*models.Purchase, error) {
	const op = "ledger.CreatePurchase"
	ctx, span := e.startSpan(ctx, op, tenantID, KindPurchase, attribute.Int("ledger.items", len(in.Items)))
	defer span.End()

	if err := e.validate(op, tenantID, in.Items, in.Total, in.InvoiceRef); err != nil {
		return nil, e.finish(span, op, err)
	}
	purchase := &models.Purchase{
		UserID:          tenantID,
		SupplierID:      normalizeSupplier(in.SupplierID),
		TotalAmount:     in.Total,
		TransactionDate: e.dateOr(in.Date),
		InvoiceRef:      in.InvoiceRef,
		Items:           purchaseItems(in.Items),
	}
	var changes []StockChange
	err := e.inTx(ctx, func(tx Tx) error {
		if err := checkSupplier(ctx, tx, tenantID, purchase.SupplierID); err != nil {
			return err
		}
		deltas, err := ComputeDeltas(KindPurchase, Apply, purchaseLines(purchase.Items))
		if err != nil {
			return err
		}
		if changes, err = e.calc.Apply(ctx, tx, tenantID, deltas); err != nil {
			return err
		}
		return tx.InsertPurchase(ctx, purchase)
	})
	if err != nil {
		return nil, e.finish(span, op, err)
	}
	span.SetAttributes(attribute.Int64("purchase.id", int64(purchase.ID)))
	e.log.Info("purchase created",
		zap.Uint("tenant_id", tenantID),
		zap.Uint("purchase_id", purchase.ID),
		zap.Int("items", len(purchase.Items)),
		zap.String("total", purchase.TotalAmount.String()),
	)
	events := []Event{e.newEvent(tenantID, EventPurchaseSuccess, PurchaseSuccess{ID: purchase.ID, TotalAmount: purchase.TotalAmount})}
	e.publish(ctx, tenantID, events, topicsFor(TopicPurchasesList, changes)...)
	return purchase, e.finish(span, op, nil)
}

// UpdatePurchase replaces items and header fields, netting old and new
// deltas per product before writing stock.
func (e *Engine) UpdatePurchase(ctx context.Context, tenantID, id uint, in PurchaseInput) (*models.Purchase, error) {
	const op = "ledger.UpdatePurchase"
	ctx, span := e.startSpan(ctx, op, tenantID, KindPurchase,
		attribute.Int64("purchase.id", int64(id)),
		attribute.Int("ledger.items", len(in.Items)),
	)
	defer span.End()

	if err := e.validate(op, tenantID, in.Items, in.Total, in.InvoiceRef); err != nil {
		return nil, e.finish(span, op, err)
	}
	var (
		purchase *models.Purchase
		changes  []StockChange
	)
	err := e.inTx(ctx, func(tx Tx) error {
		existing, err := tx.FindPurchase(ctx, tenantID, id)
		if err != nil {
			return err
		}
		supplierID := normalizeSupplier(in.SupplierID)
		if err := checkSupplier(ctx, tx, tenantID, supplierID); err != nil {
			return err
		}
		items := purchaseItems(in.Items)
		deltas, err := ReplaceDeltas(KindPurchase, purchaseLines(existing.Items), purchaseLines(items))
		if err != nil {
			return err
		}
		if changes, err = e.calc.Apply(ctx, tx, tenantID, deltas); err != nil {
			return err
		}
		if err := tx.ReplacePurchaseItems(ctx, existing.ID, items); err != nil {
			return err
		}
		existing.SupplierID = supplierID
		existing.Supplier = nil
		existing.TotalAmount = in.Total
		existing.InvoiceRef = in.InvoiceRef
		if !in.Date.IsZero() {
			existing.TransactionDate = in.Date.UTC()
		}
		if err := tx.UpdatePurchaseHeader(ctx, existing); err != nil {
			return err
		}
		existing.Items = items
		purchase = existing
		return nil
	})
	if err != nil {
		return nil, e.finish(span, op, err)
	}
	e.log.Info("purchase updated",
		zap.Uint("tenant_id", tenantID),
		zap.Uint("purchase_id", purchase.ID),
		zap.Int("items", len(purchase.Items)),
		zap.Int("stock_changes", len(changes)),
	)
	e.publish(ctx, tenantID, nil, topicsFor(TopicPurchasesList, changes)...)
	return purchase, e.finish(span, op, nil)
}

// DeletePurchase takes back the stock a purchase added and removes it. It
// fails with ErrInsufficientStock when that stock has already been sold.
func (e *Engine) DeletePurchase(ctx context.Context, tenantID, id uint) error {
	const op = "ledger.DeletePurchase"
	ctx, span := e.startSpan(ctx, op, tenantID, KindPurchase, attribute.Int64("purchase.id", int64(id)))
	defer span.End()

	if tenantID == 0 {
		return e.finish(span, op, unauthenticated(op))
	}
	var changes []StockChange
	err := e.inTx(ctx, func(tx Tx) error {
		existing, err := tx.FindPurchase(ctx, tenantID, id)
		if err != nil {
			return err
		}
		deltas, err := ComputeDeltas(KindPurchase, Reverse, purchaseLines(existing.Items))
		if err != nil {
			return err
		}
		if changes, err = e.calc.Apply(ctx, tx, tenantID, deltas); err != nil {
			return err
		}
		return tx.DeletePurchase(ctx, existing)
	})
	if err != nil {
		return e.finish(span, op, err)
	}
	e.log.Info("purchase deleted", zap.Uint("tenant_id", tenantID), zap.Uint("purchase_id", id))
	e.publish(ctx, tenantID, nil, topicsFor(TopicPurchasesList, changes)...)
	return e.finish(span, op, nil)
}
