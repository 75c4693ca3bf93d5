package ledger

import (
	"context"
	"time"

	"github.com/diewo77/stock-ledger/internal/models"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// SaleInput is the full desired state of a sale. On update the items
// replace the existing ones; a zero Date keeps the original timestamp.
type SaleInput struct {
	Items      []LineInput
	Total      decimal.Decimal
	InvoiceRef string
	Date       time.Time
}

func saleItems(in []LineInput) []models.SaleItem {
	items := make([]models.SaleItem, len(in))
	for i, l := range in {
		items[i] = models.SaleItem{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Position:  i,
		}
	}
	return items
}

// CreateSale records a sale and decrements stock for every line.
func (e *Engine) CreateSale(ctx context.Context, tenantID uint, in SaleInput) (*models.Sale, error) {
	const op = "ledger.CreateSale"
	ctx, span := e.startSpan(ctx, op, tenantID, KindSale, attribute.Int("ledger.items", len(in.Items)))
	defer span.End()

	if err := e.validate(op, tenantID, in.Items, in.Total, in.InvoiceRef); err != nil {
		return nil, e.finish(span, op, err)
	}
	sale := &models.Sale{
		UserID:          tenantID,
		TotalAmount:     in.Total,
		TransactionDate: e.dateOr(in.Date),
		InvoiceRef:      in.InvoiceRef,
		Items:           saleItems(in.Items),
	}
	var changes []StockChange
	err := e.inTx(ctx, func(tx Tx) error {
		deltas, err := ComputeDeltas(KindSale, Apply, saleLines(sale.Items))
		if err != nil {
			return err
		}
		if changes, err = e.calc.Apply(ctx, tx, tenantID, deltas); err != nil {
			return err
		}
		return tx.InsertSale(ctx, sale)
	})
	if err != nil {
		return nil, e.finish(span, op, err)
	}
	span.SetAttributes(attribute.Int64("sale.id", int64(sale.ID)))
	e.log.Info("sale created",
		zap.Uint("tenant_id", tenantID),
		zap.Uint("sale_id", sale.ID),
		zap.Int("items", len(sale.Items)),
		zap.String("total", sale.TotalAmount.String()),
	)

	events := []Event{e.newEvent(tenantID, EventSaleSuccess, SaleSuccess{ID: sale.ID, TotalAmount: sale.TotalAmount})}
	events = append(events, e.lowStockEvents(tenantID, KindSale, changes)...)
	e.publish(ctx, tenantID, events, topicsFor(TopicSalesList, changes)...)
	return sale, e.finish(span, op, nil)
}

// UpdateSale replaces the items and header of an existing sale. The
// reversal of the old items and the application of the new ones are netted
// per product before any stock is written.
func (e *Engine) UpdateSale(ctx context.Context, tenantID, id uint, in SaleInput) (*models.Sale, error) {
	const op = "ledger.UpdateSale"
	ctx, span := e.startSpan(ctx, op, tenantID, KindSale,
		attribute.Int64("sale.id", int64(id)),
		attribute.Int("ledger.items", len(in.Items)),
	)
	defer span.End()

	if err := e.validate(op, tenantID, in.Items, in.Total, in.InvoiceRef); err != nil {
		return nil, e.finish(span, op, err)
	}
	var (
		sale    *models.Sale
		changes []StockChange
	)
	err := e.inTx(ctx, func(tx Tx) error {
		existing, err := tx.FindSale(ctx, tenantID, id)
		if err != nil {
			return err
		}
		items := saleItems(in.Items)
		deltas, err := ReplaceDeltas(KindSale, saleLines(existing.Items), saleLines(items))
		if err != nil {
			return err
		}
		if changes, err = e.calc.Apply(ctx, tx, tenantID, deltas); err != nil {
			return err
		}
		if err := tx.ReplaceSaleItems(ctx, existing.ID, items); err != nil {
			return err
		}
		existing.TotalAmount = in.Total
		existing.InvoiceRef = in.InvoiceRef
		if !in.Date.IsZero() {
			existing.TransactionDate = in.Date.UTC()
		}
		if err := tx.UpdateSaleHeader(ctx, existing); err != nil {
			return err
		}
		existing.Items = items
		sale = existing
		return nil
	})
	if err != nil {
		return nil, e.finish(span, op, err)
	}
	e.log.Info("sale updated",
		zap.Uint("tenant_id", tenantID),
		zap.Uint("sale_id", sale.ID),
		zap.Int("items", len(sale.Items)),
		zap.Int("stock_changes", len(changes)),
	)
	e.publish(ctx, tenantID, e.lowStockEvents(tenantID, KindSale, changes), topicsFor(TopicSalesList, changes)...)
	return sale, e.finish(span, op, nil)
}

// DeleteSale restores the stock taken by a sale and removes it.
func (e *Engine) DeleteSale(ctx context.Context, tenantID, id uint) error {
	const op = "ledger.DeleteSale"
	ctx, span := e.startSpan(ctx, op, tenantID, KindSale, attribute.Int64("sale.id", int64(id)))
	defer span.End()

	if tenantID == 0 {
		return e.finish(span, op, unauthenticated(op))
	}
	var changes []StockChange
	err := e.inTx(ctx, func(tx Tx) error {
		existing, err := tx.FindSale(ctx, tenantID, id)
		if err != nil {
			return err
		}
		deltas, err := ComputeDeltas(KindSale, Reverse, saleLines(existing.Items))
		if err != nil {
			return err
		}
		if changes, err = e.calc.Apply(ctx, tx, tenantID, deltas); err != nil {
			return err
		}
		return tx.DeleteSale(ctx, existing)
	})
	if err != nil {
		return e.finish(span, op, err)
	}
	e.log.Info("sale deleted", zap.Uint("tenant_id", tenantID), zap.Uint("sale_id", id))
	e.publish(ctx, tenantID, nil, topicsFor(TopicSalesList, changes)...)
	return e.finish(span, op, nil)
}
