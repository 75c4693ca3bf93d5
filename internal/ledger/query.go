package ledger

import (
	"context"

	"github.com/diewo77/stock-ledger/internal/models"
	"go.opentelemetry.io/otel/attribute"
)

// Reads go straight to the store without an atomic unit; a slightly stale
// stock figure in a list is acceptable.

func (e *Engine) ListSales(ctx context.Context, tenantID uint, opts ListOptions) ([]models.Sale, error) {
	const op = "ledger.ListSales"
	ctx, span := e.startSpan(ctx, op, tenantID, KindSale)
	defer span.End()
	if tenantID == 0 {
		return nil, e.finish(span, op, unauthenticated(op))
	}
	sales, err := e.store.ListSales(ctx, tenantID, opts)
	if err != nil {
		return nil, e.finish(span, op, err)
	}
	span.SetAttributes(attribute.Int("ledger.results", len(sales)))
	return sales, e.finish(span, op, nil)
}

func (e *Engine) GetSale(ctx context.Context, tenantID, id uint) (*models.Sale, error) {
	const op = "ledger.GetSale"
	ctx, span := e.startSpan(ctx, op, tenantID, KindSale, attribute.Int64("sale.id", int64(id)))
	defer span.End()
	if tenantID == 0 {
		return nil, e.finish(span, op, unauthenticated(op))
	}
	sale, err := e.store.GetSale(ctx, tenantID, id)
	if err != nil {
		return nil, e.finish(span, op, err)
	}
	return sale, e.finish(span, op, nil)
}

func (e *Engine) ListPurchases(ctx context.Context, tenantID uint, opts ListOptions) ([]models.Purchase, error) {
	const op = "ledger.ListPurchases"
	ctx, span := e.startSpan(ctx, op, tenantID, KindPurchase)
	defer span.End()
	if tenantID == 0 {
		return nil, e.finish(span, op, unauthenticated(op))
	}
	purchases, err := e.store.ListPurchases(ctx, tenantID, opts)
	if err != nil {
		return nil, e.finish(span, op, err)
	}
	span.SetAttributes(attribute.Int("ledger.results", len(purchases)))
	return purchases, e.finish(span, op, nil)
}

func (e *Engine) GetPurchase(ctx context.Context, tenantID, id uint) (*models.Purchase, error) {
	const op = "ledger.GetPurchase"
	ctx, span := e.startSpan(ctx, op, tenantID, KindPurchase, attribute.Int64("purchase.id", int64(id)))
	defer span.End()
	if tenantID == 0 {
		return nil, e.finish(span, op, unauthenticated(op))
	}
	purchase, err := e.store.GetPurchase(ctx, tenantID, id)
	if err != nil {
		return nil, e.finish(span, op, err)
	}
	return purchase, e.finish(span, op, nil)
}
