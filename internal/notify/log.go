package notify

import (
	"context"

	"github.com/diewo77/stock-ledger/internal/ledger"
	"go.uber.org/zap"
)

// LogEmitter writes every event to the structured log.
type LogEmitter struct {
	log *zap.Logger
}

func NewLogEmitter(log *zap.Logger) *LogEmitter {
	return &LogEmitter{log: log}
}

func (l *LogEmitter) Emit(_ context.Context, ev ledger.Event) error {
	fields := []zap.Field{
		zap.String("event_id", ev.ID),
		zap.String("kind", string(ev.Kind)),
		zap.Uint("tenant_id", ev.TenantID),
	}
	switch p := ev.Payload.(type) {
	case ledger.SaleSuccess:
		fields = append(fields, zap.Uint("sale_id", p.ID), zap.String("total", p.TotalAmount.String()))
	case ledger.PurchaseSuccess:
		fields = append(fields, zap.Uint("purchase_id", p.ID), zap.String("total", p.TotalAmount.String()))
	case ledger.LowStock:
		fields = append(fields, zap.Uint("product_id", p.ProductID), zap.String("product", p.ProductName), zap.Int("stock", p.ResultingStock))
	}
	l.log.Info("ledger event", fields...)
	return nil
}
