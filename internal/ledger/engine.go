package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/diewo77/stock-ledger/internal/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultLowStockThreshold is the inclusive upper bound for low-stock warnings.
const DefaultLowStockThreshold = 5

// Config carries the engine's collaborators. Zero values get defaults.
type Config struct {
	Logger            *zap.Logger
	Tracer            trace.Tracer
	Emitter           Emitter
	Invalidator       Invalidator
	Validator         Validator
	LowStockThreshold int
	Now               func() time.Time
}

// Engine creates, updates and deletes sales and purchases while keeping
// product stock consistent. Each mutation runs in exactly one atomic unit of
// the Store; events and cache signals are published only after commit.
type Engine struct {
	store       Store
	calc        Calculator
	log         *zap.Logger
	tracer      trace.Tracer
	emitter     Emitter
	invalidator Invalidator
	validator   Validator
	now         func() time.Time
}

func NewEngine(store Store, cfg Config) *Engine {
	e := &Engine{
		store:       store,
		calc:        Calculator{LowStockThreshold: cfg.LowStockThreshold},
		log:         cfg.Logger,
		tracer:      cfg.Tracer,
		emitter:     cfg.Emitter,
		invalidator: cfg.Invalidator,
		validator:   cfg.Validator,
		now:         cfg.Now,
	}
	if e.calc.LowStockThreshold <= 0 {
		e.calc.LowStockThreshold = DefaultLowStockThreshold
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer("github.com/diewo77/stock-ledger/internal/ledger")
	}
	if e.emitter == nil {
		e.emitter = nopEmitter{}
	}
	if e.invalidator == nil {
		e.invalidator = nopInvalidator{}
	}
	if e.validator == nil {
		e.validator = DefaultValidator{}
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// LowStockThreshold returns the effective threshold.
func (e *Engine) LowStockThreshold() int { return e.calc.LowStockThreshold }

func (e *Engine) startSpan(ctx context.Context, op string, tenantID uint, kind Kind, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := e.tracer.Start(ctx, op)
	span.SetAttributes(
		attribute.Int64("tenant.id", int64(tenantID)),
		attribute.String("ledger.kind", string(kind)),
	)
	span.SetAttributes(attrs...)
	return ctx, span
}

// finish classifies err, records it on the span and returns it as *Error.
func (e *Engine) finish(span trace.Span, op string, err error) error {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return nil
	}
	le := classify(op, err)
	span.RecordError(le)
	span.SetStatus(codes.Error, le.Code.String())
	return le
}

// inTx runs fn in one atomic unit. A panic inside fn becomes a persistence
// failure so the store rolls back and nothing escapes the engine.
func (e *Engine) inTx(ctx context.Context, fn func(tx Tx) error) error {
	return e.store.WithTransaction(ctx, func(tx Tx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic in atomic unit: %v: %w", r, ErrPersistence)
			}
		}()
		return fn(tx)
	})
}

func (e *Engine) validate(op string, tenantID uint, items []LineInput, total decimal.Decimal, invoiceRef string) error {
	if tenantID == 0 {
		return unauthenticated(op)
	}
	v := e.validator.Validate(items, total)
	if v == nil {
		v = validation.Violations{}
	}
	validation.MaxLength("invoice_ref", invoiceRef, 100, v)
	if !v.Empty() {
		return invalid(op, v)
	}
	return nil
}

func (e *Engine) newEvent(tenantID uint, kind EventKind, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		TenantID:   tenantID,
		OccurredAt: e.now().UTC(),
		Payload:    payload,
	}
}

func (e *Engine) lowStockEvents(tenantID uint, kind Kind, changes []StockChange) []Event {
	var out []Event
	for _, ch := range e.calc.LowStock(kind, changes) {
		out = append(out, e.newEvent(tenantID, EventLowStock, LowStock{
			ProductID:      ch.ProductID,
			ProductName:    ch.Name,
			ResultingStock: ch.After,
		}))
	}
	return out
}

// publish runs after commit. Failures are logged and swallowed: the ledger
// change is already durable and must stay that way.
func (e *Engine) publish(ctx context.Context, tenantID uint, events []Event, topics ...Topic) {
	ctx = context.WithoutCancel(ctx)
	for _, ev := range events {
		if err := e.safely(func() error { return e.emitter.Emit(ctx, ev) }); err != nil {
			e.log.Warn("event emit failed",
				zap.String("event_id", ev.ID),
				zap.String("kind", string(ev.Kind)),
				zap.Uint("tenant_id", tenantID),
				zap.Error(err),
			)
		}
	}
	for _, topic := range topics {
		if err := e.safely(func() error { return e.invalidator.Invalidate(ctx, tenantID, topic) }); err != nil {
			e.log.Warn("cache invalidation failed",
				zap.String("topic", string(topic)),
				zap.Uint("tenant_id", tenantID),
				zap.Error(err),
			)
		}
	}
}

func (e *Engine) safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// topicsFor returns the list topic plus the product topic when stock moved.
func topicsFor(list Topic, changes []StockChange) []Topic {
	if len(changes) == 0 {
		return []Topic{list}
	}
	return []Topic{list, TopicProducts}
}

func (e *Engine) dateOr(t time.Time) time.Time {
	if t.IsZero() {
		return e.now().UTC()
	}
	return t.UTC()
}
