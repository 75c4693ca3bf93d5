// Package notify delivers ledger events to their consumers. All emitters
// run after commit; none of them can affect a ledger change.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/diewo77/stock-ledger/internal/ledger"
	"go.uber.org/zap"
)

// Bus fans an event out to every registered emitter. One failing or
// panicking emitter does not stop the others.
type Bus struct {
	emitters []ledger.Emitter
	log      *zap.Logger
}

func NewBus(log *zap.Logger, emitters ...ledger.Emitter) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{emitters: emitters, log: log}
}

// Add registers another emitter. Not safe for use once events flow.
func (b *Bus) Add(e ledger.Emitter) { b.emitters = append(b.emitters, e) }

func (b *Bus) Emit(ctx context.Context, ev ledger.Event) error {
	var errs []error
	for _, e := range b.emitters {
		if err := emitOne(ctx, e, ev); err != nil {
			b.log.Warn("emitter failed",
				zap.String("emitter", fmt.Sprintf("%T", e)),
				zap.String("event_id", ev.ID),
				zap.String("kind", string(ev.Kind)),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func emitOne(ctx context.Context, e ledger.Emitter, ev ledger.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("emitter panic: %v", r)
		}
	}()
	return e.Emit(ctx, ev)
}
