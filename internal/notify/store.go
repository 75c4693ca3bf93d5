package notify

import (
	"context"
	"fmt"

	"github.com/diewo77/stock-ledger/internal/ledger"
	"github.com/diewo77/stock-ledger/internal/models"
	"gorm.io/gorm"
)

// StoreEmitter persists events as dashboard notifications for the tenant.
// It writes outside the ledger's unit, after commit.
type StoreEmitter struct {
	db *gorm.DB
}

func NewStoreEmitter(db *gorm.DB) *StoreEmitter {
	return &StoreEmitter{db: db}
}

func (s *StoreEmitter) Emit(ctx context.Context, ev ledger.Event) error {
	title, msg := Describe(ev)
	n := models.Notification{
		UserID:    ev.TenantID,
		Kind:      string(ev.Kind),
		Title:     title,
		Message:   msg,
		EventID:   ev.ID,
		CreatedAt: ev.OccurredAt,
	}
	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		return fmt.Errorf("store notification %s: %w", ev.ID, err)
	}
	return nil
}
