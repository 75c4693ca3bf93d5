package gormstore

import (
	"context"

	"github.com/diewo77/stock-ledger/internal/ledger"
	"github.com/diewo77/stock-ledger/internal/models"
	"gorm.io/gorm"
)

// Products are preloaded unscoped so that a soft-deleted product still
// shows its name on historical lines.
func withProducts(db *gorm.DB) *gorm.DB { return db.Unscoped() }

func (s *Store) listQuery(ctx context.Context, tenantID uint, opts ledger.ListOptions) *gorm.DB {
	q := s.db.WithContext(ctx).
		Where("user_id = ?", tenantID).
		Preload("Items", itemOrder).
		Preload("Items.Product", withProducts).
		Order(opts.OrderClause())
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	return q
}

func (s *Store) ListSales(ctx context.Context, tenantID uint, opts ledger.ListOptions) ([]models.Sale, error) {
	sales := []models.Sale{}
	if err := s.listQuery(ctx, tenantID, opts).Find(&sales).Error; err != nil {
		return nil, wrap(err, "list sales")
	}
	return sales, nil
}

func (s *Store) GetSale(ctx context.Context, tenantID, id uint) (*models.Sale, error) {
	var sale models.Sale
	err := s.db.WithContext(ctx).
		Preload("Items", itemOrder).
		Preload("Items.Product", withProducts).
		Where("id = ? AND user_id = ?", id, tenantID).
		First(&sale).Error
	if err != nil {
		return nil, wrap(err, "sale %d", id)
	}
	return &sale, nil
}

func (s *Store) ListPurchases(ctx context.Context, tenantID uint, opts ledger.ListOptions) ([]models.Purchase, error) {
	purchases := []models.Purchase{}
	if err := s.listQuery(ctx, tenantID, opts).Preload("Supplier").Find(&purchases).Error; err != nil {
		return nil, wrap(err, "list purchases")
	}
	return purchases, nil
}

func (s *Store) GetPurchase(ctx context.Context, tenantID, id uint) (*models.Purchase, error) {
	var purchase models.Purchase
	err := s.db.WithContext(ctx).
		Preload("Items", itemOrder).
		Preload("Items.Product", withProducts).
		Preload("Supplier").
		Where("id = ? AND user_id = ?", id, tenantID).
		First(&purchase).Error
	if err != nil {
		return nil, wrap(err, "purchase %d", id)
	}
	return &purchase, nil
}
