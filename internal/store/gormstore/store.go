// Package gormstore implements ledger.Store on gorm. Product rows are read
// with SELECT ... FOR UPDATE where the dialect supports it, and every stock
// write is a compare-and-swap on the version column, so concurrent units
// either serialize on the row lock or fail with ledger.ErrConflict.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/diewo77/stock-ledger/internal/ledger"
	"github.com/diewo77/stock-ledger/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Ping runs a trivial query, used by readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.WithContext(ctx).Exec("SELECT 1").Error
}

func (s *Store) WithTransaction(ctx context.Context, fn func(tx ledger.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txn{db: tx})
	})
}

func wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	what := fmt.Sprintf(format, args...)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ledger.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

type txn struct {
	db *gorm.DB
}

func (t *txn) forUpdate() *gorm.DB {
	return t.db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (t *txn) LockProducts(_ context.Context, tenantID uint, ids []uint) (map[uint]*models.Product, error) {
	out := make(map[uint]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var products []models.Product
	err := t.forUpdate().
		Where("user_id = ? AND id IN ?", tenantID, ids).
		Order("id").
		Find(&products).Error
	if err != nil {
		return nil, wrap(err, "lock products")
	}
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}

func (t *txn) SetStock(_ context.Context, p *models.Product, stock int) error {
	res := t.db.Model(&models.Product{}).
		Where("id = ? AND version = ?", p.ID, p.Version).
		Updates(map[string]any{
			"stock":   stock,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return wrap(res.Error, "set stock of product %d", p.ID)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %d changed since read: %w", p.ID, ledger.ErrConflict)
	}
	p.Stock = stock
	p.Version++
	return nil
}

func (t *txn) FindSupplier(_ context.Context, tenantID, id uint) (*models.Supplier, error) {
	var sup models.Supplier
	if err := t.db.Where("id = ? AND user_id = ?", id, tenantID).First(&sup).Error; err != nil {
		return nil, wrap(err, "supplier %d", id)
	}
	return &sup, nil
}

func itemOrder(db *gorm.DB) *gorm.DB { return db.Order("position, id") }

func (t *txn) InsertSale(_ context.Context, sale *models.Sale) error {
	return wrap(t.db.Create(sale).Error, "insert sale")
}

func (t *txn) FindSale(_ context.Context, tenantID, id uint) (*models.Sale, error) {
	var sale models.Sale
	err := t.forUpdate().
		Preload("Items", itemOrder).
		Where("id = ? AND user_id = ?", id, tenantID).
		First(&sale).Error
	if err != nil {
		return nil, wrap(err, "sale %d", id)
	}
	return &sale, nil
}

func (t *txn) UpdateSaleHeader(_ context.Context, sale *models.Sale) error {
	res := t.db.Model(&models.Sale{}).
		Where("id = ? AND user_id = ?", sale.ID, sale.UserID).
		Updates(map[string]any{
			"total_amount":     sale.TotalAmount,
			"transaction_date": sale.TransactionDate,
			"invoice_ref":      sale.InvoiceRef,
		})
	if res.Error != nil {
		return wrap(res.Error, "update sale %d", sale.ID)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("sale %d vanished: %w", sale.ID, ledger.ErrConflict)
	}
	return nil
}

func (t *txn) ReplaceSaleItems(_ context.Context, saleID uint, items []models.SaleItem) error {
	if err := t.db.Where("sale_id = ?", saleID).Delete(&models.SaleItem{}).Error; err != nil {
		return wrap(err, "delete items of sale %d", saleID)
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].SaleID = saleID
	}
	return wrap(t.db.Create(&items).Error, "insert items of sale %d", saleID)
}

func (t *txn) DeleteSale(_ context.Context, sale *models.Sale) error {
	if err := t.db.Where("sale_id = ?", sale.ID).Delete(&models.SaleItem{}).Error; err != nil {
		return wrap(err, "delete items of sale %d", sale.ID)
	}
	res := t.db.Where("id = ? AND user_id = ?", sale.ID, sale.UserID).Delete(&models.Sale{})
	if res.Error != nil {
		return wrap(res.Error, "delete sale %d", sale.ID)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("sale %d vanished: %w", sale.ID, ledger.ErrConflict)
	}
	return nil
}

func (t *txn) InsertPurchase(_ context.Context, purchase *models.Purchase) error {
	return wrap(t.db.Create(purchase).Error, "insert purchase")
}

func (t *txn) FindPurchase(_ context.Context, tenantID, id uint) (*models.Purchase, error) {
	var purchase models.Purchase
	err := t.forUpdate().
		Preload("Items", itemOrder).
		Where("id = ? AND user_id = ?", id, tenantID).
		First(&purchase).Error
	if err != nil {
		return nil, wrap(err, "purchase %d", id)
	}
	return &purchase, nil
}

func (t *txn) UpdatePurchaseHeader(_ context.Context, purchase *models.Purchase) error {
	res := t.db.Model(&models.Purchase{}).
		Where("id = ? AND user_id = ?", purchase.ID, purchase.UserID).
		Updates(map[string]any{
			"supplier_id":      purchase.SupplierID,
			"total_amount":     purchase.TotalAmount,
			"transaction_date": purchase.TransactionDate,
			"invoice_ref":      purchase.InvoiceRef,
		})
	if res.Error != nil {
		return wrap(res.Error, "update purchase %d", purchase.ID)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("purchase %d vanished: %w", purchase.ID, ledger.ErrConflict)
	}
	return nil
}

func (t *txn) ReplacePurchaseItems(_ context.Context, purchaseID uint, items []models.PurchaseItem) error {
	if err := t.db.Where("purchase_id = ?", purchaseID).Delete(&models.PurchaseItem{}).Error; err != nil {
		return wrap(err, "delete items of purchase %d", purchaseID)
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].PurchaseID = purchaseID
	}
	return wrap(t.db.Create(&items).Error, "insert items of purchase %d", purchaseID)
}

func (t *txn) DeletePurchase(_ context.Context, purchase *models.Purchase) error {
	if err := t.db.Where("purchase_id = ?", purchase.ID).Delete(&models.PurchaseItem{}).Error; err != nil {
		return wrap(err, "delete items of purchase %d", purchase.ID)
	}
	res := t.db.Where("id = ? AND user_id = ?", purchase.ID, purchase.UserID).Delete(&models.Purchase{})
	if res.Error != nil {
		return wrap(res.Error, "delete purchase %d", purchase.ID)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("purchase %d vanished: %w", purchase.ID, ledger.ErrConflict)
	}
	return nil
}

var _ ledger.Store = (*Store)(nil)
