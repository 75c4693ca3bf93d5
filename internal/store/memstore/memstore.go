// Package memstore is an in-memory ledger.Store. Atomic units are
// serialized and run against a copy of the state that is only swapped in
// on success, so a failed unit leaves no trace.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/diewo77/stock-ledger/internal/ledger"
	"github.com/diewo77/stock-ledger/internal/models"
)

type state struct {
	seq       uint
	products  map[uint]models.Product
	suppliers map[uint]models.Supplier
	sales     map[uint]models.Sale
	purchases map[uint]models.Purchase
}

func newState() *state {
	return &state{
		products:  map[uint]models.Product{},
		suppliers: map[uint]models.Supplier{},
		sales:     map[uint]models.Sale{},
		purchases: map[uint]models.Purchase{},
	}
}

func (s *state) clone() *state {
	c := newState()
	c.seq = s.seq
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.suppliers {
		c.suppliers[k] = v
	}
	for k, v := range s.sales {
		v.Items = append([]models.SaleItem(nil), v.Items...)
		c.sales[k] = v
	}
	for k, v := range s.purchases {
		v.Items = append([]models.PurchaseItem(nil), v.Items...)
		c.purchases[k] = v
	}
	return c
}

func (s *state) nextID() uint {
	s.seq++
	return s.seq
}

func ownedBy(row models.Ownable, tenantID uint) bool {
	return row.GetUserID() == tenantID
}

// Store implements ledger.Store in memory.
type Store struct {
	mu sync.Mutex
	st *state

	// BeforeStockWrite, when set, runs before every stock write inside a
	// unit. Returning an error aborts the unit.
	BeforeStockWrite func(productID uint) error
}

func New() *Store {
	return &Store{st: newState()}
}

// AddProduct inserts a product and returns it with its id.
func (s *Store) AddProduct(p models.Product) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.st.nextID()
	if p.Version == 0 {
		p.Version = 1
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	s.st.products[p.ID] = p
	return p
}

// AddSupplier inserts a supplier and returns it with its id.
func (s *Store) AddSupplier(sup models.Supplier) models.Supplier {
	s.mu.Lock()
	defer s.mu.Unlock()
	sup.ID = s.st.nextID()
	s.st.suppliers[sup.ID] = sup
	return sup
}

// Product returns the committed state of a product.
func (s *Store) Product(id uint) (models.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.products[id]
	return p, ok
}

// Counts returns the number of committed sales and purchases.
func (s *Store) Counts() (sales, purchases int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.sales), len(s.st.purchases)
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) WithTransaction(ctx context.Context, fn func(tx ledger.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.st.clone()
	if err := fn(&tx{st: work, hook: s.BeforeStockWrite}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = work
	return nil
}

type tx struct {
	st   *state
	hook func(productID uint) error
}

func (t *tx) LockProducts(_ context.Context, tenantID uint, ids []uint) (map[uint]*models.Product, error) {
	out := make(map[uint]*models.Product, len(ids))
	for _, id := range ids {
		p, ok := t.st.products[id]
		if !ok || !ownedBy(&p, tenantID) || p.DeletedAt.Valid {
			continue
		}
		out[id] = &p
	}
	return out, nil
}

func (t *tx) SetStock(_ context.Context, p *models.Product, stock int) error {
	cur, ok := t.st.products[p.ID]
	if !ok {
		return fmt.Errorf("product %d: %w", p.ID, ledger.ErrNotFound)
	}
	if cur.Version != p.Version {
		return fmt.Errorf("product %d version %d, have %d: %w", p.ID, cur.Version, p.Version, ledger.ErrConflict)
	}
	if t.hook != nil {
		if err := t.hook(p.ID); err != nil {
			return err
		}
	}
	cur.Stock = stock
	cur.Version++
	cur.UpdatedAt = time.Now()
	t.st.products[p.ID] = cur
	p.Stock, p.Version = cur.Stock, cur.Version
	return nil
}

func (t *tx) FindSupplier(_ context.Context, tenantID, id uint) (*models.Supplier, error) {
	sup, ok := t.st.suppliers[id]
	if !ok || !ownedBy(&sup, tenantID) {
		return nil, fmt.Errorf("supplier %d: %w", id, ledger.ErrNotFound)
	}
	return &sup, nil
}

func (t *tx) InsertSale(_ context.Context, sale *models.Sale) error {
	now := time.Now()
	sale.ID = t.st.nextID()
	sale.CreatedAt, sale.UpdatedAt = now, now
	for i := range sale.Items {
		sale.Items[i].ID = t.st.nextID()
		sale.Items[i].SaleID = sale.ID
		sale.Items[i].CreatedAt = now
	}
	row := *sale
	row.Items = append([]models.SaleItem(nil), sale.Items...)
	t.st.sales[sale.ID] = row
	return nil
}

func (t *tx) FindSale(_ context.Context, tenantID, id uint) (*models.Sale, error) {
	row, ok := t.st.sales[id]
	if !ok || !ownedBy(&row, tenantID) {
		return nil, fmt.Errorf("sale %d: %w", id, ledger.ErrNotFound)
	}
	row.Items = append([]models.SaleItem(nil), row.Items...)
	return &row, nil
}

func (t *tx) UpdateSaleHeader(_ context.Context, sale *models.Sale) error {
	row, ok := t.st.sales[sale.ID]
	if !ok {
		return fmt.Errorf("sale %d: %w", sale.ID, ledger.ErrConflict)
	}
	row.TotalAmount = sale.TotalAmount
	row.TransactionDate = sale.TransactionDate
	row.InvoiceRef = sale.InvoiceRef
	row.UpdatedAt = time.Now()
	sale.UpdatedAt = row.UpdatedAt
	t.st.sales[sale.ID] = row
	return nil
}

func (t *tx) ReplaceSaleItems(_ context.Context, saleID uint, items []models.SaleItem) error {
	row, ok := t.st.sales[saleID]
	if !ok {
		return fmt.Errorf("sale %d: %w", saleID, ledger.ErrConflict)
	}
	now := time.Now()
	for i := range items {
		items[i].ID = t.st.nextID()
		items[i].SaleID = saleID
		items[i].CreatedAt = now
	}
	row.Items = append([]models.SaleItem(nil), items...)
	t.st.sales[saleID] = row
	return nil
}

func (t *tx) DeleteSale(_ context.Context, sale *models.Sale) error {
	if _, ok := t.st.sales[sale.ID]; !ok {
		return fmt.Errorf("sale %d: %w", sale.ID, ledger.ErrConflict)
	}
	delete(t.st.sales, sale.ID)
	return nil
}

func (t *tx) InsertPurchase(_ context.Context, purchase *models.Purchase) error {
	now := time.Now()
	purchase.ID = t.st.nextID()
	purchase.CreatedAt, purchase.UpdatedAt = now, now
	for i := range purchase.Items {
		purchase.Items[i].ID = t.st.nextID()
		purchase.Items[i].PurchaseID = purchase.ID
		purchase.Items[i].CreatedAt = now
	}
	row := *purchase
	row.Items = append([]models.PurchaseItem(nil), purchase.Items...)
	t.st.purchases[purchase.ID] = row
	return nil
}

func (t *tx) FindPurchase(_ context.Context, tenantID, id uint) (*models.Purchase, error) {
	row, ok := t.st.purchases[id]
	if !ok || !ownedBy(&row, tenantID) {
		return nil, fmt.Errorf("purchase %d: %w", id, ledger.ErrNotFound)
	}
	row.Items = append([]models.PurchaseItem(nil), row.Items...)
	return &row, nil
}

func (t *tx) UpdatePurchaseHeader(_ context.Context, purchase *models.Purchase) error {
	row, ok := t.st.purchases[purchase.ID]
	if !ok {
		return fmt.Errorf("purchase %d: %w", purchase.ID, ledger.ErrConflict)
	}
	row.SupplierID = purchase.SupplierID
	row.TotalAmount = purchase.TotalAmount
	row.TransactionDate = purchase.TransactionDate
	row.InvoiceRef = purchase.InvoiceRef
	row.UpdatedAt = time.Now()
	purchase.UpdatedAt = row.UpdatedAt
	t.st.purchases[purchase.ID] = row
	return nil
}

func (t *tx) ReplacePurchaseItems(_ context.Context, purchaseID uint, items []models.PurchaseItem) error {
	row, ok := t.st.purchases[purchaseID]
	if !ok {
		return fmt.Errorf("purchase %d: %w", purchaseID, ledger.ErrConflict)
	}
	now := time.Now()
	for i := range items {
		items[i].ID = t.st.nextID()
		items[i].PurchaseID = purchaseID
		items[i].CreatedAt = now
	}
	row.Items = append([]models.PurchaseItem(nil), items...)
	t.st.purchases[purchaseID] = row
	return nil
}

func (t *tx) DeletePurchase(_ context.Context, purchase *models.Purchase) error {
	if _, ok := t.st.purchases[purchase.ID]; !ok {
		return fmt.Errorf("purchase %d: %w", purchase.ID, ledger.ErrConflict)
	}
	delete(t.st.purchases, purchase.ID)
	return nil
}

// Reads

func (s *Store) ListSales(_ context.Context, tenantID uint, opts ledger.ListOptions) ([]models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Sale{}
	for _, row := range s.st.sales {
		if ownedBy(&row, tenantID) {
			out = append(out, s.joinSale(row))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return before(out[i].TransactionDate, out[i].ID, out[j].TransactionDate, out[j].ID, opts.Order)
	})
	return page(out, opts), nil
}

func (s *Store) GetSale(_ context.Context, tenantID, id uint) (*models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.st.sales[id]
	if !ok || !ownedBy(&row, tenantID) {
		return nil, fmt.Errorf("sale %d: %w", id, ledger.ErrNotFound)
	}
	sale := s.joinSale(row)
	return &sale, nil
}

func (s *Store) ListPurchases(_ context.Context, tenantID uint, opts ledger.ListOptions) ([]models.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Purchase{}
	for _, row := range s.st.purchases {
		if ownedBy(&row, tenantID) {
			out = append(out, s.joinPurchase(row))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return before(out[i].TransactionDate, out[i].ID, out[j].TransactionDate, out[j].ID, opts.Order)
	})
	return page(out, opts), nil
}

func (s *Store) GetPurchase(_ context.Context, tenantID, id uint) (*models.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.st.purchases[id]
	if !ok || !ownedBy(&row, tenantID) {
		return nil, fmt.Errorf("purchase %d: %w", id, ledger.ErrNotFound)
	}
	p := s.joinPurchase(row)
	return &p, nil
}

func (s *Store) joinSale(row models.Sale) models.Sale {
	row.Items = append([]models.SaleItem(nil), row.Items...)
	for i := range row.Items {
		if p, ok := s.st.products[row.Items[i].ProductID]; ok {
			row.Items[i].Product = &p
		}
	}
	return row
}

func (s *Store) joinPurchase(row models.Purchase) models.Purchase {
	row.Items = append([]models.PurchaseItem(nil), row.Items...)
	for i := range row.Items {
		if p, ok := s.st.products[row.Items[i].ProductID]; ok {
			row.Items[i].Product = &p
		}
	}
	if row.SupplierID != nil {
		if sup, ok := s.st.suppliers[*row.SupplierID]; ok {
			row.Supplier = &sup
		}
	}
	return row
}

func before(ti time.Time, idi uint, tj time.Time, idj uint, order ledger.Order) bool {
	if order == ledger.OrderAsc {
		if ti.Equal(tj) {
			return idi < idj
		}
		return ti.Before(tj)
	}
	if ti.Equal(tj) {
		return idi > idj
	}
	return ti.After(tj)
}

func page[T any](rows []T, opts ledger.ListOptions) []T {
	if opts.Offset > 0 {
		if opts.Offset >= len(rows) {
			return rows[:0]
		}
		rows = rows[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(rows) {
		rows = rows[:opts.Limit]
	}
	return rows
}

var _ ledger.Store = (*Store)(nil)
