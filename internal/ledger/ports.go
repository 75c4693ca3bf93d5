package ledger

import (
	"context"

	"github.com/diewo77/stock-ledger/internal/models"
)

// Store is the backing store. WithTransaction runs fn in one atomic unit
// and rolls back everything fn did when it returns an error.
type Store interface {
	Reader
	WithTransaction(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of writes available inside an atomic unit. Every lookup is
// scoped by tenant; rows owned by another tenant are reported as ErrNotFound.
type Tx interface {
	// LockProducts loads products for update. Ids not owned by the tenant are
	// simply absent from the result.
	LockProducts(ctx context.Context, tenantID uint, ids []uint) (map[uint]*models.Product, error)
	// SetStock writes stock if the product's version still matches p.Version,
	// otherwise ErrConflict. On success p carries the new stock and version.
	SetStock(ctx context.Context, p *models.Product, stock int) error

	FindSupplier(ctx context.Context, tenantID, id uint) (*models.Supplier, error)

	InsertSale(ctx context.Context, sale *models.Sale) error
	FindSale(ctx context.Context, tenantID, id uint) (*models.Sale, error)
	UpdateSaleHeader(ctx context.Context, sale *models.Sale) error
	ReplaceSaleItems(ctx context.Context, saleID uint, items []models.SaleItem) error
	DeleteSale(ctx context.Context, sale *models.Sale) error

	InsertPurchase(ctx context.Context, purchase *models.Purchase) error
	FindPurchase(ctx context.Context, tenantID, id uint) (*models.Purchase, error)
	UpdatePurchaseHeader(ctx context.Context, purchase *models.Purchase) error
	ReplacePurchaseItems(ctx context.Context, purchaseID uint, items []models.PurchaseItem) error
	DeletePurchase(ctx context.Context, purchase *models.Purchase) error
}

// Reader serves tenant-scoped projections with product and supplier
// display fields joined in.
type Reader interface {
	ListSales(ctx context.Context, tenantID uint, opts ListOptions) ([]models.Sale, error)
	GetSale(ctx context.Context, tenantID, id uint) (*models.Sale, error)
	ListPurchases(ctx context.Context, tenantID uint, opts ListOptions) ([]models.Purchase, error)
	GetPurchase(ctx context.Context, tenantID, id uint) (*models.Purchase, error)
}

// Order is the transaction date ordering of list reads.
type Order string

const (
	OrderDesc Order = "desc"
	OrderAsc  Order = "asc"
)

// ListOptions controls list reads. Zero value means newest first, unpaginated.
type ListOptions struct {
	Order  Order
	Limit  int
	Offset int
}

// OrderClause renders the ordering for SQL stores.
func (o ListOptions) OrderClause() string {
	if o.Order == OrderAsc {
		return "transaction_date asc, id asc"
	}
	return "transaction_date desc, id desc"
}

// Emitter receives events after commit.
type Emitter interface {
	Emit(ctx context.Context, ev Event) error
}

// Topic names a list that downstream caches hold.
type Topic string

const (
	TopicSalesList     Topic = "sales-list"
	TopicPurchasesList Topic = "purchases-list"
	TopicProducts      Topic = "products"
)

// Invalidator signals that a tenant's cached topic changed.
type Invalidator interface {
	Invalidate(ctx context.Context, tenantID uint, topic Topic) error
}

type nopEmitter struct{}

func (nopEmitter) Emit(context.Context, Event) error { return nil }

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(context.Context, uint, Topic) error { return nil }
