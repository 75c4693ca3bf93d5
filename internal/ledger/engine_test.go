package ledger_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/diewo77/stock-ledger/internal/ledger"
	"github.com/diewo77/stock-ledger/internal/models"
	"github.com/diewo77/stock-ledger/internal/store/memstore"
	"github.com/diewo77/stock-ledger/internal/validation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tenant = uint(1)

type recorder struct {
	mu     sync.Mutex
	events []ledger.Event
	topics []ledger.Topic
	err    error
}

func (r *recorder) Emit(_ context.Context, ev ledger.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recorder) Invalidate(_ context.Context, _ uint, topic ledger.Topic) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	return r.err
}

func (r *recorder) kinds() []ledger.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ledger.EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events, r.topics = nil, nil
}

func setup(t *testing.T) (*ledger.Engine, *memstore.Store, *recorder) {
	t.Helper()
	store := memstore.New()
	rec := &recorder{}
	eng := ledger.NewEngine(store, ledger.Config{Emitter: rec, Invalidator: rec})
	return eng, store, rec
}

func addProduct(t *testing.T, store *memstore.Store, owner uint, name string, stock int) models.Product {
	t.Helper()
	return store.AddProduct(models.Product{UserID: owner, Name: name, Price: decimal.NewFromInt(10), Stock: stock})
}

func stockOf(t *testing.T, store *memstore.Store, id uint) int {
	t.Helper()
	p, ok := store.Product(id)
	require.True(t, ok, "product %d missing", id)
	return p.Stock
}

func line(productID uint, qty int, price int64) ledger.LineInput {
	return ledger.LineInput{ProductID: productID, Quantity: qty, UnitPrice: decimal.NewFromInt(price)}
}

func sale(lines ...ledger.LineInput) ledger.SaleInput {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return ledger.SaleInput{Items: lines, Total: total}
}

func purchase(lines ...ledger.LineInput) ledger.PurchaseInput {
	s := sale(lines...)
	return ledger.PurchaseInput{Items: s.Items, Total: s.Total}
}

func TestScenarioSaleHitsLowStockThenZero(t *testing.T) {
	eng, store, rec := setup(t)
	ctx := context.Background()
	p := addProduct(t, store, tenant, "Widget", 10)

	_, err := eng.CreateSale(ctx, tenant, sale(line(p.ID, 5, 10)))
	require.NoError(t, err)
	assert.Equal(t, 5, stockOf(t, store, p.ID))
	require.Equal(t, []ledger.EventKind{ledger.EventSaleSuccess, ledger.EventLowStock}, rec.kinds())
	low := rec.events[1].Payload.(ledger.LowStock)
	assert.Equal(t, "Widget", low.ProductName)
	assert.Equal(t, 5, low.ResultingStock)

	rec.reset()
	_, err = eng.CreateSale(ctx, tenant, sale(line(p.ID, 5, 10)))
	require.NoError(t, err)
	assert.Equal(t, 0, stockOf(t, store, p.ID))
	assert.Equal(t, []ledger.EventKind{ledger.EventSaleSuccess}, rec.kinds(), "stock of exactly zero must not warn")
}

func TestScenarioPurchaseThenDelete(t *testing.T) {
	eng, store, rec := setup(t)
	ctx := context.Background()
	p := addProduct(t, store, tenant, "Bolt", 0)

	in := ledger.PurchaseInput{Items: []ledger.LineInput{line(p.ID, 20, 1000)}, Total: decimal.NewFromInt(20000)}
	pu, err := eng.CreatePurchase(ctx, tenant, in)
	require.NoError(t, err)
	assert.Equal(t, 20, stockOf(t, store, p.ID))
	require.Len(t, rec.events, 1)
	ok := rec.events[0].Payload.(ledger.PurchaseSuccess)
	assert.Equal(t, pu.ID, ok.ID)
	assert.True(t, ok.TotalAmount.Equal(decimal.NewFromInt(20000)))

	require.NoError(t, eng.DeletePurchase(ctx, tenant, pu.ID))
	assert.Equal(t, 0, stockOf(t, store, p.ID))
	_, err = eng.GetPurchase(ctx, tenant, pu.ID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	_, purchases := store.Counts()
	assert.Zero(t, purchases)
}

func TestScenarioUpdateNetsDeltas(t *testing.T) {
	eng, store, rec := setup(t)
	ctx := context.Background()
	p := addProduct(t, store, tenant, "Gear", 100)

	s, err := eng.CreateSale(ctx, tenant, sale(line(p.ID, 5, 10)))
	require.NoError(t, err)
	require.Equal(t, 95, stockOf(t, store, p.ID))

	writes := 0
	store.BeforeStockWrite = func(uint) error { writes++; return nil }
	updated, err := eng.UpdateSale(ctx, tenant, s.ID, sale(line(p.ID, 3, 10)))
	require.NoError(t, err)
	assert.Equal(t, 97, stockOf(t, store, p.ID))
	assert.Equal(t, 1, writes, "reversal and application must be a single write")
	require.Len(t, updated.Items, 1)
	assert.Equal(t, 3, updated.Items[0].Quantity)
	assert.True(t, updated.TotalAmount.Equal(decimal.NewFromInt(30)))
	assert.Contains(t, rec.topics, ledger.TopicSalesList)
}

func TestUpdateDoesNotWarnOnIntermediateState(t *testing.T) {
	eng, store, rec := setup(t)
	ctx := context.Background()
	p := addProduct(t, store, tenant, "Gear", 8)

	s, err := eng.CreateSale(ctx, tenant, sale(line(p.ID, 6, 1)))
	require.NoError(t, err)
	require.Equal(t, 2, stockOf(t, store, p.ID))
	rec.reset()

	// Net delta is -1, so stock moves 2 -> 1 in one write.
	_, err = eng.UpdateSale(ctx, tenant, s.ID, sale(line(p.ID, 7, 1)))
	require.NoError(t, err)
	assert.Equal(t, 1, stockOf(t, store, p.ID))
	assert.Equal(t, []ledger.EventKind{ledger.EventLowStock}, rec.kinds())

	// Lowering the quantity raises stock and must not warn.
	rec.reset()
	_, err = eng.UpdateSale(ctx, tenant, s.ID, sale(line(p.ID, 4, 1)))
	require.NoError(t, err)
	assert.Equal(t, 4, stockOf(t, store, p.ID))
	assert.Empty(t, rec.kinds())
}

func TestUpdateIdempotence(t *testing.T) {
	eng, store, _ := setup(t)
	ctx := context.Background()
	a := addProduct(t, store, tenant, "A", 50)
	b := addProduct(t, store, tenant, "B", 50)
	in := sale(line(a.ID, 2, 5), line(b.ID, 3, 5), line(a.ID, 1, 5))

	s, err := eng.CreateSale(ctx, tenant, in)
	require.NoError(t, err)
	require.Equal(t, 47, stockOf(t, store, a.ID))
	require.Equal(t, 47, stockOf(t, store, b.ID))

	writes := 0
	store.BeforeStockWrite = func(uint) error { writes++; return nil }
	_, err = eng.UpdateSale(ctx, tenant, s.ID, in)
	require.NoError(t, err)
	assert.Equal(t, 47, stockOf(t, store, a.ID))
	assert.Equal(t, 47, stockOf(t, store, b.ID))
	assert.Zero(t, writes)
}

func TestReversibility(t *testing.T) {
	eng, store, _ := setup(t)
	ctx := context.Background()
	a := addProduct(t, store, tenant, "A", 12)
	b := addProduct(t, store, tenant, "B", 3)

	s, err := eng.CreateSale(ctx, tenant, sale(line(a.ID, 4, 1), line(b.ID, 3, 1)))
	require.NoError(t, err)
	require.NoError(t, eng.DeleteSale(ctx, tenant, s.ID))
	assert.Equal(t, 12, stockOf(t, store, a.ID))
	assert.Equal(t, 3, stockOf(t, store, b.ID))
	sales, _ := store.Counts()
	assert.Zero(t, sales)
}

func TestConservationAcrossMixedOperations(t *testing.T) {
	eng, store, _ := setup(t)
	ctx := context.Background()
	p := addProduct(t, store, tenant, "P", 40)
	q := addProduct(t, store, tenant, "Q", 0)
	applied := map[uint]int{}

	pu, err := eng.CreatePurchase(ctx, tenant, purchase(line(p.ID, 10, 2), line(q.ID, 30, 2)))
	require.NoError(t, err)
	applied[p.ID] += 10
	applied[q.ID] += 30

	s1, err := eng.CreateSale(ctx, tenant, sale(line(p.ID, 7, 3), line(q.ID, 4, 3)))
	require.NoError(t, err)
	applied[p.ID] -= 7
	applied[q.ID] -= 4

	_, err = eng.UpdateSale(ctx, tenant, s1.ID, sale(line(q.ID, 9, 3)))
	require.NoError(t, err)
	applied[p.ID] += 7
	applied[q.ID] += 4 - 9

	_, err = eng.UpdatePurchase(ctx, tenant, pu.ID, purchase(line(p.ID, 15, 2), line(q.ID, 30, 2)))
	require.NoError(t, err)
	applied[p.ID] += 5

	s2, err := eng.CreateSale(ctx, tenant, sale(line(p.ID, 20, 3)))
	require.NoError(t, err)
	applied[p.ID] -= 20
	require.NoError(t, eng.DeleteSale(ctx, tenant, s2.ID))
	applied[p.ID] += 20

	assert.Equal(t, 40+applied[p.ID], stockOf(t, store, p.ID))
	assert.Equal(t, 0+applied[q.ID], stockOf(t, store, q.ID))
	assert.Equal(t, 55, stockOf(t, store, p.ID))
	assert.Equal(t, 21, stockOf(t, store, q.ID))
}

func TestAtomicityOnMidwayFailure(t *testing.T) {
	eng, store, rec := setup(t)
	ctx := context.Background()
	a := addProduct(t, store, tenant, "A", 10)
	b := addProduct(t, store, tenant, "B", 10)
	c := addProduct(t, store, tenant, "C", 10)

	store.BeforeStockWrite = func(id uint) error {
		if id == c.ID {
			return errors.New("disk on fire")
		}
		return nil
	}
	_, err := eng.CreateSale(ctx, tenant, sale(line(a.ID, 1, 1), line(b.ID, 1, 1), line(c.ID, 1, 1)))
	require.Error(t, err)
	assert.Equal(t, ledger.CodePersistence, ledger.CodeOf(err))
	assert.ErrorIs(t, err, ledger.ErrPersistence)
	for _, id := range []uint{a.ID, b.ID, c.ID} {
		assert.Equal(t, 10, stockOf(t, store, id))
	}
	sales, _ := store.Counts()
	assert.Zero(t, sales)
	assert.Empty(t, rec.events, "nothing is published for a rolled back unit")
	assert.Empty(t, rec.topics)
}

func TestMissingProductFailsWholeOperation(t *testing.T) {
	eng, store, _ := setup(t)
	ctx := context.Background()
	a := addProduct(t, store, tenant, "A", 10)

	_, err := eng.CreatePurchase(ctx, tenant, purchase(line(a.ID, 5, 1), line(9999, 1, 1)))
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	assert.Equal(t, 10, stockOf(t, store, a.ID))
	_, purchases := store.Counts()
	assert.Zero(t, purchases)
}

func TestInsufficientStockIsValidation(t *testing.T) {
	eng, store, _ := setup(t)
	ctx := context.Background()
	a := addProduct(t, store, tenant, "A", 2)

	_, err := eng.CreateSale(ctx, tenant, sale(line(a.ID, 3, 1)))
	assert.ErrorIs(t, err, ledger.ErrInsufficientStock)
	assert.Equal(t, ledger.CodeValidation, ledger.CodeOf(err))
	assert.Equal(t, 2, stockOf(t, store, a.ID))
}

func TestDeletePurchaseAfterStockSoldFails(t *testing.T) {
	eng, store, _ := setup(t)
	ctx := context.Background()
	a := addProduct(t, store, tenant, "A", 0)

	pu, err := eng.CreatePurchase(ctx, tenant, purchase(line(a.ID, 10, 1)))
	require.NoError(t, err)
	_, err = eng.CreateSale(ctx, tenant, sale(line(a.ID, 8, 1)))
	require.NoError(t, err)

	err = eng.DeletePurchase(ctx, tenant, pu.ID)
	assert.ErrorIs(t, err, ledger.ErrInsufficientStock)
	assert.Equal(t, 2, stockOf(t, store, a.ID))
	_, purchases := store.Counts()
	assert.Equal(t, 1, purchases)
}

func TestTenantIsolation(t *testing.T) {
	eng, store, _ := setup(t)
	ctx := context.Background()
	other := uint(2)
	mine := addProduct(t, store, tenant, "Mine", 10)
	theirs := addProduct(t, store, other, "Theirs", 10)

	s, err := eng.CreateSale(ctx, tenant, sale(line(mine.ID, 1, 1)))
	require.NoError(t, err)

	_, err = eng.GetSale(ctx, other, s.ID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	_, err = eng.UpdateSale(ctx, other, s.ID, sale(line(theirs.ID, 1, 1)))
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	assert.ErrorIs(t, eng.DeleteSale(ctx, other, s.ID), ledger.ErrNotFound)

	list, err := eng.ListSales(ctx, other, ledger.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = eng.CreateSale(ctx, tenant, sale(line(theirs.ID, 1, 1)))
	assert.ErrorIs(t, err, ledger.ErrNotFound, "another tenant's product is not visible")
	assert.Equal(t, 10, stockOf(t, store, theirs.ID))
	assert.Equal(t, 9, stockOf(t, store, mine.ID))
}

func TestUnauthenticated(t *testing.T) {
	eng, _, _ := setup(t)
	ctx := context.Background()

	_, err := eng.CreateSale(ctx, 0, sale(line(1, 1, 1)))
	assert.ErrorIs(t, err, ledger.ErrUnauthenticated)
	_, err = eng.CreatePurchase(ctx, 0, purchase(line(1, 1, 1)))
	assert.ErrorIs(t, err, ledger.ErrUnauthenticated)
	_, err = eng.UpdateSale(ctx, 0, 1, sale(line(1, 1, 1)))
	assert.ErrorIs(t, err, ledger.ErrUnauthenticated)
	_, err = eng.UpdatePurchase(ctx, 0, 1, purchase(line(1, 1, 1)))
	assert.ErrorIs(t, err, ledger.ErrUnauthenticated)
	assert.ErrorIs(t, eng.DeleteSale(ctx, 0, 1), ledger.ErrUnauthenticated)
	assert.ErrorIs(t, eng.DeletePurchase(ctx, 0, 1), ledger.ErrUnauthenticated)
	_, err = eng.ListSales(ctx, 0, ledger.ListOptions{})
	assert.ErrorIs(t, err, ledger.ErrUnauthenticated)
	_, err = eng.GetPurchase(ctx, 0, 1)
	assert.Equal(t, ledger.CodeUnauthenticated, ledger.CodeOf(err))
}

func TestValidation(t *testing.T) {
	eng, store, _ := setup(t)
	ctx := context.Background()
	a := addProduct(t, store, tenant, "A", 10)

	_, err := eng.CreateSale(ctx, tenant, ledger.SaleInput{Total: decimal.Zero})
	require.ErrorIs(t, err, ledger.ErrValidation)
	var le *ledger.Error
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "required", le.Violations["items"])

	_, err = eng.CreateSale(ctx, tenant, ledger.SaleInput{
		Items: []ledger.LineInput{{ProductID: a.ID, Quantity: 0, UnitPrice: decimal.NewFromInt(-1)}},
		Total: decimal.NewFromInt(-5),
	})
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "must_be_positive", le.Violations["items[0].quantity"])
	assert.Equal(t, "must_not_be_negative", le.Violations["items[0].unit_price"])
	assert.Equal(t, "must_not_be_negative", le.Violations["total"])
	assert.Equal(t, 10, stockOf(t, store, a.ID))
}

type acceptAll struct{}

func (acceptAll) Validate([]ledger.LineInput, decimal.Decimal) validation.Violations { return nil }

func TestOversizedQuantitiesCannotWrapStock(t *testing.T) {
	eng, store, rec := setup(t)
	ctx := context.Background()
	p := addProduct(t, store, tenant, "Widget", 10)
	huge := []ledger.LineInput{line(p.ID, math.MaxInt, 1), line(p.ID, math.MaxInt-1, 1)}

	_, err := eng.CreatePurchase(ctx, tenant, purchase(huge...))
	assert.Equal(t, ledger.CodeValidation, ledger.CodeOf(err))
	_, err = eng.CreateSale(ctx, tenant, sale(huge...))
	assert.Equal(t, ledger.CodeValidation, ledger.CodeOf(err))
	assert.Equal(t, 10, stockOf(t, store, p.ID))
	assert.Empty(t, rec.kinds())

	open := ledger.NewEngine(store, ledger.Config{Validator: acceptAll{}})
	_, err = open.CreatePurchase(ctx, tenant, purchase(huge...))
	require.ErrorIs(t, err, ledger.ErrQuantityOutOfRange)
	assert.Equal(t, ledger.CodeValidation, ledger.CodeOf(err))
	_, err = open.CreateSale(ctx, tenant, sale(huge...))
	require.ErrorIs(t, err, ledger.ErrQuantityOutOfRange)
	assert.Equal(t, 10, stockOf(t, store, p.ID))
}

func TestQuantityAndMoneyBounds(t *testing.T) {
	eng, store, _ := setup(t)
	ctx := context.Background()
	p := addProduct(t, store, tenant, "Widget", 10)

	_, err := eng.CreatePurchase(ctx, tenant, purchase(line(p.ID, ledger.MaxLineQuantity+1, 1)))
	var le *ledger.Error
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "too_large", le.Violations["items[0].quantity"])

	_, err = eng.CreateSale(ctx, tenant, ledger.SaleInput{
		Items: []ledger.LineInput{{ProductID: p.ID, Quantity: 1, UnitPrice: decimal.RequireFromString("0.005")}},
		Total: decimal.RequireFromString("0.01"),
	})
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "too_many_decimals", le.Violations["items[0].unit_price"])

	_, err = eng.CreateSale(ctx, tenant, ledger.SaleInput{
		Items: []ledger.LineInput{line(p.ID, 1, 1)},
		Total: decimal.New(1, 12),
	})
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "too_large", le.Violations["total"])

	_, err = eng.CreateSale(ctx, tenant, sale(line(p.ID, 1, 1)))
	require.NoError(t, err)
	assert.Equal(t, 9, stockOf(t, store, p.ID))
}

func TestEmitterFailureDoesNotRollBack(t *testing.T) {
	store := memstore.New()
	rec := &recorder{err: errors.New("broker down")}
	eng := ledger.NewEngine(store, ledger.Config{Emitter: rec, Invalidator: rec})
	p := addProduct(t, store, tenant, "A", 10)

	s, err := eng.CreateSale(context.Background(), tenant, sale(line(p.ID, 6, 1)))
	require.NoError(t, err)
	assert.NotZero(t, s.ID)
	assert.Equal(t, 4, stockOf(t, store, p.ID))
	assert.Len(t, rec.events, 2)
}

type panicEmitter struct{}

func (panicEmitter) Emit(context.Context, ledger.Event) error { panic("boom") }

func TestEmitterPanicIsContained(t *testing.T) {
	store := memstore.New()
	eng := ledger.NewEngine(store, ledger.Config{Emitter: panicEmitter{}})
	p := addProduct(t, store, tenant, "A", 10)

	_, err := eng.CreateSale(context.Background(), tenant, sale(line(p.ID, 1, 1)))
	require.NoError(t, err)
	assert.Equal(t, 9, stockOf(t, store, p.ID))
}

func TestConfigurableThresholdKeepsZeroExclusion(t *testing.T) {
	store := memstore.New()
	rec := &recorder{}
	eng := ledger.NewEngine(store, ledger.Config{Emitter: rec, LowStockThreshold: 10})
	require.Equal(t, 10, eng.LowStockThreshold())
	p := addProduct(t, store, tenant, "A", 20)

	_, err := eng.CreateSale(context.Background(), tenant, sale(line(p.ID, 10, 1)))
	require.NoError(t, err)
	assert.Contains(t, rec.kinds(), ledger.EventLowStock)

	rec.reset()
	_, err = eng.CreateSale(context.Background(), tenant, sale(line(p.ID, 10, 1)))
	require.NoError(t, err)
	assert.NotContains(t, rec.kinds(), ledger.EventLowStock)
}

func TestCacheTopics(t *testing.T) {
	eng, store, rec := setup(t)
	ctx := context.Background()
	p := addProduct(t, store, tenant, "A", 10)

	_, err := eng.CreatePurchase(ctx, tenant, purchase(line(p.ID, 1, 1)))
	require.NoError(t, err)
	assert.Equal(t, []ledger.Topic{ledger.TopicPurchasesList, ledger.TopicProducts}, rec.topics)

	rec.reset()
	_, err = eng.CreateSale(ctx, tenant, sale(line(p.ID, 1, 1)))
	require.NoError(t, err)
	assert.Equal(t, []ledger.Topic{ledger.TopicSalesList, ledger.TopicProducts}, rec.topics)
}

func TestPurchaseSupplierMustBelongToTenant(t *testing.T) {
	eng, store, _ := setup(t)
	ctx := context.Background()
	p := addProduct(t, store, tenant, "A", 0)
	mine := store.AddSupplier(models.Supplier{UserID: tenant, Name: "Acme"})
	theirs := store.AddSupplier(models.Supplier{UserID: 2, Name: "Other"})

	in := purchase(line(p.ID, 3, 1))
	in.SupplierID = &theirs.ID
	_, err := eng.CreatePurchase(ctx, tenant, in)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	assert.Equal(t, 0, stockOf(t, store, p.ID))

	in.SupplierID = &mine.ID
	in.InvoiceRef = "INV-42"
	pu, err := eng.CreatePurchase(ctx, tenant, in)
	require.NoError(t, err)
	got, err := eng.GetPurchase(ctx, tenant, pu.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Supplier)
	assert.Equal(t, "Acme", got.Supplier.Name)
	assert.Equal(t, "INV-42", got.InvoiceRef)
	require.NotNil(t, got.Items[0].Product)
	assert.Equal(t, "A", got.Items[0].Product.Name)
}

func TestListOrderedByDateDesc(t *testing.T) {
	eng, store, _ := setup(t)
	ctx := context.Background()
	p := addProduct(t, store, tenant, "A", 100)
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	for _, d := range []int{2, 0, 1} {
		in := sale(line(p.ID, 1, 1))
		in.Date = base.AddDate(0, 0, d)
		_, err := eng.CreateSale(ctx, tenant, in)
		require.NoError(t, err)
	}
	list, err := eng.ListSales(ctx, tenant, ledger.ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, list[0].TransactionDate.Equal(base.AddDate(0, 0, 2)))
	assert.True(t, list[2].TransactionDate.Equal(base))

	asc, err := eng.ListSales(ctx, tenant, ledger.ListOptions{Order: ledger.OrderAsc, Limit: 2})
	require.NoError(t, err)
	require.Len(t, asc, 2)
	assert.True(t, asc[0].TransactionDate.Equal(base))
}

func TestUpdateKeepsDateUnlessGiven(t *testing.T) {
	eng, store, _ := setup(t)
	ctx := context.Background()
	p := addProduct(t, store, tenant, "A", 100)
	when := time.Date(2024, 12, 24, 8, 0, 0, 0, time.UTC)

	in := sale(line(p.ID, 1, 1))
	in.Date = when
	s, err := eng.CreateSale(ctx, tenant, in)
	require.NoError(t, err)

	updated, err := eng.UpdateSale(ctx, tenant, s.ID, sale(line(p.ID, 2, 1)))
	require.NoError(t, err)
	assert.True(t, updated.TransactionDate.Equal(when))
}

func TestConcurrentSalesDoNotLoseUpdates(t *testing.T) {
	eng, store, _ := setup(t)
	p := addProduct(t, store, tenant, "Hot", 100)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := eng.CreateSale(context.Background(), tenant, sale(line(p.ID, 2, 1)))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 60, stockOf(t, store, p.ID))
}
