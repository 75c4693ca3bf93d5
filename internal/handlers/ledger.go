package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/diewo77/stock-ledger/internal/auth"
	"github.com/diewo77/stock-ledger/internal/httpx"
	"github.com/diewo77/stock-ledger/internal/ledger"
	"github.com/diewo77/stock-ledger/internal/models"
	"github.com/diewo77/stock-ledger/internal/tenant"
	"go.uber.org/zap"
)

// Ledger is the engine surface the HTTP layer calls.
type Ledger interface {
	CreateSale(ctx context.Context, tenantID uint, in ledger.SaleInput) (*models.Sale, error)
	UpdateSale(ctx context.Context, tenantID, id uint, in ledger.SaleInput) (*models.Sale, error)
	DeleteSale(ctx context.Context, tenantID, id uint) error
	ListSales(ctx context.Context, tenantID uint, opts ledger.ListOptions) ([]models.Sale, error)
	GetSale(ctx context.Context, tenantID, id uint) (*models.Sale, error)

	CreatePurchase(ctx context.Context, tenantID uint, in ledger.PurchaseInput) (*models.Purchase, error)
	UpdatePurchase(ctx context.Context, tenantID, id uint, in ledger.PurchaseInput) (*models.Purchase, error)
	DeletePurchase(ctx context.Context, tenantID, id uint) error
	ListPurchases(ctx context.Context, tenantID uint, opts ledger.ListOptions) ([]models.Purchase, error)
	GetPurchase(ctx context.Context, tenantID, id uint) (*models.Purchase, error)
}

const (
	defaultLimit = 50
	maxLimit     = 200
	maxPage      = 1_000_000
)

// base holds what sale and purchase handlers share.
type base struct {
	engine  Ledger
	tenants tenant.Resolver
	log     *zap.Logger
}

// tenantID resolves the effective tenant of the request principal. It
// writes the error response itself and returns false on failure.
func (b base) tenantID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthenticated", nil)
		return 0, false
	}
	tid, err := b.tenants.EffectiveTenant(r.Context(), uid)
	if errors.Is(err, tenant.ErrUnknownPrincipal) {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthenticated", nil)
		return 0, false
	}
	if err != nil {
		b.log.Error("resolve tenant", zap.Uint("principal", uid), zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "persistence_failure", nil)
		return 0, false
	}
	return tid, true
}

func (b base) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var details any
	var le *ledger.Error
	if errors.As(err, &le) && !le.Violations.Empty() {
		details = le.Violations
	}
	switch ledger.CodeOf(err) {
	case ledger.CodeUnauthenticated:
		httpx.JSONError(w, http.StatusUnauthorized, "unauthenticated", nil)
	case ledger.CodeValidation:
		msg := "validation_failed"
		if errors.Is(err, ledger.ErrInsufficientStock) {
			msg = "insufficient_stock"
		}
		httpx.JSONError(w, http.StatusUnprocessableEntity, msg, details)
	case ledger.CodeNotFound:
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case ledger.CodeConflict:
		httpx.JSONError(w, http.StatusConflict, "conflict", nil)
	default:
		b.log.Error("ledger operation failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", httpx.RequestIDFromContext(r.Context())),
			zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "persistence_failure", nil)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return 0, false
	}
	return uint(id), true
}

func badRequest(w http.ResponseWriter, err error) {
	httpx.JSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
}

// listOptions reads ?page=&limit=&order= from the query string.
func listOptions(r *http.Request) (ledger.ListOptions, int) {
	q := r.URL.Query()
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	order := ledger.OrderDesc
	if q.Get("order") == string(ledger.OrderAsc) {
		order = ledger.OrderAsc
	}
	return ledger.ListOptions{Order: order, Limit: limit, Offset: (page - 1) * limit}, page
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}
