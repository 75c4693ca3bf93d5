package handlers

import (
	"net/http"
	"time"

	"github.com/diewo77/stock-ledger/internal/httpx"
	"github.com/diewo77/stock-ledger/internal/ledger"
	"github.com/diewo77/stock-ledger/internal/models"
	"github.com/diewo77/stock-ledger/internal/tenant"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// purchaseRequest items carry the unit cost in unit_price.
type purchaseRequest struct {
	Items           []ledger.LineInput `json:"items"`
	Total           decimal.Decimal    `json:"total"`
	SupplierID      *uint              `json:"supplier_id"`
	InvoiceRef      string             `json:"invoice_ref"`
	TransactionDate *time.Time         `json:"transaction_date"`
}

func (req purchaseRequest) input() ledger.PurchaseInput {
	in := ledger.PurchaseInput{
		Items:      req.Items,
		Total:      req.Total,
		SupplierID: req.SupplierID,
		InvoiceRef: req.InvoiceRef,
	}
	if req.TransactionDate != nil {
		in.Date = *req.TransactionDate
	}
	return in
}

type PurchaseHandler struct {
	base
}

func NewPurchaseHandler(engine Ledger, tenants tenant.Resolver, log *zap.Logger) *PurchaseHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &PurchaseHandler{base{engine: engine, tenants: tenants, log: log}}
}

func (h *PurchaseHandler) List(w http.ResponseWriter, r *http.Request) {
	tid, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	opts, page := listOptions(r)
	purchases, err := h.engine.ListPurchases(r.Context(), tid, opts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if purchases == nil {
		purchases = []models.Purchase{}
	}
	httpx.JSON(w, http.StatusOK, listResponse[models.Purchase]{Items: purchases, Page: page, Limit: opts.Limit})
}

func (h *PurchaseHandler) View(w http.ResponseWriter, r *http.Request) {
	tid, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.engine.GetPurchase(r.Context(), tid, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *PurchaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	tid, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	var req purchaseRequest
	if err := httpx.Decode(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	p, err := h.engine.CreatePurchase(r.Context(), tid, req.input())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *PurchaseHandler) Update(w http.ResponseWriter, r *http.Request) {
	tid, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req purchaseRequest
	if err := httpx.Decode(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	p, err := h.engine.UpdatePurchase(r.Context(), tid, id, req.input())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *PurchaseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tid, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.engine.DeletePurchase(r.Context(), tid, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PurchaseHandler) Register(mux *http.ServeMux, mws ...func(http.Handler) http.Handler) {
	mux.Handle("GET /purchases", httpx.Chain(http.HandlerFunc(h.List), mws...))
	mux.Handle("POST /purchases", httpx.Chain(http.HandlerFunc(h.Create), mws...))
	mux.Handle("GET /purchases/{id}", httpx.Chain(http.HandlerFunc(h.View), mws...))
	mux.Handle("POST /purchases/{id}", httpx.Chain(http.HandlerFunc(h.Update), mws...))
	mux.Handle("POST /purchases/{id}/delete", httpx.Chain(http.HandlerFunc(h.Delete), mws...))
}
