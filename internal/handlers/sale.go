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

type saleRequest struct {
	Items           []ledger.LineInput `json:"items"`
	Total           decimal.Decimal    `json:"total"`
	InvoiceRef      string             `json:"invoice_ref"`
	TransactionDate *time.Time         `json:"transaction_date"`
}

func (req saleRequest) input() ledger.SaleInput {
	in := ledger.SaleInput{Items: req.Items, Total: req.Total, InvoiceRef: req.InvoiceRef}
	if req.TransactionDate != nil {
		in.Date = *req.TransactionDate
	}
	return in
}

type SaleHandler struct {
	base
}

func NewSaleHandler(engine Ledger, tenants tenant.Resolver, log *zap.Logger) *SaleHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SaleHandler{base{engine: engine, tenants: tenants, log: log}}
}

func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	tid, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	opts, page := listOptions(r)
	sales, err := h.engine.ListSales(r.Context(), tid, opts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if sales == nil {
		sales = []models.Sale{}
	}
	httpx.JSON(w, http.StatusOK, listResponse[models.Sale]{Items: sales, Page: page, Limit: opts.Limit})
}

func (h *SaleHandler) View(w http.ResponseWriter, r *http.Request) {
	tid, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sale, err := h.engine.GetSale(r.Context(), tid, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	tid, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	var req saleRequest
	if err := httpx.Decode(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	sale, err := h.engine.CreateSale(r.Context(), tid, req.input())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *SaleHandler) Update(w http.ResponseWriter, r *http.Request) {
	tid, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req saleRequest
	if err := httpx.Decode(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	sale, err := h.engine.UpdateSale(r.Context(), tid, id, req.input())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *SaleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tid, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.engine.DeleteSale(r.Context(), tid, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SaleHandler) Register(mux *http.ServeMux, mws ...func(http.Handler) http.Handler) {
	mux.Handle("GET /sales", httpx.Chain(http.HandlerFunc(h.List), mws...))
	mux.Handle("POST /sales", httpx.Chain(http.HandlerFunc(h.Create), mws...))
	mux.Handle("GET /sales/{id}", httpx.Chain(http.HandlerFunc(h.View), mws...))
	mux.Handle("POST /sales/{id}", httpx.Chain(http.HandlerFunc(h.Update), mws...))
	mux.Handle("POST /sales/{id}/delete", httpx.Chain(http.HandlerFunc(h.Delete), mws...))
}
