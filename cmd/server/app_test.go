package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/stock-ledger/internal/auth"
	"github.com/diewo77/stock-ledger/internal/config"
	"github.com/diewo77/stock-ledger/internal/models"
	"go.uber.org/zap"
)

func memoryApp(t *testing.T) (*App, *Deps) {
	t.Helper()
	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: "memory"},
		Ledger:   config.LedgerConfig{LowStockThreshold: 5, TenantCacheTTL: time.Minute},
	}
	d, err := buildDeps(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("deps: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	if err := d.migrate(cfg); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := d.seed(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return NewApp(d, zap.NewNop()), d
}

func TestAppHealth(t *testing.T) {
	app, _ := memoryApp(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, w.Code)
		}
		if w.Header().Get("X-Request-Id") == "" {
			t.Fatalf("%s: missing request id", path)
		}
	}
}

func TestAppSaleOnMemoryStore(t *testing.T) {
	app, d := memoryApp(t)

	body := `{"items":[{"product_id":2,"quantity":4,"unit_price":"30"}],"total":"120"}`
	req := httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+auth.Token(1))
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var sale models.Sale
	if err := json.Unmarshal(w.Body.Bytes(), &sale); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sale.UserID != 1 {
		t.Fatalf("expected tenant 1, got %d", sale.UserID)
	}
	gadget, ok := d.mem.Product(2)
	if !ok || gadget.Stock != 4 {
		t.Fatalf("expected gadget stock 4, got %d (found=%v)", gadget.Stock, ok)
	}

	w = httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sales", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous list: expected 401 got %d", w.Code)
	}
}

func sqliteApp(t *testing.T) (*App, *Deps) {
	t.Helper()
	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "ledger.db")},
		Ledger:   config.LedgerConfig{LowStockThreshold: 5, TenantCacheTTL: time.Hour},
	}
	d, err := buildDeps(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("deps: %v", err)
	}
	t.Cleanup(func() {
		auth.SetUserVerifier(nil)
		_ = d.Close()
	})
	if err := d.migrate(cfg); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := d.seed(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return NewApp(d, zap.NewNop()), d
}

func listSales(t *testing.T, app *App, uid uint) (int, []models.Sale) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/sales", nil)
	req.Header.Set("Authorization", "Bearer "+auth.Token(uid))
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	var body struct {
		Items []models.Sale `json:"items"`
	}
	if w.Code == http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return w.Code, body.Items
}

func TestAppTracksMovedAndDeletedUsers(t *testing.T) {
	app, d := sqliteApp(t)
	var owner, staff models.User
	if err := d.dbConn.Where("email = ?", "owner@example.com").First(&owner).Error; err != nil {
		t.Fatalf("owner: %v", err)
	}
	if err := d.dbConn.Where("email = ?", "staff@example.com").First(&staff).Error; err != nil {
		t.Fatalf("staff: %v", err)
	}
	var gadget models.Product
	if err := d.dbConn.Where("code = ?", "GAD-01").First(&gadget).Error; err != nil {
		t.Fatalf("gadget: %v", err)
	}

	body := fmt.Sprintf(`{"items":[{"product_id":%d,"quantity":1,"unit_price":"30"}],"total":"30"}`, gadget.ID)
	req := httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+auth.Token(staff.ID))
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("staff sale: expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	if code, items := listSales(t, app, staff.ID); code != http.StatusOK || len(items) != 1 {
		t.Fatalf("staff list: code=%d items=%d", code, len(items))
	}

	// Staff becomes an owner of its own empty ledger.
	if err := d.dbConn.Model(&staff).Update("owner_id", nil).Error; err != nil {
		t.Fatalf("detach staff: %v", err)
	}
	if code, items := listSales(t, app, staff.ID); code != http.StatusOK || len(items) != 0 {
		t.Fatalf("moved staff: expected own empty ledger, code=%d items=%d", code, len(items))
	}

	if err := d.dbConn.Delete(&staff).Error; err != nil {
		t.Fatalf("delete staff: %v", err)
	}
	if code, _ := listSales(t, app, staff.ID); code != http.StatusUnauthorized {
		t.Fatalf("deleted staff: expected 401 got %d", code)
	}
	if code, items := listSales(t, app, owner.ID); code != http.StatusOK || len(items) != 1 {
		t.Fatalf("owner list: code=%d items=%d", code, len(items))
	}
}
