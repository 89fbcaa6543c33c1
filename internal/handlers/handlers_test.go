package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/diewo77/go-shop/internal/checkout"
	"github.com/diewo77/go-shop/internal/db"
	"github.com/diewo77/go-shop/internal/delivery"
	"github.com/diewo77/go-shop/internal/events"
	"github.com/diewo77/go-shop/internal/mailer"
	"github.com/diewo77/go-shop/internal/models"
	"github.com/diewo77/go-shop/internal/photos"
	"github.com/diewo77/go-shop/internal/pricing"
	"github.com/diewo77/go-shop/internal/services"
	"github.com/diewo77/go-shop/internal/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// wednesday morning, before the cutoff
var testNow = time.Date(2024, time.June, 5, 8, 0, 0, 0, time.UTC)

type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (s *recordingSender) Send(_ context.Context, m mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, m)
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type testEnv struct {
	db        *gorm.DB
	catalog   *store.Catalog
	orders    *store.Orders
	checkouts *checkout.Store
	sender    *recordingSender
	shop      *ShopHandler
	checkout  *CheckoutHandler
	seller    *SellerHandler
	auth      *AuthHandler
	api       *APIHandler
	products  map[string]*models.Product
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Use a unique in-memory database per test to avoid cross-test collisions.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), db.GormConfig(false))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb := setupTestDB(t)
	log := zap.NewNop()
	e := &testEnv{
		db:        gdb,
		catalog:   store.NewCatalog(gdb),
		orders:    store.NewOrders(gdb),
		checkouts: checkout.New(gdb, time.Hour),
		sender:    &recordingSender{},
		products:  map[string]*models.Product{},
	}
	e.checkouts.Now = func() time.Time { return testNow }

	seed := []struct {
		name, price, unit string
		days              int
		available         bool
	}{
		{"Mleko", "4.50", "l", 0, true},
		{"Chleb", "3.20", models.UnitPiece, 0, true},
		{"Ser", "25.00", "kg", 1, true},
		{"Kawa", "18.00", "opak.", 0, false},
	}
	for _, s := range seed {
		p := &models.Product{
			Name:         s.name,
			Key:          models.KeyFromName(s.name),
			Price:        decimal.RequireFromString(s.price),
			Unit:         s.unit,
			DeliveryDays: s.days,
			Available:    s.available,
		}
		if err := e.catalog.Create(context.Background(), p); err != nil {
			t.Fatalf("seed %s: %v", s.name, err)
		}
		e.products[p.Key] = p
	}

	engine := pricing.NewEngine(e.catalog, delivery.NewCalculator(time.UTC))
	engine.Now = func() time.Time { return testNow }
	svc := services.NewOrderService(e.orders, e.sender, mailer.Composer{ContactPhone: "794 797 797"}, "sprzedawca@example.com", events.NopPublisher{}, log)

	e.shop = NewShopHandler(e.catalog, engine, e.checkouts, log)
	e.checkout = NewCheckoutHandler(e.checkouts, svc, log)
	e.seller = NewSellerHandler(e.catalog, e.orders, photos.Store{Dir: t.TempDir(), URLPrefix: "/media/"}, time.UTC, log)
	e.seller.Now = func() time.Time { return testNow }
	e.auth = NewAuthHandler(store.NewUsers(gdb), log)
	e.api = NewAPIHandler(e.catalog, log)
	return e
}

func postForm(target string, form url.Values, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func get(target string, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func cookie(t *testing.T, rr *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func countOrders(t *testing.T, gdb *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := gdb.Model(&models.Order{}).Count(&n).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	return n
}

func validCustomer() url.Values {
	return url.Values{
		"city":           {"Kraków"},
		"street":         {"Długa"},
		"house_number":   {"5"},
		"flat_number":    {"2"},
		"phone":          {"600 100 200"},
		"payment_method": {"blik"},
	}
}
