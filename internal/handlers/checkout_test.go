package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/diewo77/go-shop/internal/models"
	"github.com/diewo77/go-shop/internal/services"
	"go.uber.org/zap"
)

func TestShopShowListsActiveProducts(t *testing.T) {
	e := newEnv(t)
	rr := httptest.NewRecorder()
	e.shop.Show(rr, get("/shop"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"Mleko", "4,50", "Chleb", `name="mleko"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("shop page misses %q", want)
		}
	}
	if strings.Contains(body, `name="kawa"`) {
		t.Fatalf("unavailable product must not be orderable")
	}
}

func TestShopInvalidQuantityCreatesNothing(t *testing.T) {
	e := newEnv(t)
	rr := httptest.NewRecorder()
	e.shop.Submit(rr, postForm("/shop", url.Values{"mleko": {"abc"}, "csrf_token": {"x"}}))

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `data-field="mleko"`) || !strings.Contains(body, "Niepoprawna ilość") {
		t.Fatalf("error for mleko not shown: %s", body)
	}
	if !strings.Contains(body, `value="abc"`) {
		t.Fatalf("input not echoed")
	}
	if cookie(t, rr, checkoutCookie) != nil {
		t.Fatalf("no checkout must be started")
	}
	if n := countOrders(t, e.db); n != 0 {
		t.Fatalf("expected no order, got %d", n)
	}
	if e.sender.count() != 0 {
		t.Fatalf("no e-mail may be sent")
	}
}

func TestShopRejectsUnknownAndUnavailable(t *testing.T) {
	e := newEnv(t)
	rr := httptest.NewRecorder()
	e.shop.Submit(rr, postForm("/shop", url.Values{"kawa": {"1"}, "herbata": {"2"}, "mleko": {"1"}}))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Produkt jest niedostępny") || !strings.Contains(body, "Nieznany produkt") {
		t.Fatalf("expected both errors: %s", body)
	}
}

func TestShopEmptyOrder(t *testing.T) {
	e := newEnv(t)
	rr := httptest.NewRecorder()
	e.shop.Submit(rr, postForm("/shop", url.Values{"mleko": {""}, "chleb": {"0"}}))
	if rr.Code != http.StatusUnprocessableEntity || !strings.Contains(rr.Body.String(), "Zamówienie jest puste") {
		t.Fatalf("expected empty order error, got %d", rr.Code)
	}
}

func TestCheckoutFlow(t *testing.T) {
	e := newEnv(t)

	// shop -> order
	rr := httptest.NewRecorder()
	e.shop.Submit(rr, postForm("/shop", url.Values{"mleko": {"2,5"}, "chleb": {"1"}}))
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/order" {
		t.Fatalf("expected redirect to /order, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	session := cookie(t, rr, checkoutCookie)
	if session == nil {
		t.Fatalf("checkout cookie missing")
	}

	// returning to the shop keeps the quantities
	rr = httptest.NewRecorder()
	e.shop.Show(rr, get("/shop", session))
	if !strings.Contains(rr.Body.String(), `value="2,5"`) {
		t.Fatalf("quantities not restored")
	}

	// confirmation page
	rr = httptest.NewRecorder()
	e.checkout.Show(rr, get("/order", session))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"14,45", "05.06.2024", "11,25", "2,50 l", "1 szt."} {
		if !strings.Contains(body, want) {
			t.Fatalf("confirmation misses %q:\n%s", want, body)
		}
	}

	// place
	form := validCustomer()
	form.Set("email", "klient@example.com")
	form.Set("remember", "1")
	rr = httptest.NewRecorder()
	e.checkout.Submit(rr, postForm("/order", form, session))
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/summary" {
		t.Fatalf("expected redirect to /summary, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	remembered := cookie(t, rr, customerCookie)
	if remembered == nil || remembered.Value == "" {
		t.Fatalf("customer data not remembered")
	}

	var ord models.Order
	if err := e.db.First(&ord).Error; err != nil {
		t.Fatalf("order not stored: %v", err)
	}
	if ord.Total.StringFixed(2) != "14.45" || ord.PaymentMethod != "blik" || ord.City != "Kraków" {
		t.Fatalf("unexpected order %+v", ord)
	}
	if len(ord.Lines()) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(ord.Lines()))
	}
	if e.sender.count() != 2 {
		t.Fatalf("expected seller and buyer mail, got %d", e.sender.count())
	}

	// the priced basket cannot be ordered twice
	rr = httptest.NewRecorder()
	e.checkout.Submit(rr, postForm("/order", validCustomer(), session))
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/shop" {
		t.Fatalf("second submit should go back to the shop, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	if n := countOrders(t, e.db); n != 1 {
		t.Fatalf("expected one order, got %d", n)
	}

	// summary is shown once
	rr = httptest.NewRecorder()
	e.checkout.Summary(rr, get("/summary", session))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), ord.DisplayID) {
		t.Fatalf("summary should show %s, got %d", ord.DisplayID, rr.Code)
	}
	rr = httptest.NewRecorder()
	e.checkout.Summary(rr, get("/summary", session))
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("summary after flush should redirect, got %d", rr.Code)
	}

	// the remembered data prefills the next confirmation
	rr = httptest.NewRecorder()
	e.shop.Submit(rr, postForm("/shop", url.Values{"mleko": {"1"}}))
	next := cookie(t, rr, checkoutCookie)
	rr = httptest.NewRecorder()
	e.checkout.Show(rr, get("/order", next, remembered))
	if !strings.Contains(rr.Body.String(), `value="Kraków"`) {
		t.Fatalf("remembered city not prefilled")
	}
}

func TestCheckoutValidation(t *testing.T) {
	e := newEnv(t)
	rr := httptest.NewRecorder()
	e.shop.Submit(rr, postForm("/shop", url.Values{"mleko": {"1"}}))
	session := cookie(t, rr, checkoutCookie)

	form := validCustomer()
	form.Del("phone")
	form.Set("email", "not-an-email")
	form.Set("payment_method", "bitcoin")
	rr = httptest.NewRecorder()
	e.checkout.Submit(rr, postForm("/order", form, session))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"Pole wymagane", "Niepoprawny adres e-mail", "Niedozwolona wartość", `value="Kraków"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q", want)
		}
	}
	if n := countOrders(t, e.db); n != 0 {
		t.Fatalf("expected no order, got %d", n)
	}
	if cookie(t, rr, customerCookie) != nil {
		t.Fatalf("invalid data must not be remembered")
	}
}

func TestCheckoutWithoutBasketRedirects(t *testing.T) {
	e := newEnv(t)
	for _, tc := range []struct {
		name string
		req  *http.Request
		h    http.HandlerFunc
	}{
		{"show", get("/order"), e.checkout.Show},
		{"submit", postForm("/order", validCustomer()), e.checkout.Submit},
		{"summary", get("/summary"), e.checkout.Summary},
		{"forged", get("/order", &http.Cookie{Name: checkoutCookie, Value: "9b2d6c52-6f0e-4a8c-9f3f-0c6d7f1f2a11.bad"}), e.checkout.Show},
	} {
		rr := httptest.NewRecorder()
		tc.h(rr, tc.req)
		if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/shop" {
			t.Fatalf("%s: expected redirect to /shop, got %d %q", tc.name, rr.Code, rr.Header().Get("Location"))
		}
	}
}

func TestForgetCustomerWhenNotAsked(t *testing.T) {
	e := newEnv(t)
	rr := httptest.NewRecorder()
	e.shop.Submit(rr, postForm("/shop", url.Values{"chleb": {"2"}}))
	session := cookie(t, rr, checkoutCookie)

	rr = httptest.NewRecorder()
	e.checkout.Submit(rr, postForm("/order", validCustomer(), session))
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 got %d", rr.Code)
	}
	c := cookie(t, rr, customerCookie)
	if c == nil || c.MaxAge >= 0 {
		t.Fatalf("customer cookie should be cleared, got %+v", c)
	}
	// no buyer e-mail given: seller notice only
	if e.sender.count() != 1 {
		t.Fatalf("expected 1 mail, got %d", e.sender.count())
	}
}

type failingPlacer struct {
	calls int
}

func (p *failingPlacer) Place(context.Context, services.PlaceInput) (*models.Order, error) {
	p.calls++
	return nil, services.ErrStorage
}

func TestCheckoutFailedPlacementKeepsBasket(t *testing.T) {
	e := newEnv(t)
	rr := httptest.NewRecorder()
	e.shop.Submit(rr, postForm("/shop", url.Values{"mleko": {"1"}}))
	session := cookie(t, rr, checkoutCookie)

	placer := &failingPlacer{}
	h := NewCheckoutHandler(e.checkouts, placer, zap.NewNop())
	rr = httptest.NewRecorder()
	h.Submit(rr, postForm("/order", validCustomer(), session))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rr.Code)
	}

	// the basket is still there for a retry, which the real service places once
	rr = httptest.NewRecorder()
	e.checkout.Submit(rr, postForm("/order", validCustomer(), session))
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/summary" {
		t.Fatalf("retry should place the order, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	if n := countOrders(t, e.db); n != 1 {
		t.Fatalf("expected one order, got %d", n)
	}
}

// nestedPlacer submits the same checkout again while the first order is being placed.
type nestedPlacer struct {
	calls  int
	second func() *httptest.ResponseRecorder
	inner  *httptest.ResponseRecorder
}

func (p *nestedPlacer) Place(context.Context, services.PlaceInput) (*models.Order, error) {
	p.calls++
	if p.calls == 1 {
		p.inner = p.second()
	}
	return &models.Order{ID: 42, DisplayID: "000-042", PaymentMethod: models.PaymentCash}, nil
}

func TestCheckoutSubmitWhilePlacingIsRejected(t *testing.T) {
	e := newEnv(t)
	rr := httptest.NewRecorder()
	e.shop.Submit(rr, postForm("/shop", url.Values{"mleko": {"1"}}))
	session := cookie(t, rr, checkoutCookie)

	placer := &nestedPlacer{}
	h := NewCheckoutHandler(e.checkouts, placer, zap.NewNop())
	placer.second = func() *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		h.Submit(rr, postForm("/order", validCustomer(), session))
		return rr
	}

	rr = httptest.NewRecorder()
	h.Submit(rr, postForm("/order", validCustomer(), session))
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/summary" {
		t.Fatalf("first submit should place, got %d", rr.Code)
	}
	if placer.inner == nil || placer.inner.Header().Get("Location") != "/shop" {
		t.Fatalf("second submit should go back to the shop")
	}
	if placer.calls != 1 {
		t.Fatalf("expected one placement, got %d", placer.calls)
	}
}
