package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/diewo77/go-shop/internal/checkout"
	"github.com/diewo77/go-shop/internal/models"
	"github.com/diewo77/go-shop/internal/services"
	"github.com/diewo77/go-shop/validation"
	"go.uber.org/zap"
)

// OrderPlacer stores an order and notifies about it.
type OrderPlacer interface {
	Place(ctx context.Context, in services.PlaceInput) (*models.Order, error)
}

// CheckoutHandler serves the confirmation and summary pages.
type CheckoutHandler struct {
	checkouts *checkout.Store
	orders    OrderPlacer
	log       *zap.Logger
}

func NewCheckoutHandler(checkouts *checkout.Store, orders OrderPlacer, log *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkouts: checkouts, orders: orders, log: log}
}

type orderForm struct {
	City          string `form:"city" validate:"required,max=255"`
	Street        string `form:"street" validate:"required,max=255"`
	HouseNumber   string `form:"house_number" validate:"required,max=7"`
	FlatNumber    string `form:"flat_number" validate:"max=7"`
	Phone         string `form:"phone" validate:"required,phone"`
	Email         string `form:"email" validate:"omitempty,max=254,email"`
	Comments      string `form:"comments" validate:"max=511"`
	PaymentMethod string `form:"payment_method" validate:"required,oneof=cash card blik"`
	Remember      bool   `form:"remember"`
}

func parseOrderForm(r *http.Request) orderForm {
	trim := func(k string) string { return strings.TrimSpace(r.PostForm.Get(k)) }
	return orderForm{
		City:          trim("city"),
		Street:        trim("street"),
		HouseNumber:   trim("house_number"),
		FlatNumber:    trim("flat_number"),
		Phone:         trim("phone"),
		Email:         trim("email"),
		Comments:      trim("comments"),
		PaymentMethod: trim("payment_method"),
		Remember:      r.PostForm.Get("remember") != "",
	}
}

func (f orderForm) customer() models.Customer {
	return models.Customer{
		City:        f.City,
		Street:      f.Street,
		HouseNumber: f.HouseNumber,
		FlatNumber:  f.FlatNumber,
		Phone:       f.Phone,
		Email:       f.Email,
		Comments:    f.Comments,
	}
}

func (h *CheckoutHandler) page(w http.ResponseWriter, r *http.Request, status int, priced *checkout.Priced, form orderForm, errs validation.Violations) {
	if errs == nil {
		errs = validation.Violations{}
	}
	render(w, r, h.log, status, "order.html", map[string]any{
		"Order":    priced.Order,
		"Form":     form,
		"Payments": models.PaymentMethods,
		"Errors":   errs,
	})
}

// loadPriced returns the priced basket or redirects back to the shop.
func (h *CheckoutHandler) loadPriced(w http.ResponseWriter, r *http.Request) (string, *checkout.Priced, bool) {
	id := checkoutID(r)
	priced, err := h.checkouts.LoadPriced(r.Context(), id)
	if errors.Is(err, checkout.ErrNoCheckout) {
		http.Redirect(w, r, "/shop", http.StatusSeeOther)
		return "", nil, false
	}
	if err != nil {
		serverError(w, r, h.log, "load checkout", err)
		return "", nil, false
	}
	return id, priced, true
}

// Show renders the priced basket with the delivery form, prefilled from the
// remembered customer cookie.
func (h *CheckoutHandler) Show(w http.ResponseWriter, r *http.Request) {
	_, priced, ok := h.loadPriced(w, r)
	if !ok {
		return
	}
	form := orderForm{PaymentMethod: models.PaymentCash}
	if c, payment, ok := rememberedCustomer(r); ok {
		form = orderForm{
			City:          c.City,
			Street:        c.Street,
			HouseNumber:   c.HouseNumber,
			FlatNumber:    c.FlatNumber,
			Phone:         c.Phone,
			Email:         c.Email,
			PaymentMethod: payment,
			Remember:      true,
		}
	}
	h.page(w, r, http.StatusOK, priced, form, nil)
}

// Submit validates the delivery form and places the order.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, priced, ok := h.loadPriced(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.page(w, r, http.StatusBadRequest, priced, orderForm{}, validation.Violations{"order": "invalid_field"})
		return
	}
	form := parseOrderForm(r)
	v, err := validation.Struct(form)
	if err != nil {
		serverError(w, r, h.log, "validate order form", err)
		return
	}
	if !v.Empty() {
		h.page(w, r, http.StatusUnprocessableEntity, priced, form, v)
		return
	}

	if err := h.checkouts.Claim(r.Context(), id); err != nil {
		if errors.Is(err, checkout.ErrNoCheckout) {
			// placed by a concurrent request
			http.Redirect(w, r, "/shop", http.StatusSeeOther)
			return
		}
		serverError(w, r, h.log, "claim checkout", err)
		return
	}

	customer := form.customer()
	ord, err := h.orders.Place(r.Context(), services.PlaceInput{
		Priced:        priced.Order,
		Customer:      customer,
		PaymentMethod: form.PaymentMethod,
	})
	if err != nil {
		h.log.Error("place order", zap.Error(err))
		if rerr := h.checkouts.Release(r.Context(), id, *priced); rerr != nil {
			h.log.Warn("release checkout", zap.Error(rerr))
		}
		h.page(w, r, http.StatusServiceUnavailable, priced, form, validation.Violations{"order": "order_failed"})
		return
	}

	placed := checkout.Placed{
		OrderID:       ord.ID,
		DisplayID:     ord.DisplayID,
		Customer:      customer,
		PaymentMethod: ord.PaymentMethod,
		Lines:         ord.Lines(),
		Total:         ord.Total,
		DeliveryDate:  ord.DeliveryDate,
	}
	if err := h.checkouts.SavePlaced(r.Context(), id, placed); err != nil {
		// the order exists; only the summary page is lost
		h.log.Warn("save placed checkout", zap.String("order", ord.DisplayID), zap.Error(err))
	}
	if form.Remember {
		rememberCustomer(w, customer, form.PaymentMethod)
	} else {
		forgetCustomer(w)
	}
	http.Redirect(w, r, "/summary", http.StatusSeeOther)
}

// Summary shows the placed order once and then ends the checkout.
func (h *CheckoutHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id := checkoutID(r)
	placed, err := h.checkouts.LoadPlaced(r.Context(), id)
	if errors.Is(err, checkout.ErrNoCheckout) {
		http.Redirect(w, r, "/shop", http.StatusSeeOther)
		return
	}
	if err != nil {
		serverError(w, r, h.log, "load checkout", err)
		return
	}
	if err := h.checkouts.Flush(r.Context(), id); err != nil {
		h.log.Warn("flush checkout", zap.Error(err))
	}
	clearCheckoutID(w)
	render(w, r, h.log, http.StatusOK, "summary.html", map[string]any{"Placed": placed})
}
