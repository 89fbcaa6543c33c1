package handlers

import (
	"errors"
	"net/http"

	"github.com/diewo77/go-shop/internal/checkout"
	"github.com/diewo77/go-shop/internal/metrics"
	"github.com/diewo77/go-shop/internal/pricing"
	"github.com/diewo77/go-shop/validation"
	"go.uber.org/zap"
)

// ShopHandler serves the product list and prices submitted orders.
type ShopHandler struct {
	catalog   pricing.Catalog
	engine    *pricing.Engine
	checkouts *checkout.Store
	log       *zap.Logger
}

func NewShopHandler(catalog pricing.Catalog, engine *pricing.Engine, checkouts *checkout.Store, log *zap.Logger) *ShopHandler {
	return &ShopHandler{catalog: catalog, engine: engine, checkouts: checkouts, log: log}
}

func (h *ShopHandler) page(w http.ResponseWriter, r *http.Request, status int, quantities map[string]string, errs validation.Violations) {
	products, err := h.catalog.ListActive(r.Context())
	if err != nil {
		serverError(w, r, h.log, "list products", err)
		return
	}
	if quantities == nil {
		quantities = map[string]string{}
	}
	if errs == nil {
		errs = validation.Violations{}
	}
	render(w, r, h.log, status, "shop.html", map[string]any{
		"Products":   products,
		"Quantities": quantities,
		"Errors":     errs,
	})
}

// Show lists the catalog. Quantities of a basket that was priced but not yet
// ordered are filled in again.
func (h *ShopHandler) Show(w http.ResponseWriter, r *http.Request) {
	var quantities map[string]string
	if id := checkoutID(r); id != "" {
		p, err := h.checkouts.LoadPriced(r.Context(), id)
		switch {
		case err == nil:
			quantities = p.Raw
		case !errors.Is(err, checkout.ErrNoCheckout):
			h.log.Warn("load checkout", zap.Error(err))
		}
	}
	h.page(w, r, http.StatusOK, quantities, nil)
}

// Submit prices the posted quantities and moves on to the confirmation page.
// Any invalid entry sends the whole form back with the input echoed.
func (h *ShopHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.page(w, r, http.StatusBadRequest, nil, validation.Violations{"order": "invalid_field"})
		return
	}
	echo := map[string]string{}
	for k := range r.PostForm {
		echo[k] = r.PostForm.Get(k)
	}

	raw, v := pricing.ParseRawOrder(r.PostForm)
	if !v.Empty() {
		metrics.RecordOrderOperation("price", false)
		h.page(w, r, http.StatusUnprocessableEntity, echo, v)
		return
	}
	priced, err := h.engine.ValidateAndPrice(r.Context(), raw)
	if pricing.IsValidation(err) {
		metrics.RecordOrderOperation("price", false)
		h.page(w, r, http.StatusUnprocessableEntity, echo, pricing.Violations(err))
		return
	}
	if err != nil {
		serverError(w, r, h.log, "price order", err)
		return
	}
	metrics.RecordOrderOperation("price", true)

	id, err := h.checkouts.SavePriced(r.Context(), checkoutID(r), checkout.Priced{Order: *priced, Raw: raw})
	if err != nil {
		serverError(w, r, h.log, "save checkout", err)
		return
	}
	setCheckoutID(w, id)
	http.Redirect(w, r, "/order", http.StatusSeeOther)
}
