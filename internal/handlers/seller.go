package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/go-shop/internal/amount"
	"github.com/diewo77/go-shop/internal/delivery"
	"github.com/diewo77/go-shop/internal/metrics"
	"github.com/diewo77/go-shop/internal/models"
	"github.com/diewo77/go-shop/internal/photos"
	"github.com/diewo77/go-shop/internal/store"
	"github.com/diewo77/go-shop/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxUpload = 10 << 20

// prices are stored as decimal(6,2)
var maxPrice = decimal.RequireFromString("9999.99")

// SellerHandler serves the authenticated seller area.
type SellerHandler struct {
	catalog *store.Catalog
	orders  *store.Orders
	photos  photos.Store
	loc     *time.Location
	log     *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

func NewSellerHandler(catalog *store.Catalog, orders *store.Orders, ph photos.Store, loc *time.Location, log *zap.Logger) *SellerHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &SellerHandler{catalog: catalog, orders: orders, photos: ph, loc: loc, log: log, Now: time.Now}
}

func (h *SellerHandler) today() time.Time {
	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	return delivery.Normalize(now.In(h.loc))
}

func (h *SellerHandler) Menu(w http.ResponseWriter, r *http.Request) {
	render(w, r, h.log, http.StatusOK, "seller/menu.html", nil)
}

// productRow is one editable line of the bulk product form.
type productRow struct {
	ID        uint
	Name      string
	Price     string
	Unit      string
	Available bool
	SameDay   bool
	Photo     string
}

func rowFor(p *models.Product) productRow {
	return productRow{
		ID:        p.ID,
		Name:      p.Name,
		Price:     amount.FormatAmount(p.Price),
		Unit:      p.Unit,
		Available: p.Available,
		SameDay:   p.SameDay(),
		Photo:     p.Photo(),
	}
}

func (h *SellerHandler) productsPage(w http.ResponseWriter, r *http.Request, status int, rows []productRow, errs validation.Violations) {
	if errs == nil {
		errs = validation.Violations{}
	}
	render(w, r, h.log, status, "seller/products.html", map[string]any{
		"Rows":   rows,
		"Units":  models.Units,
		"Errors": errs,
	})
}

func (h *SellerHandler) Products(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListActive(r.Context())
	if err != nil {
		serverError(w, r, h.log, "list products", err)
		return
	}
	rows := make([]productRow, 0, len(products))
	for i := range products {
		rows = append(rows, rowFor(&products[i]))
	}
	h.productsPage(w, r, http.StatusOK, rows, nil)
}

// parsePrice validates a catalog price entered by the seller.
func parsePrice(field, text string, v validation.Violations) decimal.Decimal {
	if strings.TrimSpace(text) == "" {
		v.Add(field, "required")
		return decimal.Zero
	}
	d, err := amount.ParseAmount(text)
	if err != nil || d.GreaterThan(maxPrice) {
		v.Add(field, "invalid_amount")
		return decimal.Zero
	}
	return d
}

func deliveryDays(sameDay bool, current int) int {
	if sameDay {
		return 0
	}
	if current > 0 {
		return current
	}
	return 1
}

// SaveProducts applies the bulk edit form. Fields are named "<field>-<id>";
// nothing is saved unless every row is valid.
func (h *SellerHandler) SaveProducts(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	products, err := h.catalog.ListActive(r.Context())
	if err != nil {
		serverError(w, r, h.log, "list products", err)
		return
	}

	v := validation.Violations{}
	rows := make([]productRow, 0, len(products))
	var changed []models.Product
	for i := range products {
		p := products[i]
		id := strconv.FormatUint(uint64(p.ID), 10)
		if _, posted := r.PostForm["name-"+id]; !posted {
			rows = append(rows, rowFor(&p))
			continue
		}
		row := productRow{
			ID:        p.ID,
			Name:      strings.TrimSpace(r.PostForm.Get("name-" + id)),
			Price:     strings.TrimSpace(r.PostForm.Get("price-" + id)),
			Unit:      r.PostForm.Get("unit-" + id),
			Available: r.PostForm.Get("available-"+id) != "",
			SameDay:   r.PostForm.Get("same_day-"+id) != "",
			Photo:     p.Photo(),
		}
		rows = append(rows, row)

		validation.Required("name-"+id, row.Name, v)
		validation.MaxLength("name-"+id, row.Name, 255, v)
		validation.OneOf("unit-"+id, row.Unit, models.Units, v)
		price := parsePrice("price-"+id, row.Price, v)

		p.Name = models.CapitalizeName(row.Name)
		p.Key = models.KeyFromName(row.Name)
		p.Price = price
		p.Unit = row.Unit
		p.Available = row.Available
		p.DeliveryDays = deliveryDays(row.SameDay, p.DeliveryDays)
		changed = append(changed, p)
	}
	if !v.Empty() {
		h.productsPage(w, r, http.StatusUnprocessableEntity, rows, v)
		return
	}

	if err := h.catalog.SaveAll(r.Context(), changed); err != nil {
		if errors.Is(err, store.ErrConflict) {
			h.productsPage(w, r, http.StatusConflict, rows, validation.Violations{"name": "name_taken"})
			return
		}
		serverError(w, r, h.log, "save products", err)
		return
	}
	h.log.Info("products updated", zap.Int("count", len(changed)))
	http.Redirect(w, r, "/seller/products", http.StatusSeeOther)
}

type productForm struct {
	Name      string `form:"name" validate:"required,max=255"`
	Price     string `form:"price" validate:"required"`
	Unit      string `form:"unit" validate:"required"`
	Available bool   `form:"available"`
	SameDay   bool   `form:"same_day"`
}

func (h *SellerHandler) newProductPage(w http.ResponseWriter, r *http.Request, status int, form productForm, errs validation.Violations) {
	if errs == nil {
		errs = validation.Violations{}
	}
	render(w, r, h.log, status, "seller/product_new.html", map[string]any{
		"Form":   form,
		"Units":  models.Units,
		"Errors": errs,
	})
}

func (h *SellerHandler) NewProduct(w http.ResponseWriter, r *http.Request) {
	h.newProductPage(w, r, http.StatusOK, productForm{Unit: models.UnitPiece, Available: true, SameDay: true}, nil)
}

// parseUpload parses a multipart or urlencoded form.
func parseUpload(r *http.Request) error {
	err := r.ParseMultipartForm(maxUpload)
	if errors.Is(err, http.ErrNotMultipart) {
		return nil
	}
	return err
}

// savePhoto stores the "photo" upload if one was sent.
func (h *SellerHandler) savePhoto(r *http.Request, v validation.Violations) (string, error) {
	f, _, err := r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer f.Close()
	url, err := h.photos.Save(f)
	switch {
	case errors.Is(err, photos.ErrInvalidImage):
		v.Add("photo", "invalid_image")
		return "", nil
	case errors.Is(err, photos.ErrImageTooLarge):
		v.Add("photo", "image_too_large")
		return "", nil
	}
	return url, err
}

func (h *SellerHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	if err := parseUpload(r); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := productForm{
		Name:      strings.TrimSpace(r.FormValue("name")),
		Price:     strings.TrimSpace(r.FormValue("price")),
		Unit:      r.FormValue("unit"),
		Available: r.FormValue("available") != "",
		SameDay:   r.FormValue("same_day") != "",
	}
	v, err := validation.Struct(form)
	if err != nil {
		serverError(w, r, h.log, "validate product form", err)
		return
	}
	price := decimal.Zero
	if form.Price != "" {
		price = parsePrice("price", form.Price, v)
	}
	if form.Unit != "" {
		validation.OneOf("unit", form.Unit, models.Units, v)
	}
	if !v.Empty() {
		h.newProductPage(w, r, http.StatusUnprocessableEntity, form, v)
		return
	}

	photoURL, err := h.savePhoto(r, v)
	if err != nil {
		serverError(w, r, h.log, "save photo", err)
		return
	}
	if !v.Empty() {
		h.newProductPage(w, r, http.StatusUnprocessableEntity, form, v)
		return
	}

	p := &models.Product{
		Name:         models.CapitalizeName(form.Name),
		Key:          models.KeyFromName(form.Name),
		Price:        price,
		Unit:         form.Unit,
		DeliveryDays: deliveryDays(form.SameDay, 0),
		Available:    form.Available,
	}
	if photoURL != "" {
		p.PhotoURL = &photoURL
	}
	if err := h.catalog.Create(r.Context(), p); err != nil {
		if photoURL != "" {
			_ = h.photos.Remove(photoURL)
		}
		if errors.Is(err, store.ErrConflict) {
			h.newProductPage(w, r, http.StatusConflict, form, validation.Violations{"name": "name_taken"})
			return
		}
		serverError(w, r, h.log, "create product", err)
		return
	}
	h.log.Info("product created", zap.String("key", p.Key))
	http.Redirect(w, r, "/seller/products", http.StatusSeeOther)
}

// product loads the {id} product or writes a 404.
func (h *SellerHandler) product(w http.ResponseWriter, r *http.Request) (*models.Product, bool) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r, h.log)
		return nil, false
	}
	p, err := h.catalog.Find(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		notFound(w, r, h.log)
		return nil, false
	}
	if err != nil {
		serverError(w, r, h.log, "find product", err)
		return nil, false
	}
	return p, true
}

func (h *SellerHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := h.product(w, r)
	if !ok {
		return
	}
	render(w, r, h.log, http.StatusOK, "seller/product_delete.html", map[string]any{"Product": p})
}

// DeleteProduct hides the product from the shop. Past orders keep their
// snapshot of it.
func (h *SellerHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := h.product(w, r)
	if !ok {
		return
	}
	if err := h.catalog.SoftDelete(r.Context(), p.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, r, h.log)
			return
		}
		serverError(w, r, h.log, "delete product", err)
		return
	}
	h.log.Info("product deleted", zap.String("key", p.Key))
	http.Redirect(w, r, "/seller/products", http.StatusSeeOther)
}

func (h *SellerHandler) EditPhoto(w http.ResponseWriter, r *http.Request) {
	p, ok := h.product(w, r)
	if !ok {
		return
	}
	render(w, r, h.log, http.StatusOK, "seller/product_photo.html", map[string]any{
		"Product": p,
		"Errors":  validation.Violations{},
	})
}

func (h *SellerHandler) SavePhoto(w http.ResponseWriter, r *http.Request) {
	p, ok := h.product(w, r)
	if !ok {
		return
	}
	if err := parseUpload(r); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	v := validation.Violations{}
	url, err := h.savePhoto(r, v)
	if err != nil {
		serverError(w, r, h.log, "save photo", err)
		return
	}
	if url == "" && v.Empty() {
		v.Add("photo", "required")
	}
	if !v.Empty() {
		render(w, r, h.log, http.StatusUnprocessableEntity, "seller/product_photo.html", map[string]any{
			"Product": p,
			"Errors":  v,
		})
		return
	}
	old := p.Photo()
	if err := h.catalog.SetPhoto(r.Context(), p.ID, url); err != nil {
		_ = h.photos.Remove(url)
		serverError(w, r, h.log, "set photo", err)
		return
	}
	if old != "" {
		if err := h.photos.Remove(old); err != nil {
			h.log.Warn("remove old photo", zap.String("url", old), zap.Error(err))
		}
	}
	http.Redirect(w, r, "/seller/products", http.StatusSeeOther)
}

// orderRow is a pending order as listed for the seller.
type orderRow struct {
	Order    models.Order
	Customer models.Customer
	Today    bool
}

// Orders lists orders still to be delivered, earliest first.
func (h *SellerHandler) Orders(w http.ResponseWriter, r *http.Request) {
	today := h.today()
	pending, err := h.orders.ListPending(r.Context(), today)
	if err != nil {
		serverError(w, r, h.log, "list orders", err)
		return
	}
	rows := make([]orderRow, 0, len(pending))
	for i := range pending {
		rows = append(rows, orderRow{
			Order:    pending[i],
			Customer: pending[i].Customer(),
			Today:    pending[i].DeliversOn(today),
		})
	}
	render(w, r, h.log, http.StatusOK, "seller/orders.html", map[string]any{"Orders": rows})
}

func (h *SellerHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, "paid", h.orders.MarkPaid)
}

func (h *SellerHandler) MarkCompleted(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, "completed", h.orders.MarkCompleted)
}

func (h *SellerHandler) setFlag(w http.ResponseWriter, r *http.Request, flag string, set func(ctx context.Context, id uint, v bool) error) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r, h.log)
		return
	}
	value := r.FormValue("value") != "0"
	if err := set(r.Context(), id, value); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, r, h.log)
			return
		}
		serverError(w, r, h.log, "update order", err)
		return
	}
	metrics.RecordOrderOperation(flag, true)
	h.log.Info("order updated", zap.Uint("id", id), zap.String("flag", flag), zap.Bool("value", value))
	http.Redirect(w, r, "/seller/orders", http.StatusSeeOther)
}
