// Package pricing validates a customer's quantities against the catalog and
// computes line totals, the order total and the delivery date.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/diewo77/go-shop/internal/amount"
	"github.com/diewo77/go-shop/internal/delivery"
	"github.com/diewo77/go-shop/internal/models"
	"github.com/diewo77/go-shop/internal/store"
	"github.com/diewo77/go-shop/validation"
	"github.com/shopspring/decimal"
)

// Catalog is the product lookup the engine prices against.
type Catalog interface {
	FindByKey(ctx context.Context, key string) (*models.Product, error)
	ListActive(ctx context.Context) ([]models.Product, error)
}

// PricedOrder is the result of a successful pricing run.
type PricedOrder struct {
	Lines []models.OrderLine `json:"lines"`
	// Total is the exact sum of line totals rounded once to 2 places.
	Total        decimal.Decimal `json:"total"`
	SameDay      bool            `json:"same_day"`
	DeliveryDate time.Time       `json:"delivery_date"`
}

// TotalString renders the total in comma notation.
func (p *PricedOrder) TotalString() string {
	return amount.FormatAmount(p.Total)
}

// DeliveryDateString renders the delivery date as dd.mm.yyyy.
func (p *PricedOrder) DeliveryDateString() string {
	return delivery.FormatDate(p.DeliveryDate)
}

// Engine prices raw orders.
type Engine struct {
	Catalog  Catalog
	Delivery *delivery.Calculator
	// Now defaults to time.Now.
	Now func() time.Time
}

func NewEngine(catalog Catalog, calc *delivery.Calculator) *Engine {
	return &Engine{Catalog: catalog, Delivery: calc, Now: time.Now}
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// MaxTotal is the largest order or line total an order row can hold.
var MaxTotal = decimal.RequireFromString("999999.99")

// ValidateAndPrice prices every entry of raw. Any invalid entry rejects the
// whole order with a *ValidationError keyed by product key; other errors come
// from the catalog.
func (e *Engine) ValidateAndPrice(ctx context.Context, raw RawOrder) (*PricedOrder, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	v := validation.Violations{}
	var lines []models.OrderLine
	total := decimal.Zero
	anyDelayed := false

	for _, key := range keys {
		q, ok := amount.ParseQuantity(raw[key])
		if !ok {
			v.Add(key, "invalid_quantity")
			continue
		}
		if q.IsZero() {
			continue
		}
		p, err := e.Catalog.FindByKey(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			v.Add(key, "unknown_product")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("pricing: find product %q: %w", key, err)
		}
		if !p.Available {
			v.Add(key, "product_unavailable")
			continue
		}
		if p.IsPieceCounted() && q.LessThan(decimal.NewFromInt(1)) {
			// nothing billable is left after flooring
			v.Add(key, "invalid_quantity")
			continue
		}
		line := PriceLine(p, q)
		if line.LineTotal.GreaterThan(MaxTotal) {
			v.Add(key, "quantity_too_large")
			continue
		}
		total = total.Add(line.LineTotal)
		if !p.SameDay() {
			anyDelayed = true
		}
		lines = append(lines, line)
	}

	if v.Empty() && len(lines) == 0 {
		v.Add("order", "empty_order")
	}
	if v.Empty() && total.Round(2).GreaterThan(MaxTotal) {
		v.Add("order", "total_too_large")
	}
	if !v.Empty() {
		return nil, &ValidationError{Fields: v}
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Name < lines[j].Name })
	sameDay := !anyDelayed
	return &PricedOrder{
		Lines:        lines,
		Total:        total.Round(2),
		SameDay:      sameDay,
		DeliveryDate: e.Delivery.Date(e.now(), sameDay),
	}, nil
}

// PriceLine builds the order line for quantity q of p. Piece-counted products
// bill only whole pieces; other units bill the exact quantity.
func PriceLine(p *models.Product, q decimal.Decimal) models.OrderLine {
	billed := q
	if p.IsPieceCounted() {
		billed = q.Floor()
	}
	return models.OrderLine{
		Name:            p.Name,
		Key:             p.Key,
		Unit:            p.Unit,
		UnitPrice:       p.Price,
		Quantity:        q,
		DisplayQuantity: DisplayQuantity(q, p.Unit),
		LineTotal:       billed.Mul(p.Price),
		DeliveryDays:    p.DeliveryDays,
		PhotoURL:        p.Photo(),
	}
}

// DisplayQuantity formats q for the customer: whole numbers and piece-counted
// quantities without decimals, everything else with two decimals.
func DisplayQuantity(q decimal.Decimal, unit string) string {
	switch {
	case unit == models.UnitPiece:
		return amount.FormatInteger(q.Floor())
	case q.Equal(q.Truncate(0)):
		return amount.FormatInteger(q)
	default:
		return amount.FormatAmount(q)
	}
}
