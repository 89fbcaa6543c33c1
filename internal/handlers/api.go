package handlers

import (
	"net/http"

	"github.com/diewo77/go-shop/httpx"
	"github.com/diewo77/go-shop/internal/amount"
	"github.com/diewo77/go-shop/internal/pricing"
	"go.uber.org/zap"
)

// APIHandler exposes the catalog as JSON.
type APIHandler struct {
	catalog pricing.Catalog
	log     *zap.Logger
}

func NewAPIHandler(catalog pricing.Catalog, log *zap.Logger) *APIHandler {
	return &APIHandler{catalog: catalog, log: log}
}

type apiProduct struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Unit      string `json:"unit"`
	SameDay   bool   `json:"same_day"`
	Available bool   `json:"available"`
	PhotoURL  string `json:"photo_url,omitempty"`
}

// Products lists the active catalog with prices in comma notation.
func (h *APIHandler) Products(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListActive(r.Context())
	if err != nil {
		h.log.Error("list products", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "server_error", nil)
		return
	}
	out := make([]apiProduct, 0, len(products))
	for i := range products {
		p := &products[i]
		out = append(out, apiProduct{
			Key:       p.Key,
			Name:      p.Name,
			Price:     amount.FormatAmount(p.Price),
			Unit:      p.Unit,
			SameDay:   p.SameDay(),
			Available: p.Available,
			PhotoURL:  p.Photo(),
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": out, "total": len(out)})
}
