package db

import (
	"context"
	"errors"

	"github.com/diewo77/go-shop/internal/models"
	"github.com/diewo77/go-shop/internal/store"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SeedOptions controls what Seed creates.
type SeedOptions struct {
	SellerUsername string
	SellerPassword string
	DemoCatalog    bool
}

var demoCatalog = []models.Product{
	{Name: "Chleb Żytni", Price: decimal.RequireFromString("6.50"), Unit: models.UnitPiece},
	{Name: "Bułka Kajzerka", Price: decimal.RequireFromString("0.90"), Unit: models.UnitPiece},
	{Name: "Mleko", Price: decimal.RequireFromString("4.50"), Unit: "l"},
	{Name: "Ser Żółty", Price: decimal.RequireFromString("32.00"), Unit: "kg"},
	{Name: "Jajka", Price: decimal.RequireFromString("12.00"), Unit: "opak."},
	{Name: "Tort Czekoladowy", Price: decimal.RequireFromString("80.00"), Unit: models.UnitPiece, DeliveryDays: 2},
}

// Seed creates the seller account and, optionally, a demo catalog. Existing
// rows are left untouched so it can run on every start.
func Seed(db *gorm.DB, opts SeedOptions) error {
	ctx := context.Background()
	if opts.SellerUsername != "" && opts.SellerPassword != "" {
		if _, err := store.NewUsers(db).Ensure(ctx, opts.SellerUsername, opts.SellerPassword); err != nil {
			return err
		}
	}
	if !opts.DemoCatalog {
		return nil
	}
	catalog := store.NewCatalog(db)
	for _, p := range demoCatalog {
		p.Key = models.KeyFromName(p.Name)
		p.Available = true
		_, err := catalog.FindByKey(ctx, p.Key)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err := catalog.Create(ctx, &p); err != nil {
			return err
		}
	}
	return nil
}
