package store

import (
	"context"
	"fmt"

	"github.com/diewo77/go-shop/internal/models"
	"gorm.io/gorm"
)

// Catalog reads and edits products. Soft-deleted products are invisible to
// every read except Find.
type Catalog struct {
	db *gorm.DB
}

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

func (c *Catalog) FindByKey(ctx context.Context, key string) (*models.Product, error) {
	var p models.Product
	err := c.db.WithContext(ctx).Where("product_key = ? AND deleted = ?", key, false).First(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// ListActive returns the non-deleted products sorted by name.
func (c *Catalog) ListActive(ctx context.Context) ([]models.Product, error) {
	var ps []models.Product
	if err := c.db.WithContext(ctx).Where("deleted = ?", false).Order("name").Find(&ps).Error; err != nil {
		return nil, err
	}
	return ps, nil
}

func (c *Catalog) Find(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := c.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (c *Catalog) keyTaken(tx *gorm.DB, key string, exceptID uint) (bool, error) {
	var n int64
	q := tx.Model(&models.Product{}).Where("product_key = ? AND deleted = ?", key, false)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Create inserts p. Names are unique among non-deleted products; a clash
// returns ErrConflict.
func (c *Catalog) Create(ctx context.Context, p *models.Product) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := c.keyTaken(tx, p.Key, 0)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("product %q: %w", p.Key, ErrConflict)
		}
		return tx.Create(p).Error
	})
}

// SaveAll updates several products at once, all or nothing. Keys must be
// unique within the batch and against the products outside it, so names can
// be swapped in one edit.
func (c *Catalog) SaveAll(ctx context.Context, ps []models.Product) error {
	ids := make([]uint, 0, len(ps))
	seen := make(map[string]bool, len(ps))
	for _, p := range ps {
		if seen[p.Key] {
			return fmt.Errorf("product %q: %w", p.Key, ErrConflict)
		}
		seen[p.Key] = true
		ids = append(ids, p.ID)
	}
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range ps {
			var n int64
			err := tx.Model(&models.Product{}).
				Where("product_key = ? AND deleted = ? AND id NOT IN ?", ps[i].Key, false, ids).
				Count(&n).Error
			if err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("product %q: %w", ps[i].Key, ErrConflict)
			}
		}
		for i := range ps {
			if err := tx.Save(&ps[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *Catalog) SoftDelete(ctx context.Context, id uint) error {
	res := c.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND deleted = ?", id, false).
		Update("deleted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Catalog) SetPhoto(ctx context.Context, id uint, url string) error {
	res := c.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND deleted = ?", id, false).
		Update("photo_url", url)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
