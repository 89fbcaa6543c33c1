package store

import (
	"context"
	"fmt"
	"time"

	"github.com/diewo77/go-shop/internal/models"
	"gorm.io/gorm"
)

// Orders persists placed orders. Apart from the paid and completed flags an
// order is never updated.
type Orders struct {
	db *gorm.DB
}

func NewOrders(db *gorm.DB) *Orders {
	return &Orders{db: db}
}

func (o *Orders) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	if err := o.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Insert stores ord. A taken id returns ErrConflict.
func (o *Orders) Insert(ctx context.Context, ord *models.Order) error {
	if err := o.db.WithContext(ctx).Create(ord).Error; err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("order %d: %w", ord.ID, ErrConflict)
		}
		return err
	}
	return nil
}

func (o *Orders) Find(ctx context.Context, id uint) (*models.Order, error) {
	var ord models.Order
	if err := o.db.WithContext(ctx).First(&ord, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &ord, nil
}

// ListPending returns orders not yet completed whose delivery date is on or
// after asOf, earliest delivery first.
func (o *Orders) ListPending(ctx context.Context, asOf time.Time) ([]models.Order, error) {
	var out []models.Order
	err := o.db.WithContext(ctx).
		Where("completed = ? AND delivery_date >= ?", false, asOf).
		Order("delivery_date, created_at, id").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (o *Orders) MarkPaid(ctx context.Context, id uint, paid bool) error {
	return o.setFlag(ctx, id, "paid", paid)
}

func (o *Orders) MarkCompleted(ctx context.Context, id uint, completed bool) error {
	return o.setFlag(ctx, id, "completed", completed)
}

func (o *Orders) setFlag(ctx context.Context, id uint, column string, v bool) error {
	return o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ord models.Order
		if err := tx.Select("id").First(&ord, id).Error; err != nil {
			return notFound(err)
		}
		return tx.Model(&models.Order{}).Where("id = ?", id).Update(column, v).Error
	})
}
