// Package checkout keeps the short-lived state shared by the shop,
// confirmation and summary pages, keyed by a random session id.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/go-shop/internal/models"
	"github.com/diewo77/go-shop/internal/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrNoCheckout is returned when the session is unknown, expired, or not at
// the requested stage.
var ErrNoCheckout = errors.New("checkout: no active checkout")

// Priced is stored after the shop form was priced.
type Priced struct {
	Order pricing.PricedOrder `json:"order"`
	// Raw is the submitted form, shown again if the customer returns to the shop.
	Raw map[string]string `json:"raw"`
}

// Placed is stored after the order was persisted, for the summary page.
type Placed struct {
	OrderID       uint               `json:"order_id"`
	DisplayID     string             `json:"display_id"`
	Customer      models.Customer    `json:"customer"`
	PaymentMethod string             `json:"payment_method"`
	Lines         []models.OrderLine `json:"lines"`
	Total         decimal.Decimal    `json:"total"`
	DeliveryDate  time.Time          `json:"delivery_date"`
}

// Store persists checkout sessions in the database.
type Store struct {
	db  *gorm.DB
	ttl time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

func New(db *gorm.DB, ttl time.Duration) *Store {
	return &Store{db: db, ttl: ttl, Now: time.Now}
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}

func (s *Store) load(ctx context.Context, id string) (*models.CheckoutSession, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNoCheckout
	}
	var cs models.CheckoutSession
	if err := s.db.WithContext(ctx).First(&cs, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoCheckout
		}
		return nil, err
	}
	if cs.Expired(s.now()) {
		return nil, ErrNoCheckout
	}
	return &cs, nil
}

// SavePriced stores p under id, replacing any earlier stage. An empty id
// starts a new session; the id in use is returned.
func (s *Store) SavePriced(ctx context.Context, id string, p Priced) (string, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("checkout: encode priced: %w", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		id = NewID()
	}
	cs := models.CheckoutSession{
		ID:        id,
		ExpiresAt: s.now().Add(s.ttl),
		Priced:    payload,
	}
	if err := s.db.WithContext(ctx).Save(&cs).Error; err != nil {
		return "", err
	}
	return id, nil
}

// LoadPriced returns the priced stage of session id.
func (s *Store) LoadPriced(ctx context.Context, id string) (*Priced, error) {
	cs, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(cs.Priced) == 0 {
		return nil, ErrNoCheckout
	}
	var p Priced
	if err := json.Unmarshal(cs.Priced, &p); err != nil {
		return nil, fmt.Errorf("checkout: decode priced: %w", err)
	}
	return &p, nil
}

// SavePlaced records the placed order and drops the priced stage, so the same
// priced basket cannot be ordered twice.
func (s *Store) SavePlaced(ctx context.Context, id string, p Placed) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("checkout: encode placed: %w", err)
	}
	return s.db.WithContext(ctx).Model(&models.CheckoutSession{}).Where("id = ?", id).
		Updates(map[string]any{"priced": nil, "placed": payload}).Error
}

// Claim takes the priced stage of session id for placing an order. The stage
// is cleared in one conditional update, so of several concurrent claims only
// one succeeds; the others get ErrNoCheckout.
func (s *Store) Claim(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNoCheckout
	}
	res := s.db.WithContext(ctx).Model(&models.CheckoutSession{}).
		Where("id = ? AND priced IS NOT NULL AND expires_at > ?", id, s.now()).
		Update("priced", nil)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return ErrNoCheckout
	}
	return nil
}

// Release puts a claimed priced stage back after the order could not be placed.
func (s *Store) Release(ctx context.Context, id string, p Priced) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("checkout: encode priced: %w", err)
	}
	return s.db.WithContext(ctx).Model(&models.CheckoutSession{}).Where("id = ?", id).
		Update("priced", datatypes.JSON(payload)).Error
}

// LoadPlaced returns the placed stage of session id.
func (s *Store) LoadPlaced(ctx context.Context, id string) (*Placed, error) {
	cs, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(cs.Placed) == 0 {
		return nil, ErrNoCheckout
	}
	var p Placed
	if err := json.Unmarshal(cs.Placed, &p); err != nil {
		return nil, fmt.Errorf("checkout: decode placed: %w", err)
	}
	return &p, nil
}

// Flush removes session id.
func (s *Store) Flush(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&models.CheckoutSession{}, "id = ?", id).Error
}

// PurgeExpired deletes expired sessions and returns how many were removed.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&models.CheckoutSession{})
	return res.RowsAffected, res.Error
}
