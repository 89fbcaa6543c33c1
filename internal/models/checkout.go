package models

import (
	"time"

	"gorm.io/datatypes"
)

// CheckoutSession keeps the transient state carried between the shop,
// confirmation and summary pages.
type CheckoutSession struct {
	ID        string         `gorm:"primaryKey;size:36"`
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time      `gorm:"not null;index"`
	Priced    datatypes.JSON `gorm:"type:json"`
	Placed    datatypes.JSON `gorm:"type:json"`
}

// Expired reports whether the session is past its expiry at now.
func (s *CheckoutSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
