package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UnitPiece is the piece-counted unit: only whole pieces are billed.
const UnitPiece = "szt."

// Units is the vocabulary a product unit is chosen from.
var Units = []string{UnitPiece, "kg", "dag", "g", "l", "ml", "opak."}

// IsUnit reports whether u belongs to Units.
func IsUnit(u string) bool {
	for _, v := range Units {
		if v == u {
			return true
		}
	}
	return false
}

// Product is a catalog entry offered in the shop.
type Product struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name string `gorm:"size:255;not null" json:"name"`
	// Key is the normalized lookup name used as the shop form field.
	Key   string          `gorm:"column:product_key;size:255;not null;index" json:"key"`
	Price decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"price"`
	Unit  string          `gorm:"size:7;not null" json:"unit"`
	// DeliveryDays is 0 for products that can be delivered the same day.
	DeliveryDays int     `gorm:"not null;default:0" json:"delivery_days"`
	Available    bool    `gorm:"not null" json:"available"`
	Deleted      bool    `gorm:"not null;default:false;index" json:"-"`
	PhotoURL     *string `gorm:"size:256" json:"photo_url,omitempty"`
}

// IsPieceCounted reports whether the product is sold in whole pieces.
func (p *Product) IsPieceCounted() bool {
	return p.Unit == UnitPiece
}

// SameDay reports whether the product can be delivered on the order day.
func (p *Product) SameDay() bool {
	return p.DeliveryDays == 0
}

// Photo returns the photo URL or an empty string.
func (p *Product) Photo() string {
	if p.PhotoURL == nil {
		return ""
	}
	return *p.PhotoURL
}

// KeyFromName lowercases name and joins its words with underscores.
func KeyFromName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}

// CapitalizeName collapses whitespace and capitalizes every word.
func CapitalizeName(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
