package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Payment methods accepted at checkout.
const (
	PaymentCash = "cash"
	PaymentCard = "card"
	PaymentBlik = "blik"
)

// PaymentMethods lists the accepted payment method codes.
var PaymentMethods = []string{PaymentCash, PaymentCard, PaymentBlik}

// OrderLine is one priced product of an order. It is a snapshot taken when the
// order is priced and never follows later catalog changes.
type OrderLine struct {
	Name            string          `json:"name"`
	Key             string          `json:"key"`
	Unit            string          `json:"unit"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Quantity        decimal.Decimal `json:"quantity"`
	DisplayQuantity string          `json:"display_quantity"`
	LineTotal       decimal.Decimal `json:"line_total"`
	DeliveryDays    int             `json:"delivery_days"`
	PhotoURL        string          `json:"photo_url,omitempty"`
}

// Customer holds the delivery address and contact data given at checkout.
type Customer struct {
	City        string `json:"city"`
	Street      string `json:"street"`
	HouseNumber string `json:"house_number"`
	FlatNumber  string `json:"flat_number,omitempty"`
	Phone       string `json:"phone"`
	Email       string `json:"email,omitempty"`
	Comments    string `json:"comments,omitempty"`
}

// AddressLine renders "street house[/flat]".
func (c Customer) AddressLine() string {
	s := c.Street + " " + c.HouseNumber
	if c.FlatNumber != "" {
		s += "/" + c.FlatNumber
	}
	return s
}

// Order is a placed customer order. Only Paid and Completed change after creation.
type Order struct {
	// ID is generated server side; it is not auto-incremented.
	ID            uint                                `gorm:"primaryKey;autoIncrement:false" json:"id"`
	DisplayID     string                              `gorm:"size:7;not null" json:"display_id"`
	Total         decimal.Decimal                     `gorm:"type:decimal(8,2);not null" json:"total"`
	PaymentMethod string                              `gorm:"size:7;not null;default:'cash'" json:"payment_method"`
	Items         datatypes.JSONType[[]OrderLine]     `gorm:"not null" json:"items"`
	City          string                              `gorm:"size:255;not null" json:"city"`
	Street        string                              `gorm:"size:255;not null" json:"street"`
	HouseNumber   string                              `gorm:"size:7;not null" json:"house_number"`
	FlatNumber    *string                             `gorm:"size:7" json:"flat_number,omitempty"`
	Phone         string                              `gorm:"size:15;not null" json:"phone"`
	Email         string                              `gorm:"size:254" json:"email,omitempty"`
	Comments      string                              `gorm:"size:511;not null;default:''" json:"comments,omitempty"`
	Paid          bool                                `gorm:"not null;default:false" json:"paid"`
	Completed     bool                                `gorm:"not null;default:false;index" json:"completed"`
	CreatedAt     time.Time                           `json:"created_at"`
	DeliveryDate  time.Time                           `gorm:"type:date;not null;index" json:"delivery_date"`
}

// Lines returns the order's item snapshot.
func (o *Order) Lines() []OrderLine {
	return o.Items.Data()
}

// Customer rebuilds the customer data stored on the order.
func (o *Order) Customer() Customer {
	c := Customer{
		City:        o.City,
		Street:      o.Street,
		HouseNumber: o.HouseNumber,
		Phone:       o.Phone,
		Email:       o.Email,
		Comments:    o.Comments,
	}
	if o.FlatNumber != nil {
		c.FlatNumber = *o.FlatNumber
	}
	return c
}

// SetCustomer copies customer data onto the order.
func (o *Order) SetCustomer(c Customer) {
	o.City = c.City
	o.Street = c.Street
	o.HouseNumber = c.HouseNumber
	o.FlatNumber = nil
	if c.FlatNumber != "" {
		flat := c.FlatNumber
		o.FlatNumber = &flat
	}
	o.Phone = c.Phone
	o.Email = c.Email
	o.Comments = c.Comments
}

// DeliversOn reports whether the order is delivered on the calendar date of d.
func (o *Order) DeliversOn(d time.Time) bool {
	y1, m1, d1 := o.DeliveryDate.Date()
	y2, m2, d2 := d.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
