package models

import (
	"testing"
	"time"
)

func TestKeyFromName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Mleko", "mleko"},
		{"Chleb  Żytni", "chleb_żytni"},
		{"  Ser biały  ", "ser_biały"},
	}
	for _, tt := range tests {
		if got := KeyFromName(tt.name); got != tt.want {
			t.Errorf("KeyFromName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestCapitalizeName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"chleb żytni", "Chleb Żytni"},
		{"  MASŁO   extra ", "Masło Extra"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CapitalizeName(tt.name); got != tt.want {
			t.Errorf("CapitalizeName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestProductHelpers(t *testing.T) {
	p := &Product{Unit: UnitPiece}
	if !p.IsPieceCounted() {
		t.Fatalf("expected piece counted")
	}
	if !p.SameDay() {
		t.Fatalf("expected same day for zero delivery days")
	}
	p.DeliveryDays = 2
	if p.SameDay() {
		t.Fatalf("expected delayed product")
	}
	if p.Photo() != "" {
		t.Fatalf("expected empty photo")
	}
	url := "/media/a.jpg"
	p.PhotoURL = &url
	if p.Photo() != url {
		t.Fatalf("photo = %q", p.Photo())
	}
	if !IsUnit("kg") || IsUnit("tonne") {
		t.Fatalf("unexpected unit vocabulary result")
	}
}

func TestOrderCustomerRoundTrip(t *testing.T) {
	c := Customer{City: "Kraków", Street: "Długa", HouseNumber: "5", FlatNumber: "12", Phone: "600100200"}
	var o Order
	o.SetCustomer(c)
	if o.FlatNumber == nil || *o.FlatNumber != "12" {
		t.Fatalf("flat number not stored")
	}
	if got := o.Customer(); got != c {
		t.Fatalf("customer = %+v, want %+v", got, c)
	}
	if c.AddressLine() != "Długa 5/12" {
		t.Fatalf("address = %q", c.AddressLine())
	}

	c.FlatNumber = ""
	o.SetCustomer(c)
	if o.FlatNumber != nil {
		t.Fatalf("expected nil flat number")
	}
	if c.AddressLine() != "Długa 5" {
		t.Fatalf("address = %q", c.AddressLine())
	}
}

func TestOrderDeliversOn(t *testing.T) {
	o := Order{DeliveryDate: time.Date(2024, time.June, 5, 0, 0, 0, 0, time.UTC)}
	if !o.DeliversOn(time.Date(2024, time.June, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected delivery on 5 June")
	}
	if o.DeliversOn(time.Date(2024, time.June, 6, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected delivery on 6 June")
	}
}

func TestCheckoutSessionExpired(t *testing.T) {
	now := time.Now()
	s := CheckoutSession{ExpiresAt: now.Add(time.Minute)}
	if s.Expired(now) {
		t.Fatalf("session should be live")
	}
	if !s.Expired(now.Add(time.Minute)) {
		t.Fatalf("session should be expired")
	}
}
