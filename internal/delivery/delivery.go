// Package delivery computes when an order can be delivered.
package delivery

import (
	"fmt"
	"time"
)

// DateLayout is the dd.mm.yyyy form shown to customers and kept in checkout state.
const DateLayout = "02.01.2006"

// Calculator applies the daily order cutoff in the shop's timezone.
type Calculator struct {
	Location     *time.Location
	CutoffHour   int
	CutoffMinute int
}

// NewCalculator returns a calculator with the default 15:30 cutoff.
func NewCalculator(loc *time.Location) *Calculator {
	if loc == nil {
		loc = time.UTC
	}
	return &Calculator{Location: loc, CutoffHour: 15, CutoffMinute: 30}
}

// afterCutoff is true once the local clock is past the cutoff minute.
func (c *Calculator) afterCutoff(local time.Time) bool {
	h, m := local.Hour(), local.Minute()
	return h > c.CutoffHour || (h == c.CutoffHour && m > c.CutoffMinute)
}

// Date returns the delivery date for an order placed at now. Delivery is today
// only when every line is same-day eligible, the cutoff has not passed and
// today is a working day; otherwise it is the next working day.
func (c *Calculator) Date(now time.Time, sameDay bool) time.Time {
	local := now.In(c.Location)
	today := Normalize(local)
	if sameDay && !c.afterCutoff(local) && IsWorkDay(today) {
		return today
	}
	return NextWorkDay(today)
}

// DateString is Date formatted as dd.mm.yyyy.
func (c *Calculator) DateString(now time.Time, sameDay bool) string {
	return FormatDate(c.Date(now, sameDay))
}

// FormatDate renders d as dd.mm.yyyy.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// ParseDate parses a dd.mm.yyyy string into a normalized date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse delivery date %q: %w", s, err)
	}
	return Normalize(t), nil
}
