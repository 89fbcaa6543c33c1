package delivery

import "time"

type dayMonth struct {
	day   int
	month time.Month
}

// fixedHolidays are the public holidays that fall on the same date every year.
var fixedHolidays = []dayMonth{
	{1, time.January},
	{6, time.January},
	{1, time.May},
	{3, time.May},
	{15, time.August},
	{1, time.November},
	{11, time.November},
	{25, time.December},
	{26, time.December},
}

// Easter returns Easter Sunday of the given year using Gauss's method.
// The simplified congruence is off by a week for 2049 and 2076.
func Easter(year int) time.Time {
	a := ((year%19)*19 + 24) % 30
	b := (2*(year%4) + 4*(year%7) + 6*a + 5) % 7
	return date(year, time.March, 22).AddDate(0, 0, a+b)
}

// Holidays lists every non-working holiday of the year: the fixed ones plus
// Easter Sunday, Easter Monday and Corpus Christi (Easter + 60 days).
func Holidays(year int) []time.Time {
	out := make([]time.Time, 0, len(fixedHolidays)+3)
	for _, h := range fixedHolidays {
		out = append(out, date(year, h.month, h.day))
	}
	easter := Easter(year)
	out = append(out,
		easter,
		easter.AddDate(0, 0, 1),
		easter.AddDate(0, 0, 60),
	)
	return out
}

// IsHoliday reports whether d is a public holiday.
func IsHoliday(d time.Time) bool {
	d = Normalize(d)
	for _, h := range Holidays(d.Year()) {
		if h.Equal(d) {
			return true
		}
	}
	return false
}

// IsWorkDay reports whether deliveries run on d.
func IsWorkDay(d time.Time) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !IsHoliday(d)
}

// NextWorkDay returns the first working day strictly after ref.
func NextWorkDay(ref time.Time) time.Time {
	d := Normalize(ref)
	for {
		d = d.AddDate(0, 0, 1)
		if IsWorkDay(d) {
			return d
		}
	}
}

// Normalize drops the clock and zone of t, keeping its calendar date as UTC midnight.
func Normalize(t time.Time) time.Time {
	return date(t.Year(), t.Month(), t.Day())
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
