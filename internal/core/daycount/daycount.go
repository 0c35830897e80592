// Package daycount implements the 30/360 day-count convention used for bond
// and interest accrual periods: every month counts as 30 days and every year
// as 360.
//
// Out-of-range dates do not raise errors. Like a spreadsheet cell that shows
// an error value, they produce an "undefined" result (ok == false).
package daycount

// Date is a calendar date split into components. Components are validated
// independently; a Date need not name a real calendar day.
type Date struct {
	Year  int
	Month int
	Day   int
}

// IsLeapYear reports whether year is a Gregorian leap year. ok is false for
// negative years.
func IsLeapYear(year int) (leap bool, ok bool) {
	if year < 0 {
		return false, false
	}
	return year%4 == 0 && (year%100 != 0 || year%400 == 0), true
}

// Days360 returns the number of days from start to end under the 30/360
// convention. ok is false when either date is out of range.
func Days360(start, end Date) (days int, ok bool) {
	s, ok := normalize(start)
	if !ok {
		return 0, false
	}
	e, ok := normalize(end)
	if !ok {
		return 0, false
	}

	return (e.Year-s.Year)*360 + (e.Month-s.Month)*30 + (e.Day - s.Day), true
}

// normalize validates d and moves the 31st of a 31-day month to the 1st of
// the following month.
func normalize(d Date) (Date, bool) {
	if d.Year < 0 || d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > 31 {
		return Date{}, false
	}

	switch d.Month {
	case 2:
		limit := 28
		if leap, _ := IsLeapYear(d.Year); leap {
			limit = 29
		}
		if d.Day > limit {
			return Date{}, false
		}
	case 4, 6, 9, 11:
		if d.Day > 30 {
			return Date{}, false
		}
	case 12:
		if d.Day == 31 {
			return Date{Year: d.Year + 1, Month: 1, Day: 1}, true
		}
	default:
		if d.Day == 31 {
			return Date{Year: d.Year, Month: d.Month + 1, Day: 1}, true
		}
	}
	return d, true
}
