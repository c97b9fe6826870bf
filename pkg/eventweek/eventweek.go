// Package eventweek maps timestamps to Deep Town event weeks.
//
// Events do not align with ISO weeks: a new event opens every Thursday at
// 08:00 UTC, so timestamps before that boundary still belong to the previous
// event. The (Year, Week) pair produced here is the natural key shared by
// every component that needs to agree on "the current event" without
// coordination, so Index must stay pure and deterministic.
package eventweek

import "time"

// ID identifies one weekly event.
type ID struct {
	Year int `json:"year"`
	Week int `json:"week"`
}

// Event boundary: Thursday 08:00 UTC.
const boundaryHour = 8

// Index returns the event week the given timestamp falls into.
func Index(t time.Time) ID {
	t = t.UTC()
	isoYear, isoWeek := t.ISOWeek()

	year := t.Year()
	// Early January can fall into the trailing ISO week of the previous
	// year (week 52/53). ISOWeek already reports the ISO year, but the
	// event year follows the calendar year of the week's Thursday.
	if t.Month() == time.January && isoWeek > 5 {
		year = isoYear
	}

	week := isoWeek
	if beforeBoundary(t) {
		week--
	}

	if week <= 0 {
		year--
		// December 28 is always inside the last ISO week of its year.
		_, week = time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	}

	return ID{Year: year, Week: week}
}

// Previous returns the event week immediately before id.
func Previous(id ID) ID {
	if id.Week > 1 {
		return ID{Year: id.Year, Week: id.Week - 1}
	}
	year := id.Year - 1
	_, week := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return ID{Year: year, Week: week}
}

// beforeBoundary reports whether t falls before this ISO week's event start.
func beforeBoundary(t time.Time) bool {
	switch t.Weekday() {
	case time.Monday, time.Tuesday, time.Wednesday:
		return true
	case time.Thursday:
		return t.Hour() < boundaryHour
	default:
		return false
	}
}
