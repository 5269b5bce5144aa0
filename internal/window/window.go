// Package window computes the trailing analysis interval.
package window

import "time"

// DefaultDays is the length of the trailing window.
const DefaultDays = 7

// Window is a closed UTC interval.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies within the window, both ends included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Trailing returns the window of the given number of days ending at now.
func Trailing(now time.Time, days int) Window {
	end := now.UTC()
	return Window{Start: end.AddDate(0, 0, -days), End: end}
}

// Policy produces windows from a clock. The zero value uses time.Now and DefaultDays.
type Policy struct {
	Now  func() time.Time
	Days int
}

// Window returns the current trailing window.
func (p Policy) Window() Window {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	days := p.Days
	if days <= 0 {
		days = DefaultDays
	}
	return Trailing(now(), days)
}
