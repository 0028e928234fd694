package analytics

import (
	"time"

	"github.com/iho/famledger/internal/domain"
)

// Window is a half-open [Start, End) range of calendar days. Bounds are
// truncated to their calendar day.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow validates and builds a window.
func NewWindow(start, end time.Time) (Window, error) {
	if err := domain.ValidateWindow(start, end); err != nil {
		return Window{}, err
	}
	return Window{Start: start, End: end}, nil
}

// MonthWindow covers one calendar month.
func MonthWindow(year int, month time.Month) Window {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Window{Start: start, End: start.AddDate(0, 1, 0)}
}

// MonthsWindow covers n calendar months starting at the month of from.
func MonthsWindow(from time.Time, n int) Window {
	start := monthStart(from)
	return Window{Start: start, End: start.AddDate(0, n, 0)}
}

// Bounds returns the first day and the exclusive end day of the window.
func (w Window) Bounds() (time.Time, time.Time) {
	return w.first(), w.end()
}

func (w Window) first() time.Time {
	return civilDay(w.Start)
}

func (w Window) end() time.Time {
	return civilDay(w.End)
}

// Contains reports whether the calendar day of t lies in the window.
func (w Window) Contains(t time.Time) bool {
	d := civilDay(t)
	return !d.Before(w.first()) && d.Before(w.end())
}

// civilDay maps t to midnight UTC of its calendar day in t's own location.
func civilDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// daysBetween counts whole days from a to b, both civil days.
func daysBetween(a, b time.Time) int64 {
	return (b.Unix() - a.Unix()) / 86400
}
