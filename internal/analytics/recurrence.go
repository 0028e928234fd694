package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/iho/famledger/internal/domain"
)

// RecurrenceError reports a recurring transaction that could not be expanded.
// Only that transaction is skipped; the rest of the batch is still expanded.
type RecurrenceError struct {
	TransactionID string
	Err           error
}

func (e *RecurrenceError) Error() string {
	return fmt.Sprintf("transaction %s: %v", e.TransactionID, e.Err)
}

func (e *RecurrenceError) Unwrap() error {
	return e.Err
}

// Expansion is the result of expanding recurring transactions over a window.
type Expansion struct {
	// Occurrences are ordered by date, then by source transaction ID.
	Occurrences []domain.Transaction
	Skipped     []*RecurrenceError
}

// Expand projects every recurring transaction in txs onto w and returns the
// virtual occurrences that fall inside it.
//
// A transaction whose own date lies inside w is left out, since the stored
// record already covers that period. Occurrences are only generated after
// the original date and on or before the rule's end date.
func Expand(txs []domain.Transaction, w Window) Expansion {
	var out Expansion

	for i := range txs {
		src := &txs[i]
		rule := src.Recurrence
		if !rule.Active() || src.Date.IsZero() {
			continue
		}

		if w.Contains(src.Date) {
			continue
		}

		if rule.EndDate != nil && civilDay(*rule.EndDate).Before(w.first()) {
			continue
		}

		if err := rule.Validate(); err != nil {
			out.Skipped = append(out.Skipped, &RecurrenceError{TransactionID: src.ID(), Err: err})
			continue
		}

		for _, day := range occurrenceDays(src, w) {
			out.Occurrences = append(out.Occurrences, virtualOccurrence(src, day))
		}
	}

	sort.SliceStable(out.Occurrences, func(i, j int) bool {
		a, b := out.Occurrences[i], out.Occurrences[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Ref.SourceID() < b.Ref.SourceID()
	})

	return out
}

// occurrenceDays returns the civil days on which src recurs inside w.
func occurrenceDays(src *domain.Transaction, w Window) []time.Time {
	origin := civilDay(src.Date)
	rule := src.Recurrence

	keep := func(d time.Time) bool {
		if !d.After(origin) || !w.Contains(d) {
			return false
		}
		if rule.EndDate != nil && d.After(civilDay(*rule.EndDate)) {
			return false
		}
		return true
	}

	var days []time.Time

	switch rule.Frequency {
	case domain.FrequencyMonthly:
		for m := monthStart(w.first()); m.Before(w.end()); m = m.AddDate(0, 1, 0) {
			if rule.FrequencyDay > daysIn(m.Year(), m.Month()) {
				continue
			}
			d := time.Date(m.Year(), m.Month(), rule.FrequencyDay, 0, 0, 0, 0, time.UTC)
			if keep(d) {
				days = append(days, d)
			}
		}

	case domain.FrequencyYearly:
		last := w.end().AddDate(0, 0, -1)
		for y := w.first().Year(); y <= last.Year(); y++ {
			d := time.Date(y, origin.Month(), origin.Day(), 0, 0, 0, 0, time.UTC)
			if d.Month() != origin.Month() {
				// Feb 29 in a non-leap year.
				continue
			}
			if keep(d) {
				days = append(days, d)
			}
		}

	case domain.FrequencyCustom:
		for _, d := range everyNDays(origin, int64(rule.FrequencyCustomDays), w) {
			if keep(d) {
				days = append(days, d)
			}
		}
	}

	return days
}

// everyNDays returns the days origin+k*n (k >= 1) that fall before the end of
// w, starting from the first step that can reach w. Offsets are counted in
// int64 days and never stepped past the window, so any n terminates.
func everyNDays(origin time.Time, n int64, w Window) []time.Time {
	if n <= 0 {
		return nil
	}

	span := daysBetween(origin, w.end())
	off := n
	if gap := daysBetween(origin, w.first()); gap > n {
		off = (gap / n) * n
		if off < gap {
			off += n
		}
	}

	var days []time.Time
	for off < span {
		days = append(days, origin.AddDate(0, 0, int(off)))
		if span-off <= n {
			break
		}
		off += n
	}

	return days
}

// virtualOccurrence copies src onto day, keeping its wall-clock time.
func virtualOccurrence(src *domain.Transaction, day time.Time) domain.Transaction {
	occ := *src
	occ.Ref = domain.VirtualRef(src.Ref.SourceID(), day)
	occ.Date = time.Date(day.Year(), day.Month(), day.Day(),
		src.Date.Hour(), src.Date.Minute(), src.Date.Second(), src.Date.Nanosecond(), src.Date.Location())
	occ.Recurrence = src.Recurrence.Clone()
	return occ
}
