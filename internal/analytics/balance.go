package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/famledger/internal/domain"
)

// BalancePoint is the balance of an account at a moment.
type BalancePoint struct {
	At      time.Time
	Balance decimal.Decimal
}

// effect returns the signed cents tx moves in or out of acc.
func effect(acc *domain.Account, tx *domain.Transaction) Cents {
	if tx.Type == domain.TransactionTypeTransfer && tx.ToAccountID == "" {
		return 0
	}
	return CentsOf(acc.Effect(tx))
}

// SettledBalance removes from the stored balance of acc the effect of stored
// transactions dated after now. Future-dated transactions are booked when
// they are created, so the stored balance runs ahead of the money that has
// actually moved until their date passes.
func SettledBalance(acc domain.Account, txs []domain.Transaction, now time.Time) decimal.Decimal {
	balance := CentsOf(acc.Balance)
	for i := range txs {
		tx := &txs[i]
		if tx.IsVirtual() || tx.Date.IsZero() || !tx.Date.After(now) {
			continue
		}
		balance -= effect(&acc, tx)
	}

	return balance.Decimal()
}

// ProjectBalance estimates the balance of acc as of asOf. The stored balance
// reflects everything up to now, so the effects of transactions dated in
// [asOf, now] are undone to walk back in time. For asOf at or after now the
// stored balance is returned unchanged. Transactions without a date are
// ignored.
func ProjectBalance(acc domain.Account, txs []domain.Transaction, asOf, now time.Time) decimal.Decimal {
	if !asOf.Before(now) {
		return acc.Balance
	}

	balance := CentsOf(acc.Balance)
	for i := range txs {
		tx := &txs[i]
		if tx.Date.IsZero() || tx.Date.Before(asOf) || tx.Date.After(now) {
			continue
		}
		balance -= effect(&acc, tx)
	}

	return balance.Decimal()
}

// BalanceHistory projects the balance of acc at every point, in the order the
// points are given. Transactions are sorted once and swept with suffix sums.
func BalanceHistory(acc domain.Account, txs []domain.Transaction, points []time.Time, now time.Time) []BalancePoint {
	type dated struct {
		at  time.Time
		eff Cents
	}

	relevant := make([]dated, 0, len(txs))
	for i := range txs {
		tx := &txs[i]
		if tx.Date.IsZero() || tx.Date.After(now) {
			continue
		}
		if e := effect(&acc, tx); e != 0 {
			relevant = append(relevant, dated{at: tx.Date, eff: e})
		}
	}
	sort.Slice(relevant, func(i, j int) bool { return relevant[i].at.Before(relevant[j].at) })

	// suffix[i] is the summed effect of relevant[i:].
	suffix := make([]Cents, len(relevant)+1)
	for i := len(relevant) - 1; i >= 0; i-- {
		suffix[i] = suffix[i+1] + relevant[i].eff
	}

	current := CentsOf(acc.Balance)
	out := make([]BalancePoint, len(points))
	for i, p := range points {
		if !p.Before(now) {
			out[i] = BalancePoint{At: p, Balance: acc.Balance}
			continue
		}
		idx := sort.Search(len(relevant), func(j int) bool { return !relevant[j].at.Before(p) })
		out[i] = BalancePoint{At: p, Balance: (current - suffix[idx]).Decimal()}
	}

	return out
}

// ForecastBalance estimates the balance of acc at until, where acc carries
// its settled balance. Past dates are handled by ProjectBalance. For future
// dates every transaction dated in (now, until] is added, stored or virtual.
func ForecastBalance(acc domain.Account, txs []domain.Transaction, until, now time.Time) decimal.Decimal {
	if !until.After(now) {
		return ProjectBalance(acc, txs, until, now)
	}

	balance := CentsOf(acc.Balance)
	for i := range txs {
		tx := &txs[i]
		if tx.Date.IsZero() {
			continue
		}
		if !tx.Date.After(now) || tx.Date.After(until) {
			continue
		}
		balance += effect(&acc, tx)
	}

	return balance.Decimal()
}

// MonthEnds returns the last instant of every month of w, capped at now.
// It is the usual point set for a balance history chart.
func MonthEnds(w Window, now time.Time) []time.Time {
	var points []time.Time
	for m := monthStart(w.first()); m.Before(w.end()); m = m.AddDate(0, 1, 0) {
		p := m.AddDate(0, 1, 0).Add(-time.Nanosecond)
		if p.After(now) {
			p = now
		}
		points = append(points, p)
		if !p.Before(now) {
			break
		}
	}
	return points
}
