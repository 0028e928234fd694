package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/famledger/internal/domain"
)

var projectorNow = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

func account(balance string) domain.Account {
	return domain.Account{ID: "acc-1", UserID: "user-1", Name: "Checking", Balance: decimal.RequireFromString(balance)}
}

func assertDecimal(t *testing.T, expected string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(expected).Equal(got), "expected %s, got %s", expected, got)
}

func TestProjectBalance_NoTransactions(t *testing.T) {
	acc := account("1000")

	assertDecimal(t, "1000", ProjectBalance(acc, nil, projectorNow, projectorNow))
	assertDecimal(t, "1000", ProjectBalance(acc, nil, projectorNow.AddDate(0, -3, 0), projectorNow))
}

func TestProjectBalance_ReversesExpenseDatedAsOf(t *testing.T) {
	acc := account("1000")
	asOf := projectorNow.AddDate(0, 0, -3)
	expense := tx("1", domain.TransactionTypeExpense, "75.25", asOf)

	assertDecimal(t, "1075.25", ProjectBalance(acc, []domain.Transaction{expense}, asOf, projectorNow))
}

func TestProjectBalance_EndToEnd(t *testing.T) {
	acc := account("1000")
	expense := tx("1", domain.TransactionTypeExpense, "200", projectorNow.AddDate(0, 0, -10))
	txs := []domain.Transaction{expense}

	assertDecimal(t, "1200", ProjectBalance(acc, txs, projectorNow.AddDate(0, 0, -15), projectorNow))
	assertDecimal(t, "1000", ProjectBalance(acc, txs, projectorNow, projectorNow))
	assertDecimal(t, "1000", ProjectBalance(acc, txs, projectorNow.AddDate(0, 0, 5), projectorNow))
}

func TestProjectBalance_MixedEffects(t *testing.T) {
	acc := account("500")
	asOf := projectorNow.AddDate(0, -1, 0)

	income := tx("1", domain.TransactionTypeIncome, "300", projectorNow.AddDate(0, 0, -20))
	transferIn := tx("2", domain.TransactionTypeTransfer, "50", projectorNow.AddDate(0, 0, -5))
	transferIn.AccountID, transferIn.ToAccountID = "acc-2", "acc-1"
	transferOut := tx("3", domain.TransactionTypeTransfer, "20", projectorNow.AddDate(0, 0, -4))
	transferOut.ToAccountID = "acc-2"
	before := tx("4", domain.TransactionTypeExpense, "999", asOf.AddDate(0, 0, -1))
	otherAccount := tx("5", domain.TransactionTypeExpense, "10", projectorNow.AddDate(0, 0, -1))
	otherAccount.AccountID = "acc-9"
	future := tx("6", domain.TransactionTypeExpense, "10", projectorNow.AddDate(0, 0, 1))
	undated := tx("7", domain.TransactionTypeExpense, "10", time.Time{})

	txs := []domain.Transaction{income, transferIn, transferOut, before, otherAccount, future, undated}

	// 500 - (300 + 50 - 20)
	assertDecimal(t, "170", ProjectBalance(acc, txs, asOf, projectorNow))
}

func TestProjectBalance_NoRoundingDrift(t *testing.T) {
	acc := account("0.30")
	txs := make([]domain.Transaction, 0, 1000)
	for i := 0; i < 1000; i++ {
		txs = append(txs, tx("x", domain.TransactionTypeIncome, "0.01", projectorNow.AddDate(0, 0, -1)))
	}

	assertDecimal(t, "-9.70", ProjectBalance(acc, txs, projectorNow.AddDate(0, 0, -2), projectorNow))
}

func TestBalanceHistory_MatchesProjectBalance(t *testing.T) {
	acc := account("1000")
	txs := []domain.Transaction{
		tx("1", domain.TransactionTypeExpense, "200", projectorNow.AddDate(0, 0, -10)),
		tx("2", domain.TransactionTypeIncome, "1500", projectorNow.AddDate(0, -1, 0)),
		tx("3", domain.TransactionTypeExpense, "42.42", projectorNow.AddDate(0, -2, 3)),
	}

	points := []time.Time{
		projectorNow.AddDate(0, -3, 0),
		projectorNow.AddDate(0, 0, -15),
		projectorNow.AddDate(0, -1, 0),
		projectorNow,
		projectorNow.AddDate(0, 1, 0),
	}

	history := BalanceHistory(acc, txs, points, projectorNow)

	require.Len(t, history, len(points))
	for i, p := range points {
		assert.Equal(t, p, history[i].At)
		assertDecimal(t, ProjectBalance(acc, txs, p, projectorNow).String(), history[i].Balance)
	}
}

func TestForecastBalance(t *testing.T) {
	acc := account("1000")
	src := tx("rent", domain.TransactionTypeExpense, "400", time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	src.Recurrence = &domain.Recurrence{IsRecurring: true, Frequency: domain.FrequencyMonthly, FrequencyDay: 1}
	salary := tx("salary", domain.TransactionTypeIncome, "250", time.Date(2025, 5, 25, 0, 0, 0, 0, time.UTC))
	salary.Recurrence = &domain.Recurrence{IsRecurring: true, Frequency: domain.FrequencyMonthly, FrequencyDay: 25}

	window := Window{Start: projectorNow, End: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)}
	exp := Expand([]domain.Transaction{src, salary}, window)
	require.Len(t, exp.Occurrences, 4)

	until := time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)
	// July 1, July 25, Aug 1 fall in (now, until]
	assertDecimal(t, "450", ForecastBalance(acc, exp.Occurrences, until, projectorNow))

	storedFuture := tx("stored", domain.TransactionTypeExpense, "999", projectorNow.AddDate(0, 0, 2))
	assertDecimal(t, "1", ForecastBalance(acc, []domain.Transaction{storedFuture}, until, projectorNow))
	storedLater := tx("stored", domain.TransactionTypeExpense, "999", until.AddDate(0, 0, 1))
	assertDecimal(t, "1000", ForecastBalance(acc, []domain.Transaction{storedLater}, until, projectorNow))

	past := projectorNow.AddDate(0, 0, -1)
	assertDecimal(t, "1000", ForecastBalance(acc, exp.Occurrences, past, projectorNow))
}

func TestSettledBalance(t *testing.T) {
	// 1000 settled, then a 200 expense booked for five days from now
	acc := account("800")
	future := tx("future", domain.TransactionTypeExpense, "200", projectorNow.AddDate(0, 0, 5))
	settled := tx("settled", domain.TransactionTypeIncome, "50", projectorNow.AddDate(0, 0, -1))
	virtual := tx("rent", domain.TransactionTypeExpense, "400", projectorNow.AddDate(0, 0, 3))
	virtual.Ref = domain.VirtualRef("rent", virtual.Date)

	txs := []domain.Transaction{future, settled, virtual}
	assertDecimal(t, "1000", SettledBalance(acc, txs, projectorNow))
	assertDecimal(t, "800", SettledBalance(acc, txs, projectorNow.AddDate(0, 0, 5)))
	assertDecimal(t, "800", SettledBalance(acc, nil, projectorNow))

	// past projections start from the settled balance
	acc.Balance = SettledBalance(acc, txs, projectorNow)
	assertDecimal(t, "950", ProjectBalance(acc, txs, projectorNow.AddDate(0, 0, -1), projectorNow))
	assertDecimal(t, "400", ForecastBalance(acc, txs, projectorNow.AddDate(0, 0, 5), projectorNow))
}

func TestMonthEnds(t *testing.T) {
	w := Window{Start: time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC), End: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)}

	points := MonthEnds(w, projectorNow)

	require.Len(t, points, 3)
	assert.Equal(t, time.Date(2025, 4, 30, 23, 59, 59, 999999999, time.UTC), points[0])
	assert.Equal(t, time.Date(2025, 5, 31, 23, 59, 59, 999999999, time.UTC), points[1])
	assert.Equal(t, projectorNow, points[2])
}
