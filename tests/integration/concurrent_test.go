package integration

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/famledger/internal/domain"
	"github.com/iho/famledger/internal/usecase"
	"github.com/iho/famledger/tests/testutil"
)

func decimalOf(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestConcurrentTransactions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	a := newApp(t, testDB)
	date := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	t.Run("100 concurrent expenses on one account", func(t *testing.T) {
		testDB.TruncateAll(ctx)
		acc := testDB.CreateTestAccount(ctx, "user-1", "wallet", decimalOf("1000"))

		numTransactions := 100

		var (
			wg           sync.WaitGroup
			successCount atomic.Int32
			errorCount   atomic.Int32
		)

		wg.Add(numTransactions)

		for range numTransactions {
			go func() {
				defer wg.Done()

				_, err := a.transaction.CreateTransaction(ctx, usecase.CreateTransactionInput{
					AccountID: acc.ID,
					Type:      domain.TransactionTypeExpense,
					Amount:    decimalOf("10"),
					Date:      date,
				})
				if err != nil {
					errorCount.Add(1)
				} else {
					successCount.Add(1)
				}
			}()
		}

		wg.Wait()

		if successCount.Load() != int32(numTransactions) {
			t.Fatalf("expected %d successful transactions, got %d (errors: %d)", numTransactions, successCount.Load(), errorCount.Load())
		}

		if got := testDB.GetBalance(ctx, acc.ID); !got.Equal(decimal.Zero) {
			t.Errorf("expected balance 0, got %s", got)
		}
	})

	t.Run("opposite transfers do not deadlock and conserve money", func(t *testing.T) {
		testDB.TruncateAll(ctx)
		left := testDB.CreateTestAccount(ctx, "user-1", "left", decimalOf("500"))
		right := testDB.CreateTestAccount(ctx, "user-1", "right", decimalOf("500"))

		numPairs := 25

		var (
			wg         sync.WaitGroup
			errorCount atomic.Int32
		)

		transfer := func(from, to string, amount string) {
			defer wg.Done()

			_, err := a.transaction.CreateTransaction(ctx, usecase.CreateTransactionInput{
				AccountID:   from,
				ToAccountID: to,
				Type:        domain.TransactionTypeTransfer,
				Amount:      decimalOf(amount),
				Date:        date,
			})
			if err != nil {
				errorCount.Add(1)
			}
		}

		wg.Add(numPairs * 2)
		for range numPairs {
			go transfer(left.ID, right.ID, "3")
			go transfer(right.ID, left.ID, "1")
		}
		wg.Wait()

		if errorCount.Load() != 0 {
			t.Fatalf("expected no errors, got %d", errorCount.Load())
		}

		leftBalance := testDB.GetBalance(ctx, left.ID)
		rightBalance := testDB.GetBalance(ctx, right.ID)

		if !leftBalance.Equal(decimalOf("450")) {
			t.Errorf("expected left balance 450, got %s", leftBalance)
		}
		if !rightBalance.Equal(decimalOf("550")) {
			t.Errorf("expected right balance 550, got %s", rightBalance)
		}
	})
}
