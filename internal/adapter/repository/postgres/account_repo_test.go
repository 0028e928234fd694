package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/famledger/internal/domain"
)

var repoNow = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

func accountRow(id, name, balance string) []any {
	return []any{id, "user-1", name, "bank", "", balance, repoNow, repoNow}
}

func TestAccountRepositoryCreate(t *testing.T) {
	pool := newMockPool(t)
	repo := &AccountRepository{db: pool}

	pool.ExpectExec(`INSERT INTO accounts`).
		WithArgs("acc-1", "user-1", "Checking", "bank", "", pgxmock.AnyArg(), repoNow, repoNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), &domain.Account{
		ID: "acc-1", UserID: "user-1", Name: "Checking", Category: "bank",
		Balance: decimal.RequireFromString("10.50"), CreatedAt: repoNow, UpdatedAt: repoNow,
	})

	require.NoError(t, err)
	assertExpectations(t, pool)
}

func TestAccountRepositoryGetByID(t *testing.T) {
	pool := newMockPool(t)
	repo := &AccountRepository{db: pool}

	pool.ExpectQuery(`SELECT .+ FROM accounts WHERE id = \$1`).
		WithArgs("acc-1").
		WillReturnRows(pgxmock.NewRows(accountColumns).AddRow(accountRow("acc-1", "Checking", "1000.25")...))

	acc, err := repo.GetByID(context.Background(), "acc-1")

	require.NoError(t, err)
	assert.Equal(t, "Checking", acc.Name)
	assert.True(t, decimal.RequireFromString("1000.25").Equal(acc.Balance))
	assertExpectations(t, pool)
}

func TestAccountRepositoryGetByIDNotFound(t *testing.T) {
	pool := newMockPool(t)
	repo := &AccountRepository{db: pool}

	pool.ExpectQuery(`SELECT .+ FROM accounts`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(accountColumns))

	_, err := repo.GetByID(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAccountRepositoryGetByIDsForUpdate(t *testing.T) {
	pool := newMockPool(t)
	repo := &AccountRepository{db: pool}

	expectBegin(pool)
	pool.ExpectQuery(`SELECT .+ FROM accounts WHERE id = ANY\(\$1\) ORDER BY id FOR UPDATE`).
		WithArgs([]string{"acc-1", "acc-2"}).
		WillReturnRows(pgxmock.NewRows(accountColumns).
			AddRow(accountRow("acc-1", "Checking", "100")...).
			AddRow(accountRow("acc-2", "Savings", "200")...))

	tx, err := newTxManagerWithPool(pool).Begin(context.Background())
	require.NoError(t, err)

	accounts, err := repo.GetByIDsForUpdate(context.Background(), tx, []string{"acc-1", "acc-2"})

	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "acc-2", accounts[1].ID)
	assertExpectations(t, pool)
}

func TestAccountRepositoryUpdateBalanceNotFound(t *testing.T) {
	pool := newMockPool(t)
	repo := &AccountRepository{db: pool}

	expectBegin(pool)
	pool.ExpectExec(`UPDATE accounts SET balance = \$1, updated_at = \$2 WHERE id = \$3`).
		WithArgs(pgxmock.AnyArg(), repoNow, "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := newTxManagerWithPool(pool).Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateBalance(context.Background(), tx, "missing", decimal.NewFromInt(5), repoNow)

	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assertExpectations(t, pool)
}

func TestAccountRepositoryUpdateBalanceForeignTx(t *testing.T) {
	repo := &AccountRepository{db: newMockPool(t)}

	err := repo.UpdateBalance(context.Background(), otherTx{}, "acc-1", decimal.Zero, repoNow)

	assert.ErrorIs(t, err, ErrForeignTx)
}

func TestAccountRepositoryListByUser(t *testing.T) {
	pool := newMockPool(t)
	repo := &AccountRepository{db: pool}

	pool.ExpectQuery(`SELECT .+ FROM accounts WHERE user_id = \$1 ORDER BY name, id LIMIT 20 OFFSET 40`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows(accountColumns).AddRow(accountRow("acc-1", "Checking", "0")...))

	accounts, err := repo.ListByUser(context.Background(), "user-1", 20, 40)

	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assertExpectations(t, pool)
}

func TestAccountRepositoryDelete(t *testing.T) {
	pool := newMockPool(t)
	repo := &AccountRepository{db: pool}

	pool.ExpectExec(`DELETE FROM accounts WHERE id = \$1`).
		WithArgs("acc-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	pool.ExpectExec(`DELETE FROM accounts WHERE id = \$1`).
		WithArgs("acc-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, repo.Delete(context.Background(), "acc-1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "acc-1"), domain.ErrAccountNotFound)
	assertExpectations(t, pool)
}

func TestAccountRepositoryQueryError(t *testing.T) {
	pool := newMockPool(t)
	repo := &AccountRepository{db: pool}
	boom := errors.New("connection reset")

	pool.ExpectQuery(`SELECT .+ FROM accounts WHERE user_id = \$1`).
		WithArgs("user-1").
		WillReturnError(boom)

	_, err := repo.ListByUser(context.Background(), "user-1", 10, 0)

	assert.ErrorIs(t, err, boom)
	assertExpectations(t, pool)
}
