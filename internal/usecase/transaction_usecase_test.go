package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/famledger/internal/domain"
	"github.com/iho/famledger/internal/usecase"
	"github.com/iho/famledger/internal/usecase/mocks"
)

type transactionFixture struct {
	txManager *mocks.MockTxManager
	tx        *mocks.MockTx
	accounts  *mocks.MockAccountRepository
	repo      *mocks.MockTransactionRepository
	idGen     *mocks.MockIDGenerator
	cache     *mocks.MockCache
	recorder  *mocks.MockRecorder
	uc        *usecase.TransactionUseCase
}

func newTransactionFixture(t *testing.T) *transactionFixture {
	ctrl := gomock.NewController(t)

	f := &transactionFixture{
		txManager: mocks.NewMockTxManager(ctrl),
		tx:        mocks.NewMockTx(ctrl),
		accounts:  mocks.NewMockAccountRepository(ctrl),
		repo:      mocks.NewMockTransactionRepository(ctrl),
		idGen:     mocks.NewMockIDGenerator(ctrl),
		cache:     mocks.NewMockCache(ctrl),
		recorder:  mocks.NewMockRecorder(ctrl),
	}

	f.uc = usecase.NewTransactionUseCase(usecase.TransactionDeps{
		TxManager:       f.txManager,
		Retrier:         passThroughRetrier(ctrl),
		AccountRepo:     f.accounts,
		TransactionRepo: f.repo,
		IDGen:           f.idGen,
		Clock:           fixedClock(),
		Cache:           f.cache,
		Recorder:        f.recorder,
		Logger:          nopLogger(),
	})

	return f
}

// expectTx expects one database transaction that is rolled back on exit and
// committed only when commit is true.
func (f *transactionFixture) expectTx(commit bool) {
	f.txManager.EXPECT().Begin(gomock.Any()).Return(f.tx, nil)
	f.tx.EXPECT().Rollback(gomock.Any()).Return(nil)
	if commit {
		f.tx.EXPECT().Commit(gomock.Any()).Return(nil)
	}
}

func TestTransactionUseCase_CreateExpense(t *testing.T) {
	f := newTransactionFixture(t)
	date := testNow.AddDate(0, 0, -2)

	f.idGen.EXPECT().Generate().Return("tx-1")
	f.expectTx(true)
	f.accounts.EXPECT().GetByIDsForUpdate(gomock.Any(), f.tx, []string{"acc-1"}).
		Return([]*domain.Account{{ID: "acc-1", UserID: "user-1", Balance: decimal.NewFromInt(100)}}, nil)
	f.repo.EXPECT().Create(gomock.Any(), f.tx, gomock.Any()).Return(nil)
	f.accounts.EXPECT().UpdateBalance(gomock.Any(), f.tx, "acc-1", decimalEq("74.50"), testNow).Return(nil)
	f.recorder.EXPECT().RecordTransactionCreated("expense")
	f.cache.EXPECT().Incr(gomock.Any(), "dashboard:user-1:version").Return(int64(1), nil)

	created, err := f.uc.CreateTransaction(context.Background(), usecase.CreateTransactionInput{
		AccountID: "acc-1",
		Type:      domain.TransactionTypeExpense,
		Amount:    decimal.RequireFromString("25.50"),
		Category:  " Groceries ",
		Date:      date,
	})

	require.NoError(t, err)
	assert.Equal(t, "tx-1", created.ID())
	assert.Equal(t, "user-1", created.UserID, "owner defaults to the account owner")
	assert.Equal(t, "Groceries", created.Category)
	assert.False(t, created.IsVirtual())
}

func TestTransactionUseCase_CreateTransferLocksInOrder(t *testing.T) {
	f := newTransactionFixture(t)

	f.idGen.EXPECT().Generate().Return("tx-1")
	f.expectTx(true)
	f.accounts.EXPECT().GetByIDsForUpdate(gomock.Any(), f.tx, []string{"acc-a", "acc-z"}).
		Return([]*domain.Account{
			{ID: "acc-a", UserID: "user-1", Balance: decimal.NewFromInt(10)},
			{ID: "acc-z", UserID: "user-1", Balance: decimal.NewFromInt(500)},
		}, nil)
	f.repo.EXPECT().Create(gomock.Any(), f.tx, gomock.Any()).Return(nil)
	f.accounts.EXPECT().UpdateBalance(gomock.Any(), f.tx, "acc-z", decimalEq("400"), testNow).Return(nil)
	f.accounts.EXPECT().UpdateBalance(gomock.Any(), f.tx, "acc-a", decimalEq("110"), testNow).Return(nil)
	f.recorder.EXPECT().RecordTransactionCreated("transfer")
	f.cache.EXPECT().Incr(gomock.Any(), "dashboard:user-1:version").Return(int64(1), nil)

	_, err := f.uc.CreateTransaction(context.Background(), usecase.CreateTransactionInput{
		UserID:      "user-1",
		AccountID:   "acc-z",
		ToAccountID: "acc-a",
		Type:        domain.TransactionTypeTransfer,
		Amount:      decimal.NewFromInt(100),
		Date:        testNow,
	})

	require.NoError(t, err)
}

func TestTransactionUseCase_CreateRejectsInvalidInput(t *testing.T) {
	valid := usecase.CreateTransactionInput{
		UserID:    "user-1",
		AccountID: "acc-1",
		Type:      domain.TransactionTypeExpense,
		Amount:    decimal.NewFromInt(10),
		Date:      testNow,
	}

	tests := []struct {
		name        string
		mutate      func(in *usecase.CreateTransactionInput)
		expectedErr error
	}{
		{
			name: "transfer to same account",
			mutate: func(in *usecase.CreateTransactionInput) {
				in.Type = domain.TransactionTypeTransfer
				in.ToAccountID = in.AccountID
			},
			expectedErr: domain.ErrSameAccount,
		},
		{
			name: "transfer without destination",
			mutate: func(in *usecase.CreateTransactionInput) {
				in.Type = domain.TransactionTypeTransfer
			},
			expectedErr: domain.ErrMissingDestination,
		},
		{
			name:        "negative amount",
			mutate:      func(in *usecase.CreateTransactionInput) { in.Amount = decimal.NewFromInt(-1) },
			expectedErr: domain.ErrInvalidAmount,
		},
		{
			name:        "amount too large",
			mutate:      func(in *usecase.CreateTransactionInput) { in.Amount = decimal.RequireFromString("1000000000001") },
			expectedErr: domain.ErrAmountTooLarge,
		},
		{
			name:        "unknown type",
			mutate:      func(in *usecase.CreateTransactionInput) { in.Type = "refund" },
			expectedErr: domain.ErrInvalidType,
		},
		{
			name:        "missing date",
			mutate:      func(in *usecase.CreateTransactionInput) { in.Date = time.Time{} },
			expectedErr: domain.ErrMissingDate,
		},
		{
			name: "custom rule without interval",
			mutate: func(in *usecase.CreateTransactionInput) {
				in.Recurrence = &usecase.RecurrenceInput{Frequency: domain.FrequencyCustom}
			},
			expectedErr: domain.ErrInvalidRecurrence,
		},
		{
			name: "rule without frequency",
			mutate: func(in *usecase.CreateTransactionInput) {
				in.Recurrence = &usecase.RecurrenceInput{}
			},
			expectedErr: domain.ErrInvalidRecurrence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTransactionFixture(t)
			f.idGen.EXPECT().Generate().Return("tx-1")

			in := valid
			tt.mutate(&in)

			_, err := f.uc.CreateTransaction(context.Background(), in)
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestTransactionUseCase_CreateMissingAccountRollsBack(t *testing.T) {
	f := newTransactionFixture(t)

	f.idGen.EXPECT().Generate().Return("tx-1")
	f.expectTx(false)
	f.accounts.EXPECT().GetByIDsForUpdate(gomock.Any(), f.tx, []string{"acc-1", "acc-2"}).
		Return([]*domain.Account{{ID: "acc-1"}}, nil)

	_, err := f.uc.CreateTransaction(context.Background(), usecase.CreateTransactionInput{
		AccountID:   "acc-1",
		ToAccountID: "acc-2",
		Type:        domain.TransactionTypeTransfer,
		Amount:      decimal.NewFromInt(5),
		Date:        testNow,
	})

	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestTransactionUseCase_CreateStoreFailure(t *testing.T) {
	f := newTransactionFixture(t)

	f.idGen.EXPECT().Generate().Return("tx-1")
	f.expectTx(false)
	f.accounts.EXPECT().GetByIDsForUpdate(gomock.Any(), f.tx, []string{"acc-1"}).
		Return([]*domain.Account{{ID: "acc-1", UserID: "user-1"}}, nil)
	f.repo.EXPECT().Create(gomock.Any(), f.tx, gomock.Any()).Return(errors.New("insert failed"))

	_, err := f.uc.CreateTransaction(context.Background(), usecase.CreateTransactionInput{
		AccountID: "acc-1",
		Type:      domain.TransactionTypeIncome,
		Amount:    decimal.NewFromInt(5),
		Date:      testNow,
	})

	assert.EqualError(t, err, "insert failed")
}

func TestTransactionUseCase_DeleteReversesEffect(t *testing.T) {
	f := newTransactionFixture(t)

	stored := &domain.Transaction{
		Ref:       domain.PersistedRef("tx-1"),
		AccountID: "acc-1",
		UserID:    "user-1",
		Type:      domain.TransactionTypeExpense,
		Amount:    decimal.NewFromInt(25),
		Date:      testNow.AddDate(0, 0, -1),
	}

	f.expectTx(true)
	f.repo.EXPECT().GetByIDForUpdate(gomock.Any(), f.tx, "tx-1").Return(stored, nil)
	f.accounts.EXPECT().GetByIDsForUpdate(gomock.Any(), f.tx, []string{"acc-1"}).
		Return([]*domain.Account{{ID: "acc-1", UserID: "user-1", Balance: decimal.NewFromInt(75)}}, nil)
	f.repo.EXPECT().Delete(gomock.Any(), f.tx, "tx-1").Return(nil)
	f.accounts.EXPECT().UpdateBalance(gomock.Any(), f.tx, "acc-1", decimalEq("100"), testNow).Return(nil)
	f.recorder.EXPECT().RecordTransactionDeleted()
	f.cache.EXPECT().Incr(gomock.Any(), "dashboard:user-1:version").Return(int64(3), nil)

	require.NoError(t, f.uc.DeleteTransaction(context.Background(), "tx-1"))
}

func TestTransactionUseCase_DeleteMissing(t *testing.T) {
	f := newTransactionFixture(t)

	f.expectTx(false)
	f.repo.EXPECT().GetByIDForUpdate(gomock.Any(), f.tx, "nope").Return(nil, domain.ErrTransactionNotFound)

	assert.ErrorIs(t, f.uc.DeleteTransaction(context.Background(), "nope"), domain.ErrTransactionNotFound)
}

func TestTransactionUseCase_ListTransactions(t *testing.T) {
	t.Run("applies default page size", func(t *testing.T) {
		f := newTransactionFixture(t)
		f.repo.EXPECT().List(gomock.Any(), usecase.TransactionFilter{UserID: "user-1", Limit: 50}).
			Return([]domain.Transaction{}, nil)

		_, err := f.uc.ListTransactions(context.Background(), usecase.ListTransactionsInput{UserID: "user-1"})
		require.NoError(t, err)
	})

	t.Run("rejects inverted range", func(t *testing.T) {
		f := newTransactionFixture(t)
		from, to := testNow, testNow.AddDate(0, 0, -1)

		_, err := f.uc.ListTransactions(context.Background(), usecase.ListTransactionsInput{From: &from, To: &to})
		assert.ErrorIs(t, err, domain.ErrInvalidWindow)
	})
}
