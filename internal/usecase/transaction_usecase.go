package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/famledger/internal/domain"
)

// TransactionUseCase handles transaction business logic. Every write keeps
// the stored balance of the touched accounts in step with the transaction.
type TransactionUseCase struct {
	txManager       TxManager
	retrier         Retrier
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	idGen           IDGenerator
	clock           Clock
	recorder        Recorder
	dashboards      dashboardCache
	logger          zerolog.Logger
}

// TransactionDeps groups the collaborators of TransactionUseCase.
type TransactionDeps struct {
	TxManager       TxManager
	Retrier         Retrier
	AccountRepo     AccountRepository
	TransactionRepo TransactionRepository
	IDGen           IDGenerator
	Clock           Clock
	Cache           Cache
	Recorder        Recorder
	Logger          zerolog.Logger
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(deps TransactionDeps) *TransactionUseCase {
	recorder := deps.Recorder
	if recorder == nil {
		recorder = noopRecorder{}
	}

	return &TransactionUseCase{
		txManager:       deps.TxManager,
		retrier:         deps.Retrier,
		accountRepo:     deps.AccountRepo,
		transactionRepo: deps.TransactionRepo,
		idGen:           deps.IDGen,
		clock:           deps.Clock,
		recorder:        recorder,
		dashboards:      dashboardCache{cache: deps.Cache, recorder: recorder, logger: deps.Logger},
		logger:          deps.Logger,
	}
}

// RecurrenceInput describes a repetition rule on create.
type RecurrenceInput struct {
	Frequency           domain.Frequency
	FrequencyDay        int
	FrequencyCustomDays int
	EndDate             *time.Time
}

// CreateTransactionInput represents input for creating a transaction.
type CreateTransactionInput struct {
	UserID      string
	AccountID   string
	ToAccountID string
	Type        domain.TransactionType
	Amount      decimal.Decimal
	Category    string
	Description string
	Date        time.Time
	Recurrence  *RecurrenceInput
}

// CreateTransaction validates and stores a transaction and books its effect
// on the account balances in one database transaction.
func (uc *TransactionUseCase) CreateTransaction(ctx context.Context, input CreateTransactionInput) (*domain.Transaction, error) {
	now := uc.clock.Now()

	t := &domain.Transaction{
		Ref:         domain.PersistedRef(uc.idGen.Generate()),
		AccountID:   input.AccountID,
		ToAccountID: input.ToAccountID,
		UserID:      input.UserID,
		Type:        input.Type,
		Amount:      input.Amount.Round(2),
		Category:    strings.TrimSpace(input.Category),
		Description: input.Description,
		Date:        input.Date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if t.Type != domain.TransactionTypeTransfer {
		t.ToAccountID = ""
	}

	if r := input.Recurrence; r != nil {
		t.Recurrence = &domain.Recurrence{
			IsRecurring:         true,
			Frequency:           r.Frequency,
			FrequencyDay:        r.FrequencyDay,
			FrequencyCustomDays: r.FrequencyCustomDays,
			EndDate:             r.EndDate,
		}
	}

	if err := uc.validate(t); err != nil {
		return nil, err
	}

	err := uc.retrier.Retry(ctx, func() error {
		return uc.withinTx(ctx, func(tx Tx) error {
			accounts, err := uc.lockAccounts(ctx, tx, t.AccountIDs())
			if err != nil {
				return err
			}

			if t.UserID == "" {
				t.UserID = accounts[t.AccountID].UserID
			}

			if err := uc.transactionRepo.Create(ctx, tx, t); err != nil {
				return err
			}

			return uc.book(ctx, tx, accounts, t, now, (*domain.Account).ApplyTransaction)
		})
	})
	if err != nil {
		return nil, err
	}

	uc.recorder.RecordTransactionCreated(string(t.Type))
	uc.dashboards.invalidate(ctx, t.UserID)

	uc.logger.Debug().
		Str("transaction_id", t.ID()).
		Str("type", string(t.Type)).
		Str("amount", t.Amount.StringFixed(2)).
		Msg("transaction created")

	return t, nil
}

// GetTransaction retrieves a transaction by ID.
func (uc *TransactionUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return uc.transactionRepo.GetByID(ctx, id)
}

// ListTransactionsInput represents input for listing transactions.
type ListTransactionsInput struct {
	UserID    string
	AccountID string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// ListTransactions lists stored transactions, newest first.
func (uc *TransactionUseCase) ListTransactions(ctx context.Context, input ListTransactionsInput) ([]domain.Transaction, error) {
	if input.From != nil && input.To != nil {
		if err := domain.ValidateWindow(*input.From, *input.To); err != nil {
			return nil, err
		}
	}

	limit, offset, err := domain.ValidatePagination(input.Limit, input.Offset)
	if err != nil {
		return nil, err
	}

	return uc.transactionRepo.List(ctx, TransactionFilter{
		UserID:    input.UserID,
		AccountID: input.AccountID,
		From:      input.From,
		To:        input.To,
		Limit:     limit,
		Offset:    offset,
	})
}

// DeleteTransaction removes a transaction and reverses its balance effect.
func (uc *TransactionUseCase) DeleteTransaction(ctx context.Context, id string) error {
	var deleted *domain.Transaction

	err := uc.retrier.Retry(ctx, func() error {
		return uc.withinTx(ctx, func(tx Tx) error {
			t, err := uc.transactionRepo.GetByIDForUpdate(ctx, tx, id)
			if err != nil {
				return err
			}

			accounts, err := uc.lockAccounts(ctx, tx, t.AccountIDs())
			if err != nil {
				return err
			}

			if err := uc.transactionRepo.Delete(ctx, tx, id); err != nil {
				return err
			}

			if err := uc.book(ctx, tx, accounts, t, uc.clock.Now(), (*domain.Account).RevertTransaction); err != nil {
				return err
			}

			deleted = t
			return nil
		})
	})
	if err != nil {
		return err
	}

	uc.recorder.RecordTransactionDeleted()
	uc.dashboards.invalidate(ctx, deleted.UserID)

	return nil
}

func (uc *TransactionUseCase) validate(t *domain.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}

	if t.Recurrence != nil && t.Recurrence.Frequency == "" {
		return fmt.Errorf("%w: frequency is required", domain.ErrInvalidRecurrence)
	}

	if err := domain.ValidateAmount(t.Amount); err != nil {
		return err
	}

	return domain.ValidateCategory(t.Category)
}

// withinTx runs fn in a database transaction bounded by
// DefaultTransactionTimeout and commits when fn succeeds.
func (uc *TransactionUseCase) withinTx(ctx context.Context, fn func(tx Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// lockAccounts locks ids in sorted order to avoid deadlocks between
// concurrent writers.
func (uc *TransactionUseCase) lockAccounts(ctx context.Context, tx Tx, ids []string) (map[string]*domain.Account, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, sorted)
	if err != nil {
		return nil, err
	}

	m := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		m[a.ID] = a
	}

	for _, id := range sorted {
		if m[id] == nil {
			return nil, domain.ErrAccountNotFound
		}
	}

	return m, nil
}

// book writes the balance produced by apply for every account t touches.
func (uc *TransactionUseCase) book(
	ctx context.Context,
	tx Tx,
	accounts map[string]*domain.Account,
	t *domain.Transaction,
	now time.Time,
	apply func(*domain.Account, *domain.Transaction) decimal.Decimal,
) error {
	for _, id := range t.AccountIDs() {
		acc := accounts[id]
		balance := apply(acc, t)

		if err := uc.accountRepo.UpdateBalance(ctx, tx, acc.ID, balance, now); err != nil {
			return err
		}

		acc.Balance = balance
		acc.UpdatedAt = now
	}

	return nil
}
