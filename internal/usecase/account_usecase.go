package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/famledger/internal/domain"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	accountRepo AccountRepository
	idGen       IDGenerator
	clock       Clock
	recorder    Recorder
	dashboards  dashboardCache
}

// NewAccountUseCase creates a new AccountUseCase. cache and recorder may be nil.
func NewAccountUseCase(
	accountRepo AccountRepository,
	idGen IDGenerator,
	clock Clock,
	cache Cache,
	recorder Recorder,
	logger zerolog.Logger,
) *AccountUseCase {
	if recorder == nil {
		recorder = noopRecorder{}
	}

	return &AccountUseCase{
		accountRepo: accountRepo,
		idGen:       idGen,
		clock:       clock,
		recorder:    recorder,
		dashboards:  dashboardCache{cache: cache, recorder: recorder, logger: logger},
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	UserID         string
	Name           string
	Category       string
	Icon           string
	InitialBalance decimal.Decimal
}

// CreateAccount creates a new account.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if err := domain.ValidateAccountName(input.Name); err != nil {
		return nil, err
	}

	if err := domain.ValidateCategory(input.Category); err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.UserID) == "" {
		return nil, domain.ErrMissingUser
	}

	now := uc.clock.Now()

	account := &domain.Account{
		ID:        uc.idGen.Generate(),
		UserID:    input.UserID,
		Name:      strings.TrimSpace(input.Name),
		Category:  strings.TrimSpace(input.Category),
		Icon:      input.Icon,
		Balance:   input.InitialBalance.Round(2),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	uc.recorder.RecordAccountCreated()
	uc.dashboards.invalidate(ctx, account.UserID)

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	UserID string
	Limit  int
	Offset int
}

// ListAccounts lists the accounts of a user with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}
	if input.Limit > 100 {
		input.Limit = 100
	}
	if input.Offset < 0 {
		input.Offset = 0
	}
	return uc.accountRepo.ListByUser(ctx, input.UserID, input.Limit, input.Offset)
}

// DeleteAccount removes an account together with its transactions.
func (uc *AccountUseCase) DeleteAccount(ctx context.Context, id string) error {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := uc.accountRepo.Delete(ctx, id); err != nil {
		return err
	}

	uc.dashboards.invalidate(ctx, account.UserID)
	return nil
}
