package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/famledger/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// GetByIDsForUpdate locks the accounts in the order given.
	GetByIDsForUpdate(ctx context.Context, tx Tx, ids []string) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Tx, id string, balance decimal.Decimal, updatedAt time.Time) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Account, error)
	Delete(ctx context.Context, id string) error
}

// TransactionFilter narrows a transaction listing. From and To form a
// half-open [From, To) range on the transaction date; nil bounds are open.
// AccountID matches both the source and the destination account. A zero
// Limit returns every match.
type TransactionFilter struct {
	UserID    string
	AccountID string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// TransactionRepository defines data access for stored transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx Tx, transaction *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, tx Tx, id string) (*domain.Transaction, error)
	Delete(ctx context.Context, tx Tx, id string) error
	List(ctx context.Context, filter TransactionFilter) ([]domain.Transaction, error)
	// ListRecurring returns every transaction of the user carrying an active
	// recurrence rule, whatever its date.
	ListRecurring(ctx context.Context, userID string) ([]domain.Transaction, error)
}

// Tx represents a database transaction.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TxManager handles transaction lifecycle.
type TxManager interface {
	Begin(ctx context.Context) (Tx, error)
}

// Retrier re-runs operations that failed for transient database reasons.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// Cache defines caching operations. Get returns ErrCacheMiss for absent keys.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claimed key so the request can be retried.
	Release(ctx context.Context, key string) error
}

// Recorder receives use case instrumentation.
type Recorder interface {
	RecordExpansion(generated, skipped int)
	RecordCache(hit bool)
	ObserveAggregation(operation string, started time.Time)
	RecordAccountCreated()
	RecordTransactionCreated(txType string)
	RecordTransactionDeleted()
}
