package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType encodes the direction of a transaction. Amounts are never
// signed; the type decides whether money comes in, goes out or moves.
type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeTransfer TransactionType = "transfer"
)

// IsValid checks if the type is known.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeTransfer:
		return true
	}
	return false
}

// Frequency is the repetition rule of a recurring transaction.
type Frequency string

const (
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
	FrequencyCustom  Frequency = "custom"
)

// UncategorizedCategory is used when a transaction carries no category.
const UncategorizedCategory = "Uncategorized"

// Recurrence describes how a transaction repeats.
type Recurrence struct {
	IsRecurring bool
	Frequency   Frequency
	// FrequencyDay is the day of month for monthly rules (1-31).
	FrequencyDay int
	// FrequencyCustomDays is the interval in days for custom rules.
	FrequencyCustomDays int
	EndDate             *time.Time
}

// Active reports whether the rule should be expanded at all.
func (r *Recurrence) Active() bool {
	return r != nil && r.IsRecurring && r.Frequency != ""
}

// Validate checks the rule configuration.
func (r *Recurrence) Validate() error {
	if r == nil {
		return nil
	}

	if r.FrequencyDay < 0 || r.FrequencyDay > 31 {
		return fmt.Errorf("%w: day %d outside 1-31", ErrInvalidRecurrence, r.FrequencyDay)
	}
	if r.FrequencyCustomDays < 0 || r.FrequencyCustomDays > MaxCustomIntervalDays {
		return fmt.Errorf("%w: custom interval %d outside 1-%d", ErrInvalidRecurrence, r.FrequencyCustomDays, MaxCustomIntervalDays)
	}

	if !r.Active() {
		return nil
	}

	switch r.Frequency {
	case FrequencyMonthly:
		if r.FrequencyDay < 1 || r.FrequencyDay > 31 {
			return fmt.Errorf("%w: monthly day %d outside 1-31", ErrInvalidRecurrence, r.FrequencyDay)
		}
	case FrequencyYearly:
	case FrequencyCustom:
		if r.FrequencyCustomDays <= 0 {
			return fmt.Errorf("%w: custom interval %d must be positive", ErrInvalidRecurrence, r.FrequencyCustomDays)
		}
	default:
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidRecurrence, r.Frequency)
	}

	return nil
}

// Clone returns a deep copy.
func (r *Recurrence) Clone() *Recurrence {
	if r == nil {
		return nil
	}

	c := *r
	if r.EndDate != nil {
		end := *r.EndDate
		c.EndDate = &end
	}

	return &c
}

// Transaction is a single money movement, either stored or projected from a
// recurring rule.
type Transaction struct {
	Ref         Ref
	AccountID   string
	ToAccountID string
	UserID      string
	Type        TransactionType
	Amount      decimal.Decimal
	Category    string
	Description string
	Date        time.Time
	Recurrence  *Recurrence
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ID returns the string form of the transaction ref.
func (t *Transaction) ID() string {
	return t.Ref.String()
}

// IsVirtual reports whether the transaction is a projected occurrence.
func (t *Transaction) IsVirtual() bool {
	return t.Ref.IsVirtual()
}

// CategoryOrDefault returns the category, falling back to "Uncategorized".
func (t *Transaction) CategoryOrDefault() string {
	c := strings.TrimSpace(t.Category)
	if c == "" {
		return UncategorizedCategory
	}
	return c
}

// Validate validates a transaction before it is stored.
func (t *Transaction) Validate() error {
	if !t.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, t.Type)
	}

	if t.AccountID == "" {
		return ErrMissingAccount
	}

	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}

	if t.Date.IsZero() {
		return ErrMissingDate
	}

	if t.Type == TransactionTypeTransfer {
		if t.ToAccountID == "" {
			return ErrMissingDestination
		}
		if t.ToAccountID == t.AccountID {
			return ErrSameAccount
		}
	}

	return t.Recurrence.Validate()
}

// AccountIDs returns the accounts whose balance the transaction touches.
func (t *Transaction) AccountIDs() []string {
	if t.Type == TransactionTypeTransfer && t.ToAccountID != "" {
		return []string{t.AccountID, t.ToAccountID}
	}
	return []string{t.AccountID}
}
