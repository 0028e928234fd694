package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a money container owned by a family member.
// Balance is the stored balance and reflects every transaction up to now.
type Account struct {
	ID        string
	UserID    string
	Name      string
	Category  string
	Icon      string
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Effect returns the signed balance change tx causes on this account.
func (a *Account) Effect(tx *Transaction) decimal.Decimal {
	amount := tx.Amount
	if amount.IsNegative() {
		return decimal.Zero
	}

	switch tx.Type {
	case TransactionTypeIncome:
		if tx.AccountID == a.ID {
			return amount
		}
	case TransactionTypeExpense:
		if tx.AccountID == a.ID {
			return amount.Neg()
		}
	case TransactionTypeTransfer:
		if tx.AccountID == tx.ToAccountID {
			return decimal.Zero
		}
		if tx.AccountID == a.ID {
			return amount.Neg()
		}
		if tx.ToAccountID == a.ID {
			return amount
		}
	}

	return decimal.Zero
}

// ApplyTransaction returns the new balance after tx is booked.
func (a *Account) ApplyTransaction(tx *Transaction) decimal.Decimal {
	return a.Balance.Add(a.Effect(tx))
}

// RevertTransaction returns the new balance after tx is removed.
func (a *Account) RevertTransaction(tx *Transaction) decimal.Decimal {
	return a.Balance.Sub(a.Effect(tx))
}
