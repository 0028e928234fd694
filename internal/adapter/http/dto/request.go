package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/famledger/internal/domain"
	"github.com/iho/famledger/internal/usecase"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// ParseDate accepts a calendar date or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want %s or RFC 3339", s, DateLayout)
	}
	return t.UTC(), nil
}

// Date is a JSON date in either accepted form.
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(DateLayout))
}

func parseAmount(field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", field, err)
	}
	return amount, nil
}

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	UserID         string `json:"user_id"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	Icon           string `json:"icon"`
	InitialBalance string `json:"initial_balance"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() (usecase.CreateAccountInput, error) {
	balance, err := parseAmount("initial_balance", r.InitialBalance)
	if err != nil {
		return usecase.CreateAccountInput{}, err
	}

	return usecase.CreateAccountInput{
		UserID:         r.UserID,
		Name:           r.Name,
		Category:       r.Category,
		Icon:           r.Icon,
		InitialBalance: balance,
	}, nil
}

// RecurrenceRequest describes how a new transaction repeats.
type RecurrenceRequest struct {
	Frequency           string `json:"frequency"`
	FrequencyDay        int    `json:"frequency_day,omitempty"`
	FrequencyCustomDays int    `json:"frequency_custom_days,omitempty"`
	EndDate             *Date  `json:"end_date,omitempty"`
}

// CreateTransactionRequest represents a request to create a transaction.
type CreateTransactionRequest struct {
	UserID      string             `json:"user_id,omitempty"`
	AccountID   string             `json:"account_id"`
	ToAccountID string             `json:"to_account_id,omitempty"`
	Type        string             `json:"type"`
	Amount      string             `json:"amount"`
	Category    string             `json:"category,omitempty"`
	Description string             `json:"description,omitempty"`
	Date        Date               `json:"date"`
	Recurrence  *RecurrenceRequest `json:"recurrence,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransactionRequest) ToUseCaseInput() (usecase.CreateTransactionInput, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return usecase.CreateTransactionInput{}, fmt.Errorf("invalid amount: %w", err)
	}

	input := usecase.CreateTransactionInput{
		UserID:      r.UserID,
		AccountID:   r.AccountID,
		ToAccountID: r.ToAccountID,
		Type:        domain.TransactionType(r.Type),
		Amount:      amount,
		Category:    r.Category,
		Description: r.Description,
		Date:        r.Date.Time,
	}

	if rec := r.Recurrence; rec != nil {
		input.Recurrence = &usecase.RecurrenceInput{
			Frequency:           domain.Frequency(rec.Frequency),
			FrequencyDay:        rec.FrequencyDay,
			FrequencyCustomDays: rec.FrequencyCustomDays,
		}
		if rec.EndDate != nil {
			end := rec.EndDate.Time
			input.Recurrence.EndDate = &end
		}
	}

	return input, nil
}
