package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/famledger/internal/analytics"
	"github.com/iho/famledger/internal/domain"
	"github.com/iho/famledger/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Icon      string    `json:"icon,omitempty"`
	Balance   string    `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		UserID:    a.UserID,
		Name:      a.Name,
		Category:  a.Category,
		Icon:      a.Icon,
		Balance:   a.Balance.StringFixed(2),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse represents a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// RecurrenceResponse describes the repetition rule of a transaction.
type RecurrenceResponse struct {
	Frequency           string `json:"frequency"`
	FrequencyDay        int    `json:"frequency_day,omitempty"`
	FrequencyCustomDays int    `json:"frequency_custom_days,omitempty"`
	EndDate             *Date  `json:"end_date,omitempty"`
}

// TransactionResponse represents a stored transaction or a projected
// occurrence. Occurrences carry the ID of their recurring source.
type TransactionResponse struct {
	ID             string              `json:"id"`
	SourceID       string              `json:"source_id"`
	Virtual        bool                `json:"virtual"`
	OccurrenceDate *Date               `json:"occurrence_date,omitempty"`
	AccountID      string              `json:"account_id"`
	ToAccountID    string              `json:"to_account_id,omitempty"`
	UserID         string              `json:"user_id"`
	Type           string              `json:"type"`
	Amount         string              `json:"amount"`
	Category       string              `json:"category"`
	Description    string              `json:"description,omitempty"`
	Date           Date                `json:"date"`
	Recurrence     *RecurrenceResponse `json:"recurrence,omitempty"`
}

// TransactionFromDomain converts domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	resp := &TransactionResponse{
		ID:          t.ID(),
		SourceID:    t.Ref.SourceID(),
		Virtual:     t.IsVirtual(),
		AccountID:   t.AccountID,
		ToAccountID: t.ToAccountID,
		UserID:      t.UserID,
		Type:        string(t.Type),
		Amount:      t.Amount.StringFixed(2),
		Category:    t.CategoryOrDefault(),
		Description: t.Description,
		Date:        Date{t.Date},
	}

	if on, ok := t.Ref.OccurrenceDate(); ok {
		resp.OccurrenceDate = &Date{on}
	}

	if rule := t.Recurrence; rule.Active() {
		resp.Recurrence = &RecurrenceResponse{
			Frequency:           string(rule.Frequency),
			FrequencyDay:        rule.FrequencyDay,
			FrequencyCustomDays: rule.FrequencyCustomDays,
		}
		if rule.EndDate != nil {
			resp.Recurrence.EndDate = &Date{*rule.EndDate}
		}
	}

	return resp
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(txs []domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txs))
	for i := range txs {
		result[i] = TransactionFromDomain(&txs[i])
	}
	return result
}

// ListTransactionsResponse represents a list of transactions.
type ListTransactionsResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Total        int64                  `json:"total"`
}

// BucketResponse is one row of a period series.
type BucketResponse struct {
	Key       string `json:"key"`
	Dimension string `json:"dimension,omitempty"`
	Income    string `json:"income"`
	Expense   string `json:"expense"`
	Transfers string `json:"transfers,omitempty"`
	Net       string `json:"net"`
	Count     int    `json:"count"`
}

// SeriesResponse represents an aggregated period series.
type SeriesResponse struct {
	Bucketing    string           `json:"bucketing"`
	Dimension    string           `json:"dimension,omitempty"`
	Buckets      []BucketResponse `json:"buckets"`
	Dimensions   []string         `json:"dimensions,omitempty"`
	TotalIncome  string           `json:"total_income"`
	TotalExpense string           `json:"total_expense"`
}

// SeriesFromAnalytics converts a series to response.
func SeriesFromAnalytics(s *analytics.Series) *SeriesResponse {
	income, expense := s.Totals()
	resp := &SeriesResponse{
		Bucketing:    string(s.Bucketing),
		Dimension:    string(s.Dimension),
		Buckets:      make([]BucketResponse, len(s.Buckets)),
		Dimensions:   s.Dimensions,
		TotalIncome:  income.String(),
		TotalExpense: expense.String(),
	}

	for i, b := range s.Buckets {
		resp.Buckets[i] = BucketResponse{
			Key:       b.Key,
			Dimension: b.Dimension,
			Income:    b.Income.String(),
			Expense:   b.Expense.String(),
			Net:       b.Net().String(),
			Count:     b.Count,
		}
		if s.Dimension == analytics.DimensionAccount {
			resp.Buckets[i].Transfers = b.Transfers.String()
		}
	}

	return resp
}

// BalanceResponse is the balance of an account at one moment.
type BalanceResponse struct {
	AccountID string    `json:"account_id"`
	Name      string    `json:"name,omitempty"`
	AsOf      time.Time `json:"as_of"`
	Balance   string    `json:"balance"`
}

// BalanceFromResult converts a balance result to response.
func BalanceFromResult(r *usecase.BalanceResult) *BalanceResponse {
	return &BalanceResponse{
		AccountID: r.Account.ID,
		Name:      r.Account.Name,
		AsOf:      r.AsOf,
		Balance:   r.Balance.StringFixed(2),
	}
}

// BalancesResponse lists the balances of all accounts of a user.
type BalancesResponse struct {
	Balances []*BalanceResponse `json:"balances"`
	Total    string             `json:"total"`
}

// BalancesFromResults converts balance results to response.
func BalancesFromResults(results []usecase.BalanceResult) *BalancesResponse {
	resp := &BalancesResponse{Balances: make([]*BalanceResponse, len(results))}
	total := decimal.Zero
	for i := range results {
		resp.Balances[i] = BalanceFromResult(&results[i])
		total = total.Add(results[i].Balance)
	}
	resp.Total = total.StringFixed(2)
	return resp
}

// BalancePointResponse is one point of a balance history.
type BalancePointResponse struct {
	At      time.Time `json:"at"`
	Balance string    `json:"balance"`
}

// HistoryResponse represents the balance history of an account.
type HistoryResponse struct {
	AccountID string                 `json:"account_id"`
	Points    []BalancePointResponse `json:"points"`
}

// HistoryFromPoints converts balance points to response.
func HistoryFromPoints(accountID string, points []analytics.BalancePoint) *HistoryResponse {
	resp := &HistoryResponse{AccountID: accountID, Points: make([]BalancePointResponse, len(points))}
	for i, p := range points {
		resp.Points[i] = BalancePointResponse{At: p.At, Balance: p.Balance.StringFixed(2)}
	}
	return resp
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
