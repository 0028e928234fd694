package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/famledger/internal/adapter/http/dto"
	"github.com/iho/famledger/internal/analytics"
	"github.com/iho/famledger/internal/domain"
)

// forecastFixture is an offline snapshot of one account and the
// transactions touching it.
type forecastFixture struct {
	Account struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Balance string `json:"balance"`
	} `json:"account"`
	Transactions []fixtureTransaction `json:"transactions"`
}

type fixtureTransaction struct {
	ID string `json:"id"`
	dto.CreateTransactionRequest
}

type forecastResult struct {
	AccountID   string                     `json:"account_id"`
	Now         time.Time                  `json:"now"`
	Until       time.Time                  `json:"until"`
	Balance     string                     `json:"balance"`
	Occurrences []*dto.TransactionResponse `json:"occurrences"`
	Skipped     []string                   `json:"skipped,omitempty"`
}

func forecastCmd() *cobra.Command {
	var file, until, now string

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast an account balance from a JSON snapshot without a server",
		RunE: func(cmd *cobra.Command, args []string) error {
			untilDate, err := dto.ParseDate(until)
			if err != nil {
				return err
			}
			nowTime := time.Now().UTC()
			if now != "" {
				if nowTime, err = dto.ParseDate(now); err != nil {
					return err
				}
			}

			fixture, err := loadFixture(file)
			if err != nil {
				return err
			}

			result, err := runForecast(fixture, untilDate, nowTime)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the account snapshot")
	cmd.Flags().StringVar(&until, "until", "", "Date to forecast to (YYYY-MM-DD)")
	cmd.Flags().StringVar(&now, "now", "", "Override the current date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("until")

	return cmd
}

func loadFixture(path string) (*forecastFixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var f forecastFixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	if f.Account.ID == "" {
		return nil, fmt.Errorf("snapshot has no account id")
	}
	return &f, nil
}

func runForecast(f *forecastFixture, until, now time.Time) (*forecastResult, error) {
	balance, err := decimal.NewFromString(f.Account.Balance)
	if err != nil {
		return nil, fmt.Errorf("invalid account balance: %w", err)
	}
	acc := domain.Account{ID: f.Account.ID, Name: f.Account.Name, Balance: balance}

	txs := make([]domain.Transaction, 0, len(f.Transactions))
	for i := range f.Transactions {
		t, err := f.Transactions[i].toDomain()
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		txs = append(txs, t)
	}

	acc.Balance = analytics.SettledBalance(acc, txs, now)
	result := &forecastResult{AccountID: acc.ID, Now: now, Until: until}

	var occurrences []domain.Transaction
	if until.After(now) {
		// the window end is exclusive, so extend it past until's day
		exp := analytics.Expand(txs, analytics.Window{Start: now, End: until.AddDate(0, 0, 1)})
		occurrences = exp.Occurrences
		for _, skipped := range exp.Skipped {
			result.Skipped = append(result.Skipped, skipped.Error())
		}
	}

	result.Balance = analytics.ForecastBalance(acc, append(txs, occurrences...), until, now).StringFixed(2)
	result.Occurrences = dto.TransactionsFromDomain(occurrences)

	return result, nil
}

func (ft *fixtureTransaction) toDomain() (domain.Transaction, error) {
	if ft.ID == "" {
		return domain.Transaction{}, fmt.Errorf("missing id")
	}

	input, err := ft.ToUseCaseInput()
	if err != nil {
		return domain.Transaction{}, err
	}

	t := domain.Transaction{
		Ref:         domain.PersistedRef(ft.ID),
		AccountID:   input.AccountID,
		ToAccountID: input.ToAccountID,
		UserID:      input.UserID,
		Type:        input.Type,
		Amount:      input.Amount,
		Category:    input.Category,
		Description: input.Description,
		Date:        input.Date,
	}
	if rec := input.Recurrence; rec != nil {
		t.Recurrence = &domain.Recurrence{
			IsRecurring:         true,
			Frequency:           rec.Frequency,
			FrequencyDay:        rec.FrequencyDay,
			FrequencyCustomDays: rec.FrequencyCustomDays,
			EndDate:             rec.EndDate,
		}
	}

	return t, nil
}
