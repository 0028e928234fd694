package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/famledger/internal/domain"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "calendar date", input: "2025-03-31", want: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)},
		{name: "rfc3339 is normalized to UTC", input: "2025-03-31T02:00:00+02:00", want: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)},
		{name: "garbage", input: "31/03/2025", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCreateAccountRequest_ToUseCaseInput(t *testing.T) {
	req := &CreateAccountRequest{UserID: "user-1", Name: "Main", Category: "bank", InitialBalance: "150.75"}

	got, err := req.ToUseCaseInput()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.UserID != "user-1" || got.Name != "Main" || got.Category != "bank" {
		t.Fatalf("unexpected input: %+v", got)
	}
	if !got.InitialBalance.Equal(decimal.RequireFromString("150.75")) {
		t.Fatalf("unexpected balance %s", got.InitialBalance)
	}

	req.InitialBalance = "lots"
	if _, err := req.ToUseCaseInput(); err == nil {
		t.Fatalf("expected error for invalid balance")
	}
}

func TestCreateTransactionRequest_Decode(t *testing.T) {
	body := `{
		"account_id": "acc-1",
		"type": "expense",
		"amount": "900.00",
		"category": "Rent",
		"date": "2025-01-31",
		"recurrence": {"frequency": "monthly", "frequency_day": 31, "end_date": "2025-12-31"}
	}`

	var req CreateTransactionRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if input.Type != domain.TransactionTypeExpense || input.AccountID != "acc-1" {
		t.Fatalf("unexpected input: %+v", input)
	}
	if !input.Date.Equal(time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %v", input.Date)
	}
	if input.Recurrence == nil || input.Recurrence.Frequency != domain.FrequencyMonthly || input.Recurrence.FrequencyDay != 31 {
		t.Fatalf("unexpected recurrence %+v", input.Recurrence)
	}
	if input.Recurrence.EndDate == nil || input.Recurrence.EndDate.Month() != time.December {
		t.Fatalf("unexpected end date %v", input.Recurrence.EndDate)
	}
}

func TestCreateTransactionRequest_InvalidInput(t *testing.T) {
	var req CreateTransactionRequest
	if err := json.Unmarshal([]byte(`{"date": "yesterday"}`), &req); err == nil {
		t.Fatalf("expected error for invalid date")
	}

	req = CreateTransactionRequest{Amount: "12,50"}
	if _, err := req.ToUseCaseInput(); err == nil {
		t.Fatalf("expected error for invalid amount")
	}
}
