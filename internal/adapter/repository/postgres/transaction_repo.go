package postgres

import (
	"context"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/famledger/internal/domain"
	"github.com/iho/famledger/internal/usecase"
)

var transactionColumns = []string{
	"id", "account_id", "to_account_id", "user_id", "type", "amount", "category", "description", "date",
	"is_recurring", "frequency", "frequency_day", "frequency_custom_days", "recurring_end_date",
	"created_at", "updated_at",
}

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	db querier
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: pool}
}

// Create stores a transaction.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Tx, t *domain.Transaction) error {
	q, err := inTx(tx)
	if err != nil {
		return err
	}

	var (
		isRecurring      bool
		frequency        string
		frequencyDay     int32
		customDays       int32
		recurringEndDate pgtype.Timestamptz
	)
	if rule := t.Recurrence; rule != nil {
		isRecurring = rule.IsRecurring
		frequency = string(rule.Frequency)
		if frequencyDay, err = ruleInt32("frequency day", rule.FrequencyDay); err != nil {
			return err
		}
		if customDays, err = ruleInt32("custom interval", rule.FrequencyCustomDays); err != nil {
			return err
		}
		recurringEndDate = timestamptzOrNull(rule.EndDate)
	}

	sql, args, err := psql.Insert("transactions").
		Columns(transactionColumns...).
		Values(t.ID(), t.AccountID, textOrNull(t.ToAccountID), t.UserID, string(t.Type),
			decimalToNumeric(t.Amount), t.Category, t.Description, t.Date,
			isRecurring, frequency, frequencyDay, customDays, recurringEndDate,
			t.CreatedAt, t.UpdatedAt).
		ToSql()
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, sql, args...)
	return err
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	return r.get(ctx, r.db, psql.Select(transactionColumns...).From("transactions").Where("id = ?", id))
}

// GetByIDForUpdate retrieves a transaction by ID and locks it.
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Tx, id string) (*domain.Transaction, error) {
	q, err := inTx(tx)
	if err != nil {
		return nil, err
	}

	return r.get(ctx, q, psql.Select(transactionColumns...).From("transactions").Where("id = ?", id).Suffix("FOR UPDATE"))
}

// Delete removes a transaction.
func (r *TransactionRepository) Delete(ctx context.Context, tx usecase.Tx, id string) error {
	q, err := inTx(tx)
	if err != nil {
		return err
	}

	sql, args, err := psql.Delete("transactions").Where("id = ?", id).ToSql()
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// List returns the transactions matching filter, newest first.
func (r *TransactionRepository) List(ctx context.Context, filter usecase.TransactionFilter) ([]domain.Transaction, error) {
	query := psql.Select(transactionColumns...).From("transactions")

	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.AccountID != "" {
		query = query.Where(squirrel.Or{
			squirrel.Eq{"account_id": filter.AccountID},
			squirrel.Eq{"to_account_id": filter.AccountID},
		})
	}
	if filter.From != nil {
		query = query.Where(squirrel.GtOrEq{"date": *filter.From})
	}
	if filter.To != nil {
		query = query.Where(squirrel.Lt{"date": *filter.To})
	}

	query = query.OrderBy("date DESC", "id DESC")
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset))
	}

	return r.list(ctx, query)
}

// ListRecurring returns every transaction of the user with an active rule.
func (r *TransactionRepository) ListRecurring(ctx context.Context, userID string) ([]domain.Transaction, error) {
	query := psql.Select(transactionColumns...).
		From("transactions").
		Where("user_id = ?", userID).
		Where("is_recurring").
		Where("frequency <> ''").
		OrderBy("date", "id")

	return r.list(ctx, query)
}

func (r *TransactionRepository) get(ctx context.Context, q querier, query squirrel.SelectBuilder) (*domain.Transaction, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var t domain.Transaction
	if err := scanTransaction(q.QueryRow(ctx, sql, args...), &t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}

	return &t, nil
}

func (r *TransactionRepository) list(ctx context.Context, query squirrel.SelectBuilder) ([]domain.Transaction, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := make([]domain.Transaction, 0)
	for rows.Next() {
		var t domain.Transaction
		if err := scanTransaction(rows, &t); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}

	return txs, rows.Err()
}

func scanTransaction(row pgx.Row, t *domain.Transaction) error {
	var (
		id          string
		toAccountID pgtype.Text
		txType      string
		amount      pgtype.Numeric
		isRecurring bool
		frequency   string
		day         int32
		customDays  int32
		endDate     pgtype.Timestamptz
	)

	err := row.Scan(
		&id, &t.AccountID, &toAccountID, &t.UserID, &txType, &amount, &t.Category, &t.Description, &t.Date,
		&isRecurring, &frequency, &day, &customDays, &endDate,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return err
	}

	t.Ref = domain.PersistedRef(id)
	t.ToAccountID = toAccountID.String
	t.Type = domain.TransactionType(txType)
	t.Amount = numericToDecimal(amount)

	if isRecurring || frequency != "" {
		t.Recurrence = &domain.Recurrence{
			IsRecurring:         isRecurring,
			Frequency:           domain.Frequency(frequency),
			FrequencyDay:        int(day),
			FrequencyCustomDays: int(customDays),
		}
		if endDate.Valid {
			end := endDate.Time
			t.Recurrence.EndDate = &end
		}
	}

	return nil
}
