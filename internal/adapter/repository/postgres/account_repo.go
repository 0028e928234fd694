package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/famledger/internal/domain"
	"github.com/iho/famledger/internal/usecase"
)

var accountColumns = []string{"id", "user_id", "name", "category", "icon", "balance", "created_at", "updated_at"}

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	db querier
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: pool}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	sql, args, err := psql.Insert("accounts").
		Columns(accountColumns...).
		Values(account.ID, account.UserID, account.Name, account.Category, account.Icon,
			decimalToNumeric(account.Balance), account.CreatedAt, account.UpdatedAt).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	sql, args, err := psql.Select(accountColumns...).
		From("accounts").
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return nil, err
	}

	account, err := scanAccount(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	return account, err
}

// GetByIDsForUpdate retrieves multiple accounts by IDs with FOR UPDATE locks,
// taken in ID order.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Tx, ids []string) ([]*domain.Account, error) {
	q, err := inTx(tx)
	if err != nil {
		return nil, err
	}

	sql, args, err := psql.Select(accountColumns...).
		From("accounts").
		Where("id = ANY(?)", ids).
		OrderBy("id").
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

// UpdateBalance updates the balance of an account.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Tx, id string, balance decimal.Decimal, updatedAt time.Time) error {
	q, err := inTx(tx)
	if err != nil {
		return err
	}

	sql, args, err := psql.Update("accounts").
		Set("balance", decimalToNumeric(balance)).
		Set("updated_at", updatedAt).
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// ListByUser lists the accounts of a user by name.
func (r *AccountRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Account, error) {
	sql, args, err := psql.Select(accountColumns...).
		From("accounts").
		Where("user_id = ?", userID).
		OrderBy("name", "id").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

// Delete removes an account. Its transactions go with it.
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	sql, args, err := psql.Delete("accounts").Where("id = ?", id).ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		a       domain.Account
		balance pgtype.Numeric
	)

	if err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Category, &a.Icon, &balance, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}

	a.Balance = numericToDecimal(balance)
	return &a, nil
}

func collectAccounts(rows pgx.Rows) ([]*domain.Account, error) {
	defer rows.Close()

	accounts := make([]*domain.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}

	return accounts, rows.Err()
}
