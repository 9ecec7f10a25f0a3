package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
	user_id         TEXT PRIMARY KEY,
	name            TEXT NOT NULL DEFAULT '',
	balance         NUMERIC(14,2) NOT NULL CHECK (balance >= 0),
	credential_hash TEXT NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const accountColumns = `user_id, name, balance::text, credential_hash`

type PGStore struct{ DB *pgxpool.Pool }

func scanAccount(row pgx.Row) (Account, error) {
	var (
		a       Account
		balance string
	)
	if err := row.Scan(&a.UserID, &a.Name, &balance, &a.CredentialHash); err != nil {
		return Account{}, err
	}
	b, err := decimal.NewFromString(balance)
	if err != nil {
		return Account{}, fmt.Errorf("account %s balance %q: %w", a.UserID, balance, err)
	}
	a.Balance = b
	return a, nil
}

func (s *PGStore) GetAccount(ctx context.Context, userID string) (Account, error) {
	a, err := scanAccount(s.DB.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE user_id=$1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, userID)
	}
	return a, err
}

func (s *PGStore) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PGStore) CreateAccount(ctx context.Context, a Account) (Account, error) {
	if a.UserID == "" {
		return Account{}, fmt.Errorf("%w: user id is required", ErrInvalidAccount)
	}
	_, err := s.DB.Exec(ctx, `
		INSERT INTO accounts(user_id, name, balance, credential_hash)
		VALUES ($1, $2, $3::numeric, $4)`,
		a.UserID, a.Name, a.Balance.String(), a.CredentialHash)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Account{}, fmt.Errorf("%w: %s", ErrAccountExists, a.UserID)
	}
	if err != nil {
		return Account{}, err
	}
	return a, nil
}

func (s *PGStore) Debit(ctx context.Context, userID string, amount decimal.Decimal) (Account, error) {
	return s.apply(ctx, userID, func(a Account) (Account, error) { return a.Debit(amount) })
}

func (s *PGStore) Credit(ctx context.Context, userID string, amount decimal.Decimal) (Account, error) {
	return s.apply(ctx, userID, func(a Account) (Account, error) { return a.Credit(amount) })
}

// apply locks the row (FOR UPDATE), computes the next balance in Go and
// writes it back in the same transaction.
func (s *PGStore) apply(ctx context.Context, userID string, fn func(Account) (Account, error)) (Account, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Account{}, err
	}
	defer tx.Rollback(ctx)

	a, err := scanAccount(tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE user_id=$1 FOR UPDATE`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, userID)
	}
	if err != nil {
		return Account{}, err
	}

	next, err := fn(a)
	if err != nil {
		return Account{}, err // rollback via defer
	}

	ct, err := tx.Exec(ctx, `UPDATE accounts SET balance=$2::numeric, updated_at=now() WHERE user_id=$1`,
		userID, next.Balance.String())
	if err != nil {
		return Account{}, err
	}
	if ct.RowsAffected() != 1 {
		return Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, userID)
	}
	if err := tx.Commit(ctx); err != nil {
		return Account{}, err
	}
	return next, nil
}
