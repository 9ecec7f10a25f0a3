package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const Schema = `
CREATE TABLE IF NOT EXISTS order_records (
	id         UUID PRIMARY KEY,
	user_id    TEXT NOT NULL,
	item_id    TEXT NOT NULL,
	item_name  TEXT NOT NULL,
	amount     NUMERIC(14,2) NOT NULL CHECK (amount >= 0),
	status     TEXT NOT NULL CHECK (status IN ('CONFIRMED','FAILED')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS order_records_user_created ON order_records(user_id, created_at DESC)`

const recordColumns = `id::text, user_id, item_id, item_name, amount::text, status, created_at`

// PGLog stores records in Postgres. Rows are never updated.
type PGLog struct{ DB *pgxpool.Pool }

func scanRecord(row pgx.Row) (Record, error) {
	var (
		r      Record
		amount string
		status string
	)
	if err := row.Scan(&r.ID, &r.UserID, &r.ItemID, &r.ItemName, &amount, &status, &r.CreatedAt); err != nil {
		return Record{}, err
	}
	a, err := decimal.NewFromString(amount)
	if err != nil {
		return Record{}, fmt.Errorf("order %s amount %q: %w", r.ID, amount, err)
	}
	r.Amount = a
	r.Status = Status(status)
	return r, nil
}

func (l *PGLog) Append(ctx context.Context, r Record) (Record, error) {
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	r.ID = uuid.NewString()
	r.CreatedAt = time.Now().UTC()
	_, err := l.DB.Exec(ctx, `
		INSERT INTO order_records(id, user_id, item_id, item_name, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7)`,
		r.ID, r.UserID, r.ItemID, r.ItemName, r.Amount.String(), string(r.Status), r.CreatedAt)
	if err != nil {
		return Record{}, err
	}
	return r, nil
}

func (l *PGLog) FindByUser(ctx context.Context, userID string) ([]Record, error) {
	rows, err := l.DB.Query(ctx, `SELECT `+recordColumns+` FROM order_records
		WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (l *PGLog) Get(ctx context.Context, id string) (Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r, err := scanRecord(l.DB.QueryRow(ctx, `SELECT `+recordColumns+` FROM order_records WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, err
}
