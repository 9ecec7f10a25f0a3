package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const Schema = `
CREATE TABLE IF NOT EXISTS items (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	category   TEXT NOT NULL DEFAULT '',
	price      NUMERIC(12,2) NOT NULL CHECK (price >= 0),
	image_ref  TEXT NOT NULL DEFAULT '',
	type       TEXT NOT NULL DEFAULT '',
	quantity   INT NOT NULL CHECK (quantity >= 0),
	available  BOOLEAN NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const itemColumns = `id::text, name, category, price::text, image_ref, type, quantity, available`

type PGStore struct{ DB *pgxpool.Pool }

func scanItem(row pgx.Row) (Item, error) {
	var (
		it    Item
		price string
	)
	if err := row.Scan(&it.ID, &it.Name, &it.Category, &price, &it.ImageRef, &it.Type, &it.Quantity, &it.Available); err != nil {
		return Item{}, err
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return Item{}, fmt.Errorf("item %s price %q: %w", it.ID, price, err)
	}
	it.Price = p
	return it, nil
}

func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return n, nil
}

func (s *PGStore) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+itemColumns+` FROM items ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *PGStore) GetItem(ctx context.Context, id string) (Item, error) {
	n, err := parseID(id)
	if err != nil {
		return Item{}, err
	}
	it, err := scanItem(s.DB.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id=$1`, n))
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return it, err
}

func (s *PGStore) CreateItem(ctx context.Context, it Item) (Item, error) {
	if err := it.Validate(); err != nil {
		return Item{}, err
	}
	it = it.WithQuantity(it.Quantity)
	return scanItem(s.DB.QueryRow(ctx, `
		INSERT INTO items(name, category, price, image_ref, type, quantity, available)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7)
		RETURNING `+itemColumns,
		it.Name, it.Category, it.Price.String(), it.ImageRef, it.Type, it.Quantity, it.Available,
	))
}

// UpdateStock is a plain overwrite: no comparison against the prior value.
func (s *PGStore) UpdateStock(ctx context.Context, id string, quantity int) (Item, error) {
	if quantity < 0 {
		return Item{}, fmt.Errorf("%w: quantity cannot be negative", ErrInvalidItem)
	}
	n, err := parseID(id)
	if err != nil {
		return Item{}, err
	}
	it, err := scanItem(s.DB.QueryRow(ctx, `
		UPDATE items SET quantity = $2, available = $2 > 0, updated_at = now()
		WHERE id = $1
		RETURNING `+itemColumns, n, quantity))
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return it, err
}
