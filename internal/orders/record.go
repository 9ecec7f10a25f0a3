package orders

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidRecord = errors.New("invalid order record")
	ErrNotFound      = errors.New("order not found")
)

type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusFailed    Status = "FAILED"
)

func (s Status) Valid() bool {
	return s == StatusConfirmed || s == StatusFailed
}

// Record is an order as persisted. ItemName and Amount are captured when the
// order is placed and never follow later catalog edits.
type Record struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	ItemID    string          `json:"item_id"`
	ItemName  string          `json:"item_name"`
	Amount    decimal.Decimal `json:"amount"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

func (r Record) Validate() error {
	switch {
	case r.UserID == "" || r.ItemID == "":
		return fmt.Errorf("%w: user id and item id are required", ErrInvalidRecord)
	case !r.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrInvalidRecord, r.Status)
	case r.Amount.IsNegative():
		return fmt.Errorf("%w: negative amount", ErrInvalidRecord)
	}
	return nil
}
