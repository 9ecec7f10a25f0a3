package saga

import (
	"errors"
	"fmt"
)

type Reason string

const (
	ReasonItemNotFound        Reason = "ITEM_NOT_FOUND"
	ReasonSoldOut             Reason = "SOLD_OUT"
	ReasonInsufficientFunds   Reason = "INSUFFICIENT_FUNDS"
	ReasonAccountNotFound     Reason = "ACCOUNT_NOT_FOUND"
	ReasonCatalogUnavailable  Reason = "CATALOG_UNAVAILABLE"
	ReasonLedgerUnavailable   Reason = "LEDGER_UNAVAILABLE"
	ReasonPersistenceFailure  Reason = "PERSISTENCE_FAILURE"
	ReasonNotificationFailure Reason = "NOTIFICATION_FAILURE"
	ReasonCanceled            Reason = "CANCELED"
)

var messages = map[Reason]string{
	ReasonItemNotFound:        "Item not found",
	ReasonSoldOut:             "Item is sold out",
	ReasonInsufficientFunds:   "Insufficient balance",
	ReasonAccountNotFound:     "Unknown user",
	ReasonCatalogUnavailable:  "Menu service is unavailable, please try again",
	ReasonLedgerUnavailable:   "Wallet service is unavailable, please try again",
	ReasonPersistenceFailure:  "Payment was taken but the order could not be recorded; contact the canteen",
	ReasonNotificationFailure: "Notification could not be sent",
	ReasonCanceled:            "Order was canceled before payment",
}

// Message is the user-facing text for r.
func (r Reason) Message() string {
	if m, ok := messages[r]; ok {
		return m
	}
	return string(r)
}

// Failure is the only error type PlaceOrder returns.
type Failure struct {
	Reason Reason
	Err    error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Reason)
	}
	return fmt.Sprintf("%s: %v", f.Reason, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

func fail(r Reason, err error) *Failure { return &Failure{Reason: r, Err: err} }

// ReasonOf returns the failure reason carried by err, or "" when err is not
// a *Failure.
func ReasonOf(err error) Reason {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason
	}
	return ""
}
