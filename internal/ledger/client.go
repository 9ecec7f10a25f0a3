package ledger

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-canteen-orders/internal/remote"
)

// Error codes the ledger service puts in its error bodies.
const (
	CodeAccountNotFound   = "ACCOUNT_NOT_FOUND"
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
)

// Client talks to the ledger service over HTTP. It never retries: a debit
// that timed out may still have been applied.
type Client struct {
	base string
	hc   *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{base: strings.TrimRight(baseURL, "/"), hc: remote.NewHTTPClient(timeout)}
}

func (c *Client) Debit(ctx context.Context, userID string, amount decimal.Decimal) (Account, error) {
	q := url.Values{}
	q.Set("user", userID)
	q.Set("amount", amount.String())
	var a Account
	err := remote.Call(ctx, c.hc, http.MethodPost, c.base+"/ledger/debit?"+q.Encode(), &a)
	return a, classify(err, userID)
}

func (c *Client) GetAccount(ctx context.Context, userID string) (Account, error) {
	var a Account
	err := remote.Call(ctx, c.hc, http.MethodGet, c.base+"/ledger/"+url.PathEscape(userID), &a)
	return a, classify(err, userID)
}

func classify(err error, userID string) error {
	switch {
	case err == nil:
		return nil
	case remote.CodeOf(err) == CodeAccountNotFound:
		return fmt.Errorf("%w: %s", ErrAccountNotFound, userID)
	case remote.CodeOf(err) == CodeInsufficientFunds:
		return fmt.Errorf("%w: %v", ErrInsufficientFunds, err)
	case remote.StatusOf(err) == http.StatusBadRequest:
		return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	default:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
}
