package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ariefcatur/go-canteen-orders/internal/remote"
)

// Client talks to the notifier service over HTTP.
type Client struct {
	base string
	hc   *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{base: strings.TrimRight(baseURL, "/"), hc: remote.NewHTTPClient(timeout)}
}

type SendResult struct {
	Status string `json:"status"`
}

// Send posts the message. Every failure, including a 4xx, is reported as
// ErrUnavailable; the caller never acts on anything finer. A non-empty key
// lets the notifier drop a repeat of the same send.
func (c *Client) Send(ctx context.Context, userID, message, key string) error {
	q := url.Values{}
	q.Set("user", userID)
	q.Set("message", message)
	if key != "" {
		q.Set("key", key)
	}
	var res SendResult
	if err := remote.Call(ctx, c.hc, http.MethodPost, c.base+"/notify/send?"+q.Encode(), &res); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func (c *Client) History(ctx context.Context, userID string) ([]Entry, error) {
	var out []Entry
	if err := remote.Call(ctx, c.hc, http.MethodGet, c.base+"/notify/"+url.PathEscape(userID), &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return out, nil
}
