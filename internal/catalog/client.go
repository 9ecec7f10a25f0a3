package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ariefcatur/go-canteen-orders/internal/remote"
)

// CodeItemNotFound is the error code the catalog service answers an unknown
// item with. A 404 without it is a routing problem, not a missing item.
const CodeItemNotFound = "ITEM_NOT_FOUND"

// Client talks to the catalog service over HTTP.
type Client struct {
	base string
	hc   *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{base: strings.TrimRight(baseURL, "/"), hc: remote.NewHTTPClient(timeout)}
}

func (c *Client) GetItem(ctx context.Context, id string) (Item, error) {
	var it Item
	err := remote.Call(ctx, c.hc, http.MethodGet, c.base+"/item/"+url.PathEscape(id), &it)
	return it, c.classify(err, id)
}

func (c *Client) UpdateStock(ctx context.Context, id string, quantity int) (Item, error) {
	var it Item
	u := fmt.Sprintf("%s/item/updateStock/%s/%d", c.base, url.PathEscape(id), quantity)
	err := remote.Call(ctx, c.hc, http.MethodPost, u, &it)
	return it, c.classify(err, id)
}

func (c *Client) ListItems(ctx context.Context) ([]Item, error) {
	var items []Item
	err := remote.Call(ctx, c.hc, http.MethodGet, c.base+"/item", &items)
	return items, c.classify(err, "")
}

func (c *Client) classify(err error, id string) error {
	switch {
	case err == nil:
		return nil
	case remote.CodeOf(err) == CodeItemNotFound:
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	case remote.StatusOf(err) == http.StatusBadRequest:
		return fmt.Errorf("%w: %v", ErrInvalidItem, err)
	default:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
}
