package catalog

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrItemNotFound = errors.New("item not found")
	ErrInvalidItem  = errors.New("invalid item")
	// ErrUnavailable marks transport and timeout failures of the catalog.
	ErrUnavailable = errors.New("catalog unavailable")
)

// Item is a purchasable menu entry. Values are snapshots; use the With*
// functions to derive a changed copy.
type Item struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Category  string          `json:"category"`
	ImageRef  string          `json:"image_ref"`
	Available bool            `json:"available"`
	Type      string          `json:"type"`
	Quantity  int             `json:"quantity"`
}

// WithQuantity returns a copy holding q units, availability recomputed.
func (it Item) WithQuantity(q int) Item {
	it.Quantity = q
	it.Available = q > 0
	return it
}

func (it Item) Validate() error {
	switch {
	case it.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidItem)
	case it.Price.IsNegative():
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidItem)
	case it.Quantity < 0:
		return fmt.Errorf("%w: quantity cannot be negative", ErrInvalidItem)
	}
	return nil
}

// SeedItems is the starter menu; Chicken Momos starts sold out.
func SeedItems() []Item {
	mk := func(name, category string, price int64, typ string, qty int) Item {
		return Item{
			Name:     name,
			Category: category,
			Price:    decimal.NewFromInt(price),
			ImageRef: "https://placehold.co/600x400?text=" + name,
			Type:     typ,
		}.WithQuantity(qty)
	}
	return []Item{
		mk("Veg Burger", "Snacks", 50, "Veg", 50),
		mk("Chicken Roll", "Snacks", 80, "Non-Veg", 50),
		mk("Masala Chai", "Drinks", 15, "Veg", 100),
		mk("Cold Coffee", "Drinks", 60, "Veg", 100),
		mk("Chicken Momos", "Snacks", 100, "Non-Veg", 0),
	}
}
