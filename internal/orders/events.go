package orders

import "github.com/shopspring/decimal"

const EventOrderPlaced = "OrderPlaced"

// OrderPlacedPayload is published once per CONFIRMED record.
type OrderPlacedPayload struct {
	OrderID  string          `json:"order_id"`
	UserID   string          `json:"user_id"`
	ItemID   string          `json:"item_id"`
	ItemName string          `json:"item_name"`
	Amount   decimal.Decimal `json:"amount"`
}

func PlacedPayload(r Record) OrderPlacedPayload {
	return OrderPlacedPayload{
		OrderID:  r.ID,
		UserID:   r.UserID,
		ItemID:   r.ItemID,
		ItemName: r.ItemName,
		Amount:   r.Amount,
	}
}
