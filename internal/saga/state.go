package saga

type State string

const (
	StateStarted          State = "STARTED"
	StateItemFetched      State = "ITEM_FETCHED"
	StateStockOK          State = "STOCK_OK"
	StateFundsDebited     State = "FUNDS_DEBITED"
	StateStockDecremented State = "STOCK_DECREMENTED"
	StateOrderPersisted   State = "ORDER_PERSISTED"
	StateNotified         State = "NOTIFIED"
	StateDone             State = "DONE"
	StateFailed           State = "FAILED"
)

// Best-effort steps may be skipped: FUNDS_DEBITED can go straight to
// ORDER_PERSISTED and ORDER_PERSISTED straight to DONE. The only way to
// FAILED after the debit is a persistence failure.
var validNext = map[State]map[State]bool{
	StateStarted:          {StateItemFetched: true, StateFailed: true},
	StateItemFetched:      {StateStockOK: true, StateFailed: true},
	StateStockOK:          {StateFundsDebited: true, StateFailed: true},
	StateFundsDebited:     {StateStockDecremented: true, StateOrderPersisted: true, StateFailed: true},
	StateStockDecremented: {StateOrderPersisted: true, StateFailed: true},
	StateOrderPersisted:   {StateNotified: true, StateDone: true},
	StateNotified:         {StateDone: true},
	StateDone:             {},
	StateFailed:           {},
}

func CanTransition(from, to State) bool {
	return validNext[from][to]
}

// Committed reports whether funds have been taken in this state.
func (s State) Committed() bool {
	switch s {
	case StateFundsDebited, StateStockDecremented, StateOrderPersisted, StateNotified, StateDone:
		return true
	}
	return false
}
