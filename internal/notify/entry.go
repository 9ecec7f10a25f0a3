package notify

import (
	"errors"
	"time"
)

var (
	ErrInvalidEntry = errors.New("invalid notification")
	// ErrUnavailable marks transport and timeout failures of the notifier.
	ErrUnavailable = errors.New("notifier unavailable")
	// ErrDuplicate is returned by Service.Send for a key it has already accepted.
	ErrDuplicate = errors.New("notification already sent")
)

// Entry is one line of a user's notification audit trail.
type Entry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
