package redisx

import "time"

const (
	// Idempotent order placement: idem:order:place:{user_id}:{key} -> order_id
	KeyIdemPlaceOrder = "idem:order:place:%s:%s"

	// Lock held while the first request with a key is in flight.
	KeyIdemLock = "idem:lock:%s:%s"

	// Cached order history: order_history:{user_id} -> JSON array
	KeyOrderHistory = "order_history:%s"

	// Bumped on every append; a history read only fills the cache if it is
	// unchanged: order_history_gen:{user_id} -> counter
	KeyOrderHistoryGen = "order_history_gen:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Notification already accepted: notify:sent:{user_id}:{key}
	KeyNotifySent = "notify:sent:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLIdemLock    = 30 * time.Second
	TTLHistory     = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
