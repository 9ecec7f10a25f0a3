package notify

const (
	EventNotificationRequested = "NotificationRequested"
	TopicOutbound              = "notify.outbound"
)

type NotificationRequestedPayload struct {
	EntryID string `json:"entry_id"`
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}
