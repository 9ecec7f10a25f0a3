package orders

const TopicOrderPlaced = "order.placed"

// Partition key = user id, so one user's orders stay in order.
func PartitionKey(userID string) []byte { return []byte(userID) }
