package mail

import "time"

// Delivery is one item handed to the chat provider.
type Delivery struct {
	ThreadID int64
	Kind     string
	Summary  string
	SentAt   time.Time
}
