package domain

import "time"

// Subscription is a single newsletter signup held in the directory store.
// Email is the identity key and is always stored lowercase and trimmed.
type Subscription struct {
	ID        string    `json:"id" db:"id" dynamodbav:"ID"`
	Email     string    `json:"email" db:"email" dynamodbav:"Email"`
	Source    string    `json:"source,omitempty" db:"source" dynamodbav:"Source,omitempty"`
	CreatedAt time.Time `json:"created_at" db:"created_at" dynamodbav:"CreatedAt"`
}

// FallbackAction names the lifecycle operation that fell back.
type FallbackAction string

const (
	ActionSubscribe   FallbackAction = "subscribe"
	ActionUnsubscribe FallbackAction = "unsubscribe"
)

// FallbackEntry records a request that could not be confirmed by the directory
// store. Entries are appended to the fallback journal so they can be replayed.
type FallbackEntry struct {
	ID         string         `json:"id"`
	Email      string         `json:"email"`
	Action     FallbackAction `json:"action"`
	Source     string         `json:"source,omitempty"`
	Reason     string         `json:"reason"`
	OccurredAt time.Time      `json:"occurred_at"`
}
