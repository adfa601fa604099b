package idempotency

import "time"

// Status tracks the lifecycle of an idempotent operation
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Record is a unique-constraint mutex for any operation that must have
// exactly one effect under retries. Inserting an IN_PROGRESS row for
// (channel, scope, key) is the acquire; a concurrent caller using the same
// key fails fast instead of blocking.
type Record struct {
	ChannelID   string    `json:"channel_id"`
	Scope       string    `json:"scope"`
	Key         string    `json:"key"`
	RequestHash string    `json:"request_hash"`
	Result      []byte    `json:"result,omitempty"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
