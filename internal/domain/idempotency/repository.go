package idempotency

import "context"

// Repository implements the idempotency mutex over a durable store. The
// acquire must use the store's unique-constraint primitive, not an
// in-process lock, because the service runs as multiple instances.
type Repository interface {
	// Acquire inserts an IN_PROGRESS record for (channel, scope, key). A
	// FAILED record is taken over in place, so acquired=true also covers the
	// retry-after-failure case; losing the takeover race to a concurrent
	// retry fails with ErrInProgress. A COMPLETED or IN_PROGRESS record is
	// returned with acquired=false and nothing is written.
	Acquire(ctx context.Context, rec *Record) (existing *Record, acquired bool, err error)

	// Complete stores the operation result and marks the record COMPLETED
	Complete(ctx context.Context, channelID, scope, key string, result []byte) error

	// Fail marks the record FAILED so a retry with the same key can acquire it
	Fail(ctx context.Context, channelID, scope, key string) error
}

// ErrInProgress indicates the same key is being processed by another caller
type ErrInProgress struct {
	Scope string
	Key   string
}

func (e ErrInProgress) Error() string {
	return "operation in progress for " + e.Scope + "/" + e.Key
}

// Is implements errors.Is matching for ErrInProgress
func (e ErrInProgress) Is(target error) bool {
	t, ok := target.(ErrInProgress)
	if !ok {
		return false
	}
	if t.Scope == "" && t.Key == "" {
		return true
	}
	return e.Scope == t.Scope && e.Key == t.Key
}
