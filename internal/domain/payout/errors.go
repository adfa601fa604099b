package payout

// ErrActiveHold indicates the creator has a payout under hold; no new payout
// may be created until an operator releases it
type ErrActiveHold struct {
	CreatorID string
}

func (e ErrActiveHold) Error() string {
	return "creator has an active payout hold: " + e.CreatorID
}

// Is implements errors.Is matching for ErrActiveHold
func (e ErrActiveHold) Is(target error) bool {
	t, ok := target.(ErrActiveHold)
	if !ok {
		return false
	}
	if t.CreatorID == "" {
		return true
	}
	return e.CreatorID == t.CreatorID
}

// ErrNoEarnings indicates the creator earned nothing in the payout period
type ErrNoEarnings struct {
	CreatorID string
}

func (e ErrNoEarnings) Error() string {
	return "creator has no earnings for the period: " + e.CreatorID
}

// Is implements errors.Is matching for ErrNoEarnings
func (e ErrNoEarnings) Is(target error) bool {
	t, ok := target.(ErrNoEarnings)
	if !ok {
		return false
	}
	if t.CreatorID == "" {
		return true
	}
	return e.CreatorID == t.CreatorID
}

// ErrFraudHold indicates the payout was placed on hold by the fraud policy.
// Only explicit operator action resolves it.
type ErrFraudHold struct {
	CreatorID string
	Reason    string
}

func (e ErrFraudHold) Error() string {
	return "payout held by fraud policy for creator " + e.CreatorID + ": " + e.Reason
}

// Is implements errors.Is matching for ErrFraudHold
func (e ErrFraudHold) Is(target error) bool {
	t, ok := target.(ErrFraudHold)
	if !ok {
		return false
	}
	if t.CreatorID == "" {
		return true
	}
	return e.CreatorID == t.CreatorID
}
