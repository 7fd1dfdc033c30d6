package domain

import "time"

// ReversalEligible reports whether a debit created at createdAt may still be
// reversed at now. The rule is elapsed time within the window; a createdAt in
// the future (clock skew between writers) yields a non-positive elapsed time
// and is therefore eligible.
func ReversalEligible(createdAt, now time.Time, window time.Duration) bool {
	return now.Sub(createdAt) <= window
}

// ReversibleUntil returns the instant after which the debit can no longer be
// reversed. Clients derive their countdown from this; the server re-evaluates
// ReversalEligible on every request and is the only authority.
func ReversibleUntil(createdAt time.Time, window time.Duration) time.Time {
	return createdAt.Add(window)
}
