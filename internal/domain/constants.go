package domain

import (
	"strings"

	"github.com/google/uuid"
)

const (
	TxTypeDebit  = "debit"
	TxTypeCredit = "credit"

	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusFailed    = "failed"

	// DefaultTransferDescription is recorded when the sender leaves the
	// description blank.
	DefaultTransferDescription = "Money transfer"

	// ReversalMarkerPrefix tags the compensating credit of a reversed debit.
	// The full marker is the prefix followed by the original transaction id,
	// so each marker resolves to exactly one original transaction. A partial
	// unique index on transactions.description covers rows carrying this
	// prefix, which is what makes reversal idempotent under concurrency.
	ReversalMarkerPrefix = "WRONG_PAYMENT_REVERSAL:"
)

// ReversalMarker returns the deterministic marker for the reversal of the
// given debit transaction.
func ReversalMarker(transactionID uuid.UUID) string {
	return ReversalMarkerPrefix + transactionID.String()
}

// IsReversalMarker reports whether a transaction description tags the row as
// a compensating credit.
func IsReversalMarker(description string) bool {
	return strings.HasPrefix(description, ReversalMarkerPrefix)
}
