package models

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the ledger core. Handlers map these to the wire codes;
// services never write HTTP statuses themselves.
var (
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrAccountNotFound        = errors.New("account not found")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrForbidden              = errors.New("caller does not own the resource")
	ErrInvalidTransactionType = errors.New("only debit transactions are reversible")
	ErrTimeWindowPassed       = errors.New("reversal window has passed")
	ErrAlreadyReversed        = errors.New("transaction already reversed")

	// Transient store failures; the whole request is safe to retry because
	// mutations are committed atomically or not at all.
	ErrUpdateFailed = errors.New("balance update failed")
	ErrInsertFailed = errors.New("transaction insert failed")
)

// ValidationError carries field-level messages for malformed input. It is
// returned before any store access.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
