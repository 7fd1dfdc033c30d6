package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Account struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	AccountNumber string    `json:"account_number"`
	Currency      string    `json:"currency"`
	Balance       int64     `json:"balance"` // cents
	// OpeningBalance is fixed at account creation; reconciliation checks
	// balance == opening_balance + credits - debits.
	OpeningBalance int64     `json:"opening_balance"`
	CreatedAt      time.Time `json:"created_at"`
}

// Transaction is an append-only ledger entry. type, amount and created_at are
// immutable once inserted; reversal inserts a compensating credit instead of
// editing the original row.
type Transaction struct {
	ID               uuid.UUID `json:"id"`
	AccountID        uuid.UUID `json:"account_id"`
	UserID           uuid.UUID `json:"user_id"`
	Type             string    `json:"type"`   // "debit" or "credit"
	Amount           int64     `json:"amount"` // cents, always positive
	RecipientAccount string    `json:"recipient_account"`
	RecipientName    string    `json:"recipient_name"`
	Description      string    `json:"description"`
	Status           string    `json:"status"` // "pending", "completed", "failed"
	CreatedAt        time.Time `json:"created_at"`
}

// RecipientAccount is a directory entry for the transfer recipient picker.
type RecipientAccount struct {
	AccountNumber string `json:"account_number"`
	FullName      string `json:"full_name"`
}
