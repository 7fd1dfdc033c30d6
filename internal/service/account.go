package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/sablebank/ledger/internal/domain"
	"github.com/sablebank/ledger/internal/models"
)

// AccountService serves balance and statement reads.
type AccountService struct {
	store  QueryStore
	window time.Duration
	now    func() time.Time
}

func NewAccountService(store QueryStore, window time.Duration) *AccountService {
	return &AccountService{store: store, window: window, now: time.Now}
}

// StatementEntry decorates a ledger entry with the display-only reversal
// deadline, derived from the same window constant the processor enforces.
type StatementEntry struct {
	models.Transaction
	ReversibleUntil *time.Time `json:"reversible_until,omitempty"`
}

func (s *AccountService) GetBalance(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	return s.store.Queries().GetAccount(ctx, accountID)
}

func (s *AccountService) GetStatement(ctx context.Context, accountID uuid.UUID, page, pageSize int) ([]StatementEntry, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize

	txs, err := s.store.Queries().ListAccountTransactions(ctx, accountID, pageSize, offset)
	if err != nil {
		return nil, err
	}

	now := s.now()
	entries := make([]StatementEntry, 0, len(txs))
	for _, tx := range txs {
		entry := StatementEntry{Transaction: tx}
		if tx.Type == domain.TxTypeDebit && !domain.IsReversalMarker(tx.Description) &&
			domain.ReversalEligible(tx.CreatedAt, now, s.window) {
			until := domain.ReversibleUntil(tx.CreatedAt, s.window)
			entry.ReversibleUntil = &until
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ListRecipients returns other users' accounts for the transfer picker.
func (s *AccountService) ListRecipients(ctx context.Context, excludeUserID uuid.UUID) ([]models.RecipientAccount, error) {
	return s.store.Queries().ListRecipientAccounts(ctx, excludeUserID)
}

// CreateAccount opens an account with a generated account number and the
// given opening balance.
func (s *AccountService) CreateAccount(ctx context.Context, userID uuid.UUID, currency string, balance int64) (*models.Account, error) {
	if balance < 0 {
		return nil, &models.ValidationError{Fields: map[string]string{"balance": "must not be negative"}}
	}
	account := &models.Account{
		ID:            uuid.New(),
		UserID:        userID,
		AccountNumber: newAccountNumber(),
		Currency:      currency,
		Balance:       balance,
	}
	if err := s.store.Queries().CreateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// newAccountNumber generates numbers like SAI482915306.
func newAccountNumber() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000_000))
	if err != nil {
		n = big.NewInt(time.Now().UnixNano() % 1_000_000_000)
	}
	return fmt.Sprintf("SAI%09d", n.Int64())
}
