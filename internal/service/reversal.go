package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sablebank/ledger/internal/domain"
	"github.com/sablebank/ledger/internal/models"
	"github.com/sablebank/ledger/internal/repository"
)

// ReversalService undoes a debit exactly once, within the configured window,
// for the transaction owner only.
type ReversalService struct {
	store  QueryStore
	audit  *AuditService
	window time.Duration
	now    func() time.Time
}

func NewReversalService(store QueryStore, audit *AuditService, window time.Duration) *ReversalService {
	return &ReversalService{
		store:  store,
		audit:  audit,
		window: window,
		now:    time.Now,
	}
}

// WithClock overrides the time source. Tests use it to sit exactly on the
// window boundary.
func (s *ReversalService) WithClock(now func() time.Time) *ReversalService {
	if now != nil {
		s.now = now
	}
	return s
}

// Window returns the authoritative reversal window.
func (s *ReversalService) Window() time.Duration {
	return s.window
}

// Reverse runs the ordered reversal checks and, if all pass, credits the
// account and inserts the compensating transaction in one database
// transaction. The FOR UPDATE locks on the original transaction and the
// account serialize concurrent attempts for the same id; the partial unique
// index on the reversal marker backstops the idempotency check, so at most
// one reversal record can ever exist per original transaction.
func (s *ReversalService) Reverse(ctx context.Context, callerID, transactionID uuid.UUID) error {
	return s.store.RunInTx(ctx, func(q *repository.Queries) error {
		original, err := q.GetTransactionForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}

		if original.UserID != callerID {
			return models.ErrForbidden
		}

		if original.Type != domain.TxTypeDebit {
			return models.ErrInvalidTransactionType
		}

		if !domain.ReversalEligible(original.CreatedAt, s.now(), s.window) {
			return models.ErrTimeWindowPassed
		}

		marker := domain.ReversalMarker(original.ID)
		existing, err := q.FindTransactionByMarker(ctx, marker)
		if err != nil {
			return err
		}
		if existing != nil {
			return models.ErrAlreadyReversed
		}

		account, err := q.GetAccountForUpdate(ctx, original.AccountID)
		if err != nil {
			return err
		}
		if account.UserID != callerID {
			return models.ErrForbidden
		}

		if _, err := q.AddToAccountBalance(ctx, account.ID, original.Amount); err != nil {
			return fmt.Errorf("%w: %v", models.ErrUpdateFailed, err)
		}

		reversal := &models.Transaction{
			ID:               uuid.New(),
			AccountID:        account.ID,
			UserID:           callerID,
			Type:             domain.TxTypeCredit,
			Amount:           original.Amount,
			RecipientAccount: original.RecipientAccount,
			RecipientName:    original.RecipientName,
			Description:      marker,
			Status:           domain.TxStatusCompleted,
		}
		if err := q.InsertTransaction(ctx, reversal); err != nil {
			if isUniqueViolation(err) {
				// Lost a race on the marker index. Rolling back here also
				// undoes the balance credit above.
				return models.ErrAlreadyReversed
			}
			return fmt.Errorf("%w: %v", models.ErrInsertFailed, err)
		}

		meta, _ := json.Marshal(map[string]any{
			"original_transaction_id": original.ID,
			"amount":                  original.Amount,
		})
		return s.audit.Write(ctx, q, "transaction", original.ID, &callerID, "transaction.reversed", domain.TxStatusCompleted, domain.TxStatusCompleted, meta)
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
