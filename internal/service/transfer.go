package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sablebank/ledger/internal/domain"
	"github.com/sablebank/ledger/internal/models"
	"github.com/sablebank/ledger/internal/repository"
)

// TransferService records outbound debits against a sender's account.
type TransferService struct {
	store    QueryStore
	audit    *AuditService
	validate *validator.Validate
}

func NewTransferService(store QueryStore, audit *AuditService) *TransferService {
	return &TransferService{
		store:    store,
		audit:    audit,
		validate: validator.New(),
	}
}

// SubmitTransferInput carries the transfer form fields. Bounds follow the
// client-side schema; the service re-validates because the client is not a
// trust boundary.
type SubmitTransferInput struct {
	AccountID        uuid.UUID       `validate:"required"`
	RecipientAccount string          `validate:"required,min=5,max=50"`
	RecipientName    string          `validate:"required,min=2,max=100"`
	Amount           decimal.Decimal `validate:"-"`
	Description      string          `validate:"omitempty,max=200"`
}

// Submit validates the transfer, then records the debit and decrements the
// sender balance as one database transaction. Either both effects commit or
// neither is observable.
func (s *TransferService) Submit(ctx context.Context, callerID uuid.UUID, in SubmitTransferInput) (*models.Transaction, error) {
	in.RecipientAccount = strings.TrimSpace(in.RecipientAccount)
	in.RecipientName = strings.TrimSpace(in.RecipientName)
	in.Description = strings.TrimSpace(in.Description)

	if err := s.validateInput(in); err != nil {
		return nil, err
	}

	cents, err := domain.CentsFromDecimal(in.Amount)
	if err != nil {
		return nil, &models.ValidationError{Fields: map[string]string{"amount": err.Error()}}
	}

	description := in.Description
	if description == "" {
		description = domain.DefaultTransferDescription
	}

	tx := &models.Transaction{
		ID:               uuid.New(),
		AccountID:        in.AccountID,
		UserID:           callerID,
		Type:             domain.TxTypeDebit,
		Amount:           cents,
		RecipientAccount: in.RecipientAccount,
		RecipientName:    in.RecipientName,
		Description:      description,
		Status:           domain.TxStatusCompleted,
	}

	err = s.store.RunInTx(ctx, func(q *repository.Queries) error {
		account, err := q.GetAccountForUpdate(ctx, in.AccountID)
		if err != nil {
			return err
		}
		if account.UserID != callerID {
			return models.ErrForbidden
		}
		if account.Balance < cents {
			return models.ErrInsufficientFunds
		}

		if err := q.InsertTransaction(ctx, tx); err != nil {
			return fmt.Errorf("%w: %v", models.ErrInsertFailed, err)
		}
		if _, err := q.AddToAccountBalance(ctx, account.ID, -cents); err != nil {
			if errors.Is(err, models.ErrInsufficientFunds) {
				return models.ErrInsufficientFunds
			}
			return fmt.Errorf("%w: %v", models.ErrUpdateFailed, err)
		}

		meta, _ := json.Marshal(map[string]any{
			"amount":            cents,
			"recipient_account": tx.RecipientAccount,
		})
		return s.audit.Write(ctx, q, "transaction", tx.ID, &callerID, "transfer.submitted", "", domain.TxStatusCompleted, meta)
	})
	if err != nil {
		return nil, err
	}

	return tx, nil
}

func (s *TransferService) validateInput(in SubmitTransferInput) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &models.ValidationError{Fields: map[string]string{"input": err.Error()}}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[strings.ToLower(fe.Field())] = fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
	return &models.ValidationError{Fields: fields}
}
