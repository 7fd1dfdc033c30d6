package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sablebank/ledger/internal/domain"
	"github.com/sablebank/ledger/internal/models"
	"github.com/sablebank/ledger/internal/repository"
)

func newTransferService(db *repository.Store) *TransferService {
	return NewTransferService(db, NewAuditService())
}

func TestTransferSubmit(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := repository.NewStore(db)

	user := createTestUser(t, db, "Ada Lovelace")
	account := createTestAccount(t, db, user.ID, 1000_00)

	svc := newTransferService(store)
	tx, err := svc.Submit(context.Background(), user.ID, SubmitTransferInput{
		AccountID:        account.ID,
		RecipientAccount: "SAI000000042",
		RecipientName:    "Grace Hopper",
		Amount:           decimal.RequireFromString("250.00"),
		Description:      "Rent",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.TxTypeDebit, tx.Type)
	assert.Equal(t, int64(250_00), tx.Amount)
	assert.Equal(t, "Rent", tx.Description)
	assert.Equal(t, domain.TxStatusCompleted, tx.Status)
	assert.False(t, tx.CreatedAt.IsZero())

	assert.Equal(t, int64(750_00), accountBalance(t, db, account.ID))

	stored, err := store.Queries().GetTransaction(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", stored.RecipientName)
}

func TestTransferSubmit_DefaultDescription(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := repository.NewStore(db)

	user := createTestUser(t, db, "Ada Lovelace")
	account := createTestAccount(t, db, user.ID, 100_00)

	tx, err := newTransferService(store).Submit(context.Background(), user.ID, SubmitTransferInput{
		AccountID:        account.ID,
		RecipientAccount: "SAI000000042",
		RecipientName:    "Grace Hopper",
		Amount:           decimal.RequireFromString("10"),
		Description:      "   ",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultTransferDescription, tx.Description)
}

func TestTransferSubmit_InsufficientFunds(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := repository.NewStore(db)

	user := createTestUser(t, db, "Ada Lovelace")
	account := createTestAccount(t, db, user.ID, 50_00)

	_, err := newTransferService(store).Submit(context.Background(), user.ID, SubmitTransferInput{
		AccountID:        account.ID,
		RecipientAccount: "SAI000000042",
		RecipientName:    "Grace Hopper",
		Amount:           decimal.RequireFromString("100.00"),
	})
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)

	// The rejected transfer must not leave a transaction behind.
	txs, qerr := store.Queries().ListAccountTransactions(context.Background(), account.ID, 10, 0)
	require.NoError(t, qerr)
	assert.Empty(t, txs)
	assert.Equal(t, int64(50_00), accountBalance(t, db, account.ID))
}

func TestTransferSubmit_Validation(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := repository.NewStore(db)

	user := createTestUser(t, db, "Ada Lovelace")
	account := createTestAccount(t, db, user.ID, 100_00)
	svc := newTransferService(store)

	cases := []struct {
		name  string
		in    SubmitTransferInput
		field string
	}{
		{
			name: "recipient account too short",
			in: SubmitTransferInput{
				AccountID:        account.ID,
				RecipientAccount: "SAI",
				RecipientName:    "Grace Hopper",
				Amount:           decimal.RequireFromString("10"),
			},
			field: "recipientaccount",
		},
		{
			name: "recipient name too short",
			in: SubmitTransferInput{
				AccountID:        account.ID,
				RecipientAccount: "SAI000000042",
				RecipientName:    "G",
				Amount:           decimal.RequireFromString("10"),
			},
			field: "recipientname",
		},
		{
			name: "zero amount",
			in: SubmitTransferInput{
				AccountID:        account.ID,
				RecipientAccount: "SAI000000042",
				RecipientName:    "Grace Hopper",
				Amount:           decimal.Zero,
			},
			field: "amount",
		},
		{
			name: "amount over maximum",
			in: SubmitTransferInput{
				AccountID:        account.ID,
				RecipientAccount: "SAI000000042",
				RecipientName:    "Grace Hopper",
				Amount:           decimal.RequireFromString("1000000.01"),
			},
			field: "amount",
		},
		{
			name: "sub-cent amount",
			in: SubmitTransferInput{
				AccountID:        account.ID,
				RecipientAccount: "SAI000000042",
				RecipientName:    "Grace Hopper",
				Amount:           decimal.RequireFromString("9.999"),
			},
			field: "amount",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), user.ID, tc.in)
			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tc.field)
		})
	}
}

func TestTransferSubmit_ForbiddenAccount(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := repository.NewStore(db)

	owner := createTestUser(t, db, "Ada Lovelace")
	account := createTestAccount(t, db, owner.ID, 100_00)
	intruder := createTestUser(t, db, "Mallory Intruder")

	_, err := newTransferService(store).Submit(context.Background(), intruder.ID, SubmitTransferInput{
		AccountID:        account.ID,
		RecipientAccount: "SAI000000042",
		RecipientName:    "Grace Hopper",
		Amount:           decimal.RequireFromString("10"),
	})
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.Equal(t, int64(100_00), accountBalance(t, db, account.ID))
}
