package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sablebank/ledger/internal/repository"
)

func TestReconciliation_Balanced(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := repository.NewStore(db)

	user := createTestUser(t, db, "Ada Lovelace")
	account := createTestAccount(t, db, user.ID, 1000_00)

	// A transfer followed by its reversal leaves the ledger conserved.
	tx, err := newTransferService(store).Submit(context.Background(), user.ID, SubmitTransferInput{
		AccountID:        account.ID,
		RecipientAccount: "SAI000000042",
		RecipientName:    "Grace Hopper",
		Amount:           decimal.RequireFromString("250.00"),
	})
	require.NoError(t, err)
	require.NoError(t, newReversalService(store).Reverse(context.Background(), user.ID, tx.ID))

	drifts, err := store.Queries().ListLedgerDrift(context.Background())
	require.NoError(t, err)
	assert.Empty(t, drifts)

	require.NoError(t, NewReconciliationService(store).Run(context.Background()))
}

func TestReconciliation_DetectsDrift(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := repository.NewStore(db)

	user := createTestUser(t, db, "Ada Lovelace")
	account := createTestAccount(t, db, user.ID, 1000_00)
	insertDebit(t, db, account, 250_00, time.Now())

	// Corrupt the balance behind the ledger's back.
	_, err := db.Exec(context.Background(),
		`UPDATE accounts SET balance = balance + 1 WHERE id = $1`, account.ID)
	require.NoError(t, err)

	drifts, err := store.Queries().ListLedgerDrift(context.Background())
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	assert.Equal(t, account.ID, drifts[0].AccountID)
	assert.Equal(t, int64(750_01), drifts[0].Balance)
	assert.Equal(t, int64(750_00), drifts[0].Expected)

	// Run only reports; it never mutates balances.
	require.NoError(t, NewReconciliationService(store).Run(context.Background()))
	assert.Equal(t, int64(750_01), accountBalance(t, db, account.ID))
}
