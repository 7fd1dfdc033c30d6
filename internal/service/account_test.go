package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sablebank/ledger/internal/domain"
	"github.com/sablebank/ledger/internal/repository"
)

func TestGetStatement_ReversibleUntil(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := repository.NewStore(db)

	user := createTestUser(t, db, "Ada Lovelace")
	account := createTestAccount(t, db, user.ID, 1000_00)

	recentID := insertDebit(t, db, account, 100_00, time.Now())
	staleID := insertDebit(t, db, account, 50_00, time.Now().Add(-time.Hour))

	svc := NewAccountService(store, reversalWindow)
	entries, err := svc.GetStatement(context.Background(), account.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byID := map[string]StatementEntry{}
	for _, e := range entries {
		byID[e.ID.String()] = e
	}

	recent := byID[recentID.String()]
	require.NotNil(t, recent.ReversibleUntil)
	assert.WithinDuration(t, recent.CreatedAt.Add(reversalWindow), *recent.ReversibleUntil, time.Second)

	stale := byID[staleID.String()]
	assert.Nil(t, stale.ReversibleUntil)
}

func TestGetStatement_ReversalCreditNotFlagged(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := repository.NewStore(db)

	user := createTestUser(t, db, "Ada Lovelace")
	account := createTestAccount(t, db, user.ID, 1000_00)
	txID := insertDebit(t, db, account, 100_00, time.Now())
	require.NoError(t, newReversalService(store).Reverse(context.Background(), user.ID, txID))

	entries, err := NewAccountService(store, reversalWindow).GetStatement(context.Background(), account.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	for _, e := range entries {
		if domain.IsReversalMarker(e.Description) {
			assert.Equal(t, domain.TxTypeCredit, e.Type)
			assert.Nil(t, e.ReversibleUntil)
		}
	}
}

func TestListRecipients_ExcludesCaller(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := repository.NewStore(db)

	caller := createTestUser(t, db, "Ada Lovelace")
	createTestAccount(t, db, caller.ID, 0)

	other := createTestUser(t, db, "Grace Hopper")
	otherAccount := createTestAccount(t, db, other.ID, 0)

	recipients, err := NewAccountService(store, reversalWindow).ListRecipients(context.Background(), caller.ID)
	require.NoError(t, err)
	require.Len(t, recipients, 1)
	assert.Equal(t, otherAccount.AccountNumber, recipients[0].AccountNumber)
	assert.Equal(t, "Grace Hopper", recipients[0].FullName)
}

func TestCreateAccount(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := repository.NewStore(db)

	user := createTestUser(t, db, "Ada Lovelace")

	account, err := NewAccountService(store, reversalWindow).CreateAccount(context.Background(), user.ID, "USD", 500_00)
	require.NoError(t, err)

	assert.Regexp(t, `^SAI\d{9}$`, account.AccountNumber)
	assert.Equal(t, int64(500_00), account.Balance)
	assert.Equal(t, int64(500_00), account.OpeningBalance)
}
