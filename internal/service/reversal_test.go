package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sablebank/ledger/internal/domain"
	"github.com/sablebank/ledger/internal/models"
	"github.com/sablebank/ledger/internal/repository"
)

const reversalWindow = 15 * time.Minute

func newReversalService(store *repository.Store) *ReversalService {
	return NewReversalService(store, NewAuditService(), reversalWindow)
}

func TestReverse(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := repository.NewStore(db)

	user := createTestUser(t, db, "Ada Lovelace")
	account := createTestAccount(t, db, user.ID, 1000_00)
	txID := insertDebit(t, db, account, 250_00, time.Now())
	require.Equal(t, int64(750_00), accountBalance(t, db, account.ID))

	err := newReversalService(store).Reverse(context.Background(), user.ID, txID)
	require.NoError(t, err)

	// Balance restored exactly.
	assert.Equal(t, int64(1000_00), accountBalance(t, db, account.ID))

	// A compensating credit carrying the marker exists, and the original
	// debit is untouched.
	reversal, err := store.Queries().FindTransactionByMarker(context.Background(), domain.ReversalMarker(txID))
	require.NoError(t, err)
	require.NotNil(t, reversal)
	assert.Equal(t, domain.TxTypeCredit, reversal.Type)
	assert.Equal(t, int64(250_00), reversal.Amount)
	assert.Equal(t, domain.TxStatusCompleted, reversal.Status)
	assert.Equal(t, "Test Recipient", reversal.RecipientName)

	original, err := store.Queries().GetTransaction(context.Background(), txID)
	require.NoError(t, err)
	assert.Equal(t, domain.TxTypeDebit, original.Type)
	assert.Equal(t, domain.TxStatusCompleted, original.Status)
}

func TestReverse_TransferThenReverse(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := repository.NewStore(db)

	user := createTestUser(t, db, "Ada Lovelace")
	account := createTestAccount(t, db, user.ID, 1000_00)

	tx, err := newTransferService(store).Submit(context.Background(), user.ID, SubmitTransferInput{
		AccountID:        account.ID,
		RecipientAccount: "SAI000000042",
		RecipientName:    "Grace Hopper",
		Amount:           decimal.RequireFromString("250.00"),
	})
	require.NoError(t, err)
	require.Equal(t, int64(750_00), accountBalance(t, db, account.ID))

	require.NoError(t, newReversalService(store).Reverse(context.Background(), user.ID, tx.ID))
	assert.Equal(t, int64(1000_00), accountBalance(t, db, account.ID))
}

func TestReverse_AlreadyReversed(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := repository.NewStore(db)

	user := createTestUser(t, db, "Ada Lovelace")
	account := createTestAccount(t, db, user.ID, 1000_00)
	txID := insertDebit(t, db, account, 250_00, time.Now())

	svc := newReversalService(store)
	require.NoError(t, svc.Reverse(context.Background(), user.ID, txID))

	err := svc.Reverse(context.Background(), user.ID, txID)
	assert.ErrorIs(t, err, models.ErrAlreadyReversed)

	// The second attempt must not credit the account again.
	assert.Equal(t, int64(1000_00), accountBalance(t, db, account.ID))
}

func TestReverse_WindowPassed(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := repository.NewStore(db)

	user := createTestUser(t, db, "Ada Lovelace")
	account := createTestAccount(t, db, user.ID, 1000_00)
	txID := insertDebit(t, db, account, 250_00, time.Now().Add(-16*time.Minute))

	err := newReversalService(store).Reverse(context.Background(), user.ID, txID)
	assert.ErrorIs(t, err, models.ErrTimeWindowPassed)
	assert.Equal(t, int64(750_00), accountBalance(t, db, account.ID))
}

func TestReverse_WindowBoundary(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := repository.NewStore(db)

	user := createTestUser(t, db, "Ada Lovelace")
	account := createTestAccount(t, db, user.ID, 1000_00)

	// Postgres stores timestamps at microsecond precision; truncate so the
	// pinned clock below matches the stored created_at exactly.
	createdAt := time.Now().Add(-time.Hour).Truncate(time.Microsecond)
	txID := insertDebit(t, db, account, 250_00, createdAt)

	// Pin the clock exactly at the window edge: still eligible.
	svc := newReversalService(store).WithClock(func() time.Time {
		return createdAt.Add(reversalWindow)
	})
	require.NoError(t, svc.Reverse(context.Background(), user.ID, txID))
}

func TestReverse_WrongType(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := repository.NewStore(db)

	user := createTestUser(t, db, "Ada Lovelace")
	account := createTestAccount(t, db, user.ID, 1000_00)

	credit := &models.Transaction{
		ID:        uuid.New(),
		AccountID: account.ID,
		UserID:    user.ID,
		Type:      domain.TxTypeCredit,
		Amount:    100_00,
		Status:    domain.TxStatusCompleted,
	}
	require.NoError(t, store.Queries().InsertTransaction(context.Background(), credit))

	err := newReversalService(store).Reverse(context.Background(), user.ID, credit.ID)
	assert.ErrorIs(t, err, models.ErrInvalidTransactionType)
}

func TestReverse_Forbidden(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := repository.NewStore(db)

	owner := createTestUser(t, db, "Ada Lovelace")
	account := createTestAccount(t, db, owner.ID, 1000_00)
	txID := insertDebit(t, db, account, 250_00, time.Now())

	intruder := createTestUser(t, db, "Mallory Intruder")

	err := newReversalService(store).Reverse(context.Background(), intruder.ID, txID)
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.Equal(t, int64(750_00), accountBalance(t, db, account.ID))
}

func TestReverse_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := repository.NewStore(db)

	user := createTestUser(t, db, "Ada Lovelace")

	err := newReversalService(store).Reverse(context.Background(), user.ID, uuid.New())
	assert.ErrorIs(t, err, models.ErrTransactionNotFound)
}

func TestReverse_Concurrent(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := repository.NewStore(db)

	user := createTestUser(t, db, "Ada Lovelace")
	account := createTestAccount(t, db, user.ID, 1000_00)
	txID := insertDebit(t, db, account, 250_00, time.Now())

	svc := newReversalService(store)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Reverse(context.Background(), user.ID, txID)
		}(i)
	}
	wg.Wait()

	var successes int
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, models.ErrAlreadyReversed)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, int64(1000_00), accountBalance(t, db, account.ID))
}
