package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sablebank/ledger/internal/models"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so every query can run
// standalone or inside a transaction scope.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries is the hand-written query set over the ledger schema.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx rebinds the query set to a transaction.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

func (q *Queries) CreateUser(ctx context.Context, user *models.User) error {
	err := q.db.QueryRow(ctx,
		`INSERT INTO users (id, username, email, full_name, role, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 RETURNING created_at`,
		user.ID, user.Username, user.Email, user.FullName, user.Role,
	).Scan(&user.CreatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (q *Queries) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	err := q.db.QueryRow(ctx,
		`SELECT id, username, email, full_name, role, created_at FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Username, &user.Email, &user.FullName, &user.Role, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (q *Queries) CreateAccount(ctx context.Context, account *models.Account) error {
	err := q.db.QueryRow(ctx,
		`INSERT INTO accounts (id, user_id, account_number, currency, balance, opening_balance, created_at)
		 VALUES ($1, $2, $3, $4, $5, $5, NOW())
		 RETURNING opening_balance, created_at`,
		account.ID, account.UserID, account.AccountNumber, account.Currency, account.Balance,
	).Scan(&account.OpeningBalance, &account.CreatedAt)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

const accountColumns = `id, user_id, account_number, currency, balance, opening_balance, created_at`

func (q *Queries) getAccount(ctx context.Context, sql string, id uuid.UUID) (*models.Account, error) {
	account := &models.Account{}
	err := q.db.QueryRow(ctx, sql, id).Scan(
		&account.ID, &account.UserID, &account.AccountNumber, &account.Currency,
		&account.Balance, &account.OpeningBalance, &account.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

func (q *Queries) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return q.getAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// GetAccountForUpdate locks the account row for the duration of the enclosing
// transaction. Callers must be inside RunInTx.
func (q *Queries) GetAccountForUpdate(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return q.getAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)
}

// GetUserAccount returns the single account owned by a user.
func (q *Queries) GetUserAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	account := &models.Account{}
	err := q.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1`, userID,
	).Scan(
		&account.ID, &account.UserID, &account.AccountNumber, &account.Currency,
		&account.Balance, &account.OpeningBalance, &account.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user account: %w", err)
	}
	return account, nil
}

// AddToAccountBalance applies one signed delta as a single guarded update.
// The balance CHECK constraint can never fire because the WHERE clause
// refuses deltas that would take the balance negative; zero rows means the
// guard rejected the update.
func (q *Queries) AddToAccountBalance(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	var newBalance int64
	err := q.db.QueryRow(ctx,
		`UPDATE accounts SET balance = balance + $1
		 WHERE id = $2 AND balance + $1 >= 0
		 RETURNING balance`,
		delta, id,
	).Scan(&newBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, models.ErrInsufficientFunds
	}
	if err != nil {
		return 0, fmt.Errorf("update account balance: %w", err)
	}
	return newBalance, nil
}

const transactionColumns = `id, account_id, user_id, type, amount, recipient_account, recipient_name, description, status, created_at`

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	tx := &models.Transaction{}
	err := row.Scan(
		&tx.ID, &tx.AccountID, &tx.UserID, &tx.Type, &tx.Amount,
		&tx.RecipientAccount, &tx.RecipientName, &tx.Description, &tx.Status, &tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (q *Queries) GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	tx, err := scanTransaction(q.db.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

// GetTransactionForUpdate locks the original transaction row, serializing
// concurrent reversal attempts for the same transaction id.
func (q *Queries) GetTransactionForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	tx, err := scanTransaction(q.db.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction for update: %w", err)
	}
	return tx, nil
}

func (q *Queries) InsertTransaction(ctx context.Context, tx *models.Transaction) error {
	err := q.db.QueryRow(ctx,
		`INSERT INTO transactions (id, account_id, user_id, type, amount, recipient_account, recipient_name, description, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		 RETURNING created_at`,
		tx.ID, tx.AccountID, tx.UserID, tx.Type, tx.Amount,
		tx.RecipientAccount, tx.RecipientName, tx.Description, tx.Status,
	).Scan(&tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// FindTransactionByMarker looks up a compensating credit by its exact
// reversal marker. Returns (nil, nil) when no reversal exists.
func (q *Queries) FindTransactionByMarker(ctx context.Context, marker string) (*models.Transaction, error) {
	tx, err := scanTransaction(q.db.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE description = $1 LIMIT 1`, marker))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find transaction by marker: %w", err)
	}
	return tx, nil
}

// ListAccountTransactions returns the newest entries first.
func (q *Queries) ListAccountTransactions(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE account_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		tx := models.Transaction{}
		if err := rows.Scan(
			&tx.ID, &tx.AccountID, &tx.UserID, &tx.Type, &tx.Amount,
			&tx.RecipientAccount, &tx.RecipientName, &tx.Description, &tx.Status, &tx.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// ListRecipientAccounts returns the directory of other users' accounts for
// the transfer recipient picker.
func (q *Queries) ListRecipientAccounts(ctx context.Context, excludeUserID uuid.UUID) ([]models.RecipientAccount, error) {
	rows, err := q.db.Query(ctx,
		`SELECT a.account_number, u.full_name
		 FROM accounts a
		 JOIN users u ON u.id = a.user_id
		 WHERE a.user_id <> $1
		 ORDER BY u.full_name`,
		excludeUserID)
	if err != nil {
		return nil, fmt.Errorf("list recipient accounts: %w", err)
	}
	defer rows.Close()

	var recipients []models.RecipientAccount
	for rows.Next() {
		var r models.RecipientAccount
		if err := rows.Scan(&r.AccountNumber, &r.FullName); err != nil {
			return nil, fmt.Errorf("scan recipient account: %w", err)
		}
		recipients = append(recipients, r)
	}
	return recipients, rows.Err()
}

// LedgerDrift is an account whose balance disagrees with its entries.
type LedgerDrift struct {
	AccountID uuid.UUID
	Currency  string
	Balance   int64
	Expected  int64
}

// ListLedgerDrift returns accounts violating the conservation invariant
// balance == opening_balance + credits - debits.
func (q *Queries) ListLedgerDrift(ctx context.Context) ([]LedgerDrift, error) {
	rows, err := q.db.Query(ctx, `
		SELECT a.id, a.currency, a.balance,
		       a.opening_balance + COALESCE(SUM(
		           CASE WHEN t.type = 'credit' THEN t.amount ELSE -t.amount END
		       ), 0) AS expected
		FROM accounts a
		LEFT JOIN transactions t ON t.account_id = a.id AND t.status = 'completed'
		GROUP BY a.id, a.currency, a.balance, a.opening_balance
		HAVING a.balance <> a.opening_balance + COALESCE(SUM(
		    CASE WHEN t.type = 'credit' THEN t.amount ELSE -t.amount END
		), 0)`)
	if err != nil {
		return nil, fmt.Errorf("ledger drift query: %w", err)
	}
	defer rows.Close()

	var drifts []LedgerDrift
	for rows.Next() {
		var d LedgerDrift
		if err := rows.Scan(&d.AccountID, &d.Currency, &d.Balance, &d.Expected); err != nil {
			return nil, fmt.Errorf("scan ledger drift: %w", err)
		}
		drifts = append(drifts, d)
	}
	return drifts, rows.Err()
}

type InsertAuditLogParams struct {
	EntityType string
	EntityID   uuid.UUID
	ActorID    *uuid.UUID
	Action     string
	PrevState  string
	NextState  string
	Metadata   []byte
}

func (q *Queries) InsertAuditLog(ctx context.Context, p InsertAuditLogParams) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO audit_log (entity_type, entity_id, actor_id, action, prev_state, next_state, metadata, created_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, NOW())`,
		p.EntityType, p.EntityID, p.ActorID, p.Action, p.PrevState, p.NextState, p.Metadata)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
