package repository

import (
	"context"
	"time"
)

// IdempotencyKeyRow mirrors the idempotency_keys table.
type IdempotencyKeyRow struct {
	IdempotencyKey string
	RequestHash    string
	Method         string
	Path           string
	ResponseStatus int32
	ResponseBody   []byte
	ContentType    string
	InProgress     bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

const idempotencyColumns = `idempotency_key, request_hash, method, path, response_status, response_body, content_type, in_progress, created_at, updated_at`

func (q *Queries) GetIdempotencyKey(ctx context.Context, key string) (IdempotencyKeyRow, error) {
	var row IdempotencyKeyRow
	err := q.db.QueryRow(ctx,
		`SELECT `+idempotencyColumns+` FROM idempotency_keys WHERE idempotency_key = $1`, key,
	).Scan(
		&row.IdempotencyKey, &row.RequestHash, &row.Method, &row.Path,
		&row.ResponseStatus, &row.ResponseBody, &row.ContentType, &row.InProgress,
		&row.CreatedAt, &row.UpdatedAt,
	)
	return row, err
}

type ReserveIdempotencyKeyParams struct {
	IdempotencyKey string
	RequestHash    string
	Method         string
	Path           string
}

// ReserveIdempotencyKey claims the key for the current request. ON CONFLICT
// DO NOTHING plus RETURNING means a lost race surfaces as pgx.ErrNoRows.
func (q *Queries) ReserveIdempotencyKey(ctx context.Context, p ReserveIdempotencyKeyParams) (string, error) {
	var key string
	err := q.db.QueryRow(ctx,
		`INSERT INTO idempotency_keys (idempotency_key, request_hash, method, path, in_progress)
		 VALUES ($1, $2, $3, $4, TRUE)
		 ON CONFLICT (idempotency_key) DO NOTHING
		 RETURNING idempotency_key`,
		p.IdempotencyKey, p.RequestHash, p.Method, p.Path,
	).Scan(&key)
	return key, err
}

type FinalizeIdempotencyKeyParams struct {
	IdempotencyKey string
	RequestHash    string
	ResponseStatus int32
	ResponseBody   []byte
	ContentType    string
}

func (q *Queries) FinalizeIdempotencyKey(ctx context.Context, p FinalizeIdempotencyKeyParams) (IdempotencyKeyRow, error) {
	var row IdempotencyKeyRow
	err := q.db.QueryRow(ctx,
		`UPDATE idempotency_keys
		 SET response_status = $1, response_body = $2, content_type = $3,
		     in_progress = FALSE, updated_at = NOW()
		 WHERE idempotency_key = $4 AND request_hash = $5
		 RETURNING `+idempotencyColumns,
		p.ResponseStatus, p.ResponseBody, p.ContentType, p.IdempotencyKey, p.RequestHash,
	).Scan(
		&row.IdempotencyKey, &row.RequestHash, &row.Method, &row.Path,
		&row.ResponseStatus, &row.ResponseBody, &row.ContentType, &row.InProgress,
		&row.CreatedAt, &row.UpdatedAt,
	)
	return row, err
}
