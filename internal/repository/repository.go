package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"paylink/backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrPayTokenNotFound    = errors.New("pay token not found")
	ErrPayTokenAlreadyUsed = errors.New("pay token already used")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreatePayLinkToken inserts one token record per issuance call. Only the
// hash of the plaintext token ever reaches this layer.
func (r *Repository) CreatePayLinkToken(ctx context.Context, params models.CreatePayLinkTokenParams) (models.PayLinkToken, error) {
	row := r.pool.QueryRow(ctx, `
INSERT INTO pay_link_tokens (token_hash, order_id, amount, order_name, order_items, expires_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id::text, token_hash, order_id, amount, order_name, order_items, expires_at, used, used_at, created_at;`,
		strings.TrimSpace(params.TokenHash),
		strings.TrimSpace(params.OrderID),
		params.Amount,
		params.OrderName,
		params.OrderItems,
		params.ExpiresAt.UTC(),
	)
	return scanPayLinkToken(row)
}

// GetPayLinkTokenByHash looks up the unique-or-absent record for a plaintext
// token's hash. Read-only; used by the checkout page validator.
func (r *Repository) GetPayLinkTokenByHash(ctx context.Context, tokenHash string) (models.PayLinkToken, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id::text, token_hash, order_id, amount, order_name, order_items, expires_at, used, used_at, created_at
FROM pay_link_tokens
WHERE token_hash = $1;`, strings.TrimSpace(tokenHash))
	out, err := scanPayLinkToken(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.PayLinkToken{}, ErrPayTokenNotFound
		}
		return models.PayLinkToken{}, err
	}
	return out, nil
}

// GetPayLinkTokenByOrderID looks up a record by the merchant order identifier.
// This is the confirmation path: the gateway redirect carries only the order
// id, never the original token. order_id is a unique key.
func (r *Repository) GetPayLinkTokenByOrderID(ctx context.Context, orderID string) (models.PayLinkToken, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id::text, token_hash, order_id, amount, order_name, order_items, expires_at, used, used_at, created_at
FROM pay_link_tokens
WHERE order_id = $1;`, strings.TrimSpace(orderID))
	out, err := scanPayLinkToken(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.PayLinkToken{}, ErrPayTokenNotFound
		}
		return models.PayLinkToken{}, err
	}
	return out, nil
}

// ConsumePayLinkToken marks a token used. The conditional update is the
// at-most-once guarantee: two concurrent confirmations for the same order can
// both pass the read-side checks, but only one flips used here.
func (r *Repository) ConsumePayLinkToken(ctx context.Context, orderID string) (models.PayLinkToken, error) {
	row := r.pool.QueryRow(ctx, `
UPDATE pay_link_tokens
SET used = true,
	used_at = now()
WHERE order_id = $1
	AND used = false
RETURNING id::text, token_hash, order_id, amount, order_name, order_items, expires_at, used, used_at, created_at;`,
		strings.TrimSpace(orderID))
	out, err := scanPayLinkToken(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the order does not exist or it lost the race.
			if _, lookupErr := r.GetPayLinkTokenByOrderID(ctx, orderID); lookupErr != nil {
				return models.PayLinkToken{}, lookupErr
			}
			return models.PayLinkToken{}, ErrPayTokenAlreadyUsed
		}
		return models.PayLinkToken{}, err
	}
	return out, nil
}

// ListPayLinkTokens returns the most recently issued tokens for the admin
// surface.
func (r *Repository) ListPayLinkTokens(ctx context.Context, limit int) ([]models.PayLinkToken, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
SELECT id::text, token_hash, order_id, amount, order_name, order_items, expires_at, used, used_at, created_at
FROM pay_link_tokens
ORDER BY created_at DESC
LIMIT $1;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PayLinkToken
	for rows.Next() {
		item, err := scanPayLinkToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func scanPayLinkToken(row pgx.Row) (models.PayLinkToken, error) {
	var out models.PayLinkToken
	var usedAt *time.Time
	if err := row.Scan(
		&out.ID,
		&out.TokenHash,
		&out.OrderID,
		&out.Amount,
		&out.OrderName,
		&out.OrderItems,
		&out.ExpiresAt,
		&out.Used,
		&usedAt,
		&out.CreatedAt,
	); err != nil {
		return out, err
	}
	out.UsedAt = usedAt
	return out, nil
}
