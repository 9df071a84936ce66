package sessions

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/ojalink/ojalink/libs/db"
)

// RefreshToken is a stored refresh credential. Only the SHA-256 of the raw
// token ever touches the database.
type RefreshToken struct {
	ID        string
	AccountID string
	Hash      string
	ExpiresAt time.Time
	RevokedAt *time.Time
}

type RefreshRepository struct {
	pool *db.Pool
}

func NewRefreshRepository(pool *db.Pool) *RefreshRepository {
	return &RefreshRepository{pool: pool}
}

// Create stores the hash of rawToken and returns the row id.
func (r *RefreshRepository) Create(ctx context.Context, accountID string, rawToken string, expiresAt time.Time) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO refresh_tokens (id, account_id, token_hash, expires_at)
		 VALUES ($1, $2, $3, $4)`,
		id, accountID, HashToken(rawToken), expiresAt)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *RefreshRepository) GetByHash(ctx context.Context, hash string) (RefreshToken, error) {
	var t RefreshToken
	err := r.pool.QueryRow(ctx,
		`SELECT id, account_id, token_hash, expires_at, revoked_at
		 FROM refresh_tokens
		 WHERE token_hash = $1`,
		hash).Scan(&t.ID, &t.AccountID, &t.Hash, &t.ExpiresAt, &t.RevokedAt)
	return t, err
}

// Revoke is idempotent; revoking an already revoked token is a no-op.
func (r *RefreshRepository) Revoke(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE refresh_tokens
		 SET revoked_at = now()
		 WHERE id = $1 AND revoked_at IS NULL`,
		id)
	return err
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
