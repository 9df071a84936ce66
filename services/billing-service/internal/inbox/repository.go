package inbox

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ojalink/ojalink/libs/db"
)

// Repository is the consumer-side dedup ledger. Kafka delivers at least
// once, so every event id lands here exactly once and replays are dropped.
type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record inserts the event id, reporting false for events already seen.
func (r *Repository) Record(ctx context.Context, eventID string, eventType string) (bool, error) {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO inbox_events (event_id, event_type)
		 VALUES ($1, $2)`,
		eventID, eventType)
	if err == nil {
		return true, nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return false, nil
	}
	return false, err
}
