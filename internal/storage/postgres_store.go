package storage

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	// quick ping
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) AssignProvider(ctx context.Context, orderID, providerUserID string) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE orders SET provider_user_id=$1, updated_at=$2 WHERE id=$3`,
		providerUserID, time.Now(), orderID)
	return err
}

func (p *PostgresStore) SetStatus(ctx context.Context, orderID, status string) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE orders SET status=$1, updated_at=$2 WHERE id=$3`,
		status, time.Now(), orderID)
	return err
}

// DB exposes the underlying handle so the server can run migrations at
// startup against the same connection.
func (p *PostgresStore) DB() *sql.DB { return p.db }
