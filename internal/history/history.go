// Package history is the durable order-history log. Writes are
// fire-and-forget from the engine's point of view: a failed append is
// logged and never aborts a dispatch flow.
package history

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"github.com/example/wash-dispatch/internal/models"
)

type Appender interface {
	Append(ctx context.Context, orderID string, reason models.HistoryReason, notes string) error
}

type PostgresLog struct {
	db *sql.DB
}

func NewPostgresLog(dsn string) (*PostgresLog, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresLog{db: db}, nil
}

func (l *PostgresLog) Append(ctx context.Context, orderID string, reason models.HistoryReason, notes string) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO order_history(order_id, reason, notes, created_at) VALUES($1,$2,$3,$4)`,
		orderID, string(reason), notes, time.Now())
	return err
}
