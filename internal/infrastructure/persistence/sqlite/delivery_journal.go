package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"mailforward/internal/domain/mail"
)

// DeliveryJournal keeps an audit trail of messages delivered to threads.
type DeliveryJournal struct {
	db *sql.DB
}

func NewDeliveryJournal(dbPath string) (*DeliveryJournal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA busy_timeout = 5000;")

	schema := `
CREATE TABLE IF NOT EXISTS deliveries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    thread_id INTEGER NOT NULL,
    kind TEXT NOT NULL,
    summary TEXT,
    sent_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_deliveries_thread ON deliveries(thread_id);
`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &DeliveryJournal{db: db}, nil
}

func (j *DeliveryJournal) Record(ctx context.Context, d mail.Delivery) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO deliveries (thread_id, kind, summary, sent_at)
         VALUES (?, ?, ?, ?)`,
		d.ThreadID, d.Kind, d.Summary, d.SentAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record delivery: %w", err)
	}
	return nil
}

// Count returns how many deliveries went to threadID.
func (j *DeliveryJournal) Count(ctx context.Context, threadID int64) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM deliveries WHERE thread_id = ?`,
		threadID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count deliveries: %w", err)
	}
	return n, nil
}

// Recent returns the latest deliveries, newest first.
func (j *DeliveryJournal) Recent(ctx context.Context, limit int) ([]mail.Delivery, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT thread_id, kind, summary, sent_at
         FROM deliveries ORDER BY sent_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	var out []mail.Delivery
	for rows.Next() {
		var (
			d      mail.Delivery
			sentAt int64
		)
		if err := rows.Scan(&d.ThreadID, &d.Kind, &d.Summary, &sentAt); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		d.SentAt = time.UnixMilli(sentAt)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (j *DeliveryJournal) Close() error {
	return j.db.Close()
}
