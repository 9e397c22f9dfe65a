package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"smsrelay/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS forwarder_config (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	config TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS delivery_log (
	id TEXT PRIMARY KEY,
	forwarder_kind TEXT NOT NULL,
	sender TEXT NOT NULL,
	status TEXT NOT NULL,
	detail TEXT,
	forwarded_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_delivery_log_forwarded_at ON delivery_log(forwarded_at);
`

// Store persists the active forwarder configuration and a delivery log in a
// local sqlite database.
type Store struct {
	db        *sql.DB
	encryptor *encryptor
}

func New(dbPath string) (*Store, error) {
	if len(dbPath) == 0 || dbPath[0] == '\x00' {
		return nil, fmt.Errorf("invalid database path")
	}

	file, err := os.OpenFile(dbPath, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create database file: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close database file: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	enc, err := newEncryptor()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize encryptor: %w", err)
	}

	return &Store{db: db, encryptor: enc}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveForwarderConfig stores the encoded forwarder configuration blob,
// replacing any previous one. The service runs a single active forwarder.
func (s *Store) SaveForwarderConfig(ctx context.Context, blob string) error {
	encrypted, err := s.encryptor.encrypt(blob)
	if err != nil {
		return fmt.Errorf("failed to encrypt config: %w", err)
	}

	query := `
		INSERT INTO forwarder_config (id, config, updated_at)
		VALUES (1, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET config = excluded.config, updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.ExecContext(ctx, query, encrypted); err != nil {
		return fmt.Errorf("failed to save forwarder config: %w", err)
	}
	return nil
}

// GetForwarderConfig returns the stored configuration blob, or "" when no
// forwarder has been configured yet.
func (s *Store) GetForwarderConfig(ctx context.Context) (string, error) {
	var encrypted string
	err := s.db.QueryRowContext(ctx, `SELECT config FROM forwarder_config WHERE id = 1`).Scan(&encrypted)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get forwarder config: %w", err)
	}

	blob, err := s.encryptor.decrypt(encrypted)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt config: %w", err)
	}
	return blob, nil
}

// DeleteForwarderConfig removes the stored configuration.
func (s *Store) DeleteForwarderConfig(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM forwarder_config WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to delete forwarder config: %w", err)
	}
	return nil
}

// RecordDelivery appends one forward outcome to the delivery log. Senders
// are expected to arrive already masked.
func (s *Store) RecordDelivery(ctx context.Context, rec models.DeliveryRecord) error {
	query := `
		INSERT INTO delivery_log (id, forwarder_kind, sender, status, detail, forwarded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.ForwarderKind,
		rec.Sender,
		rec.Status,
		rec.Detail,
		rec.ForwardedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record delivery: %w", err)
	}
	return nil
}

// RecentDeliveries returns the newest delivery log entries, newest first.
func (s *Store) RecentDeliveries(ctx context.Context, limit int) ([]models.DeliveryRecord, error) {
	query := `
		SELECT id, forwarder_kind, sender, status, detail, forwarded_at
		FROM delivery_log
		ORDER BY forwarded_at DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query delivery log: %w", err)
	}
	defer rows.Close()

	var records []models.DeliveryRecord
	for rows.Next() {
		var rec models.DeliveryRecord
		var detail sql.NullString
		if err := rows.Scan(&rec.ID, &rec.ForwarderKind, &rec.Sender, &rec.Status, &detail, &rec.ForwardedAt); err != nil {
			return nil, fmt.Errorf("failed to scan delivery record: %w", err)
		}
		rec.Detail = detail.String
		records = append(records, rec)
	}
	return records, rows.Err()
}
