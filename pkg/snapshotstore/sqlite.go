package snapshotstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/departureboard/pkg/ctdf"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore keeps snapshots in a single table, for boards without a redis next to them
type SQLiteStore struct {
	conn    *sql.DB
	writeMu sync.Mutex
}

func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only has one writer
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := conn.ExecContext(ctx, schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	log.Info().Str("path", path).Msg("Opened snapshot database")

	return &SQLiteStore{conn: conn}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, key string) (*ctdf.FeedSnapshot, error) {
	var payload string

	err := s.conn.QueryRowContext(ctx, "SELECT payload FROM snapshots WHERE feed_key = ?", key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", key, err)
	}

	return decode([]byte(payload))
}

func (s *SQLiteStore) Save(ctx context.Context, key string, snapshot *ctdf.FeedSnapshot) error {
	payload, err := encode(snapshot)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO snapshots (feed_key, payload, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(feed_key) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		key, string(payload), snapshot.FetchedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", key, err)
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}
