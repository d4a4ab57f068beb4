// Package state keeps the local SQLite bookkeeping: the provider session
// token and which daily rows have already gone to which sink.
package state

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS oauth_tokens (
	provider      TEXT PRIMARY KEY,
	access_token  TEXT NOT NULL,
	refresh_token TEXT NOT NULL DEFAULT '',
	token_type    TEXT NOT NULL DEFAULT '',
	expiry        TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS appended_rows (
	day         TEXT NOT NULL,
	sink        TEXT NOT NULL,
	hash        TEXT NOT NULL,
	appended_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (day, sink)
);`

// DB is the single-writer state store. One process at a time is assumed.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite state database at path.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state tables: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the state database.
func (s *DB) Close() error {
	return s.db.Close()
}

// LoadToken returns the stored token for provider, or nil when none is stored.
func (s *DB) LoadToken(ctx context.Context, provider string) (*oauth2.Token, error) {
	var (
		tok    oauth2.Token
		expiry string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT access_token, refresh_token, token_type, expiry FROM oauth_tokens WHERE provider = ?`,
		provider,
	).Scan(&tok.AccessToken, &tok.RefreshToken, &tok.TokenType, &expiry)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading token: %w", err)
	}
	if expiry != "" {
		if tok.Expiry, err = time.Parse(time.RFC3339Nano, expiry); err != nil {
			return nil, fmt.Errorf("parsing token expiry: %w", err)
		}
	}
	return &tok, nil
}

// SaveToken stores tok for provider, replacing any previous token.
func (s *DB) SaveToken(ctx context.Context, provider string, tok *oauth2.Token) error {
	expiry := ""
	if !tok.Expiry.IsZero() {
		expiry = tok.Expiry.UTC().Format(time.RFC3339Nano)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO oauth_tokens (provider, access_token, refresh_token, token_type, expiry)
		 VALUES (?, ?, ?, ?, ?)`,
		provider, tok.AccessToken, tok.RefreshToken, tok.TokenType, expiry,
	)
	if err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	return nil
}

// IsAppended reports whether the document with hash was already appended
// for day to sink.
func (s *DB) IsAppended(ctx context.Context, day time.Time, sink, hash string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM appended_rows WHERE day = ? AND sink = ? AND hash = ?`,
		dayKey(day), sink, hash,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkAppended records that the row for day went to sink.
func (s *DB) MarkAppended(ctx context.Context, day time.Time, sink, hash string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO appended_rows (day, sink, hash) VALUES (?, ?, ?)`,
		dayKey(day), sink, hash,
	)
	return err
}

// HashBytes computes the SHA-256 hash of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func dayKey(day time.Time) string {
	return day.Format("2006-01-02")
}
