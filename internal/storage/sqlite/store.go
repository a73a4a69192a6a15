package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"taskmind/internal/models"
)

// credentialSlot is the primary key of the single credential row.
const credentialSlot = 1

// Store wraps the SQLite database holding the persisted credential.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open initializes a new SQLite store and runs the required migrations.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty database path")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	s := &Store{db: conn, logger: logger}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureDir(dbPath string) error {
	if strings.Contains(dbPath, ":memory:") {
		return nil
	}
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o700)
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS credentials (
            slot INTEGER PRIMARY KEY CHECK (slot = 1),
            token TEXT NOT NULL,
            username TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL DEFAULT '',
            saved_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// LoadCredential returns the stored credential. The boolean is false when the slot is empty.
func (s *Store) LoadCredential(ctx context.Context) (models.Credential, bool, error) {
	var c models.Credential
	err := s.db.QueryRowContext(ctx, `SELECT token, username, email, saved_at FROM credentials WHERE slot = ?`, credentialSlot).
		Scan(&c.Token, &c.Profile.Username, &c.Profile.Email, &c.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Credential{}, false, nil
	}
	if err != nil {
		return models.Credential{}, false, fmt.Errorf("load credential: %w", err)
	}
	return c, true, nil
}

// SaveCredential overwrites the slot with c.
func (s *Store) SaveCredential(ctx context.Context, c models.Credential) error {
	if strings.TrimSpace(c.Token) == "" {
		return fmt.Errorf("credential token must not be empty")
	}
	if c.SavedAt.IsZero() {
		c.SavedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO credentials(slot, token, username, email, saved_at) VALUES(?, ?, ?, ?, ?)
        ON CONFLICT(slot) DO UPDATE SET token = excluded.token, username = excluded.username,
            email = excluded.email, saved_at = excluded.saved_at`,
		credentialSlot, c.Token, c.Profile.Username, c.Profile.Email, c.SavedAt)
	if err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	s.logger.Debug("credential saved", slog.String("user", c.Profile.DisplayName()))
	return nil
}

// ClearCredential empties the slot. Clearing an empty slot is not an error.
func (s *Store) ClearCredential(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE slot = ?`, credentialSlot); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	s.logger.Debug("credential cleared")
	return nil
}
