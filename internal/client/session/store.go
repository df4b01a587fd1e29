// Package session keeps the CLI login session in a local SQLite file so a
// token survives restarts until it is cleared or rejected by the server.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/refkeeper/internal/client/session/migrations"
	"github.com/dmitrijs2005/refkeeper/internal/common"
	"github.com/dmitrijs2005/refkeeper/internal/dbx"
	"github.com/dmitrijs2005/refkeeper/internal/filex"
)

// Session is the persisted login.
type Session struct {
	Username string
	Token    string
	SavedAt  time.Time
}

type Store struct {
	db *sql.DB
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens the session database file at path, creating it and its
// directory if needed.
func Open(ctx context.Context, path string) (*Store, error) {
	if _, err := filex.EnsureParentDir(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Save replaces the stored session.
func (s *Store) Save(ctx context.Context, username, token string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO session (id, username, token, saved_at) VALUES (1, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				username = excluded.username,
				token    = excluded.token,
				saved_at = excluded.saved_at
		`, username, token, time.Now().Unix())
		if err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return nil
	})
}

// Load returns common.ErrorNotFound when nobody is logged in.
func (s *Store) Load(ctx context.Context) (*Session, error) {
	var (
		sess    Session
		savedAt int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT username, token, saved_at FROM session WHERE id = 1`).
		Scan(&sess.Username, &sess.Token, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	sess.SavedAt = time.Unix(savedAt, 0)
	return &sess, nil
}

func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
