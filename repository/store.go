package repository

import (
	"context"
	"database/sql"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/database"
)

// Store groups the repositories so a service can run several writes in one
// transaction.
type Store interface {
	Users() UserRepository
	Sessions() SessionRepository
	// WithTx runs fn against repositories bound to a single transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

type sqliteStore struct {
	db       *sql.DB
	users    UserRepository
	sessions SessionRepository
}

// NewSQLiteStore returns a Store backed by db.
func NewSQLiteStore(db *sql.DB) Store {
	return &sqliteStore{
		db:       db,
		users:    NewSQLiteUserRepo(db),
		sessions: NewSQLiteSessionRepo(db),
	}
}

func (s *sqliteStore) Users() UserRepository       { return s.users }
func (s *sqliteStore) Sessions() SessionRepository { return s.sessions }

func (s *sqliteStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(&txStore{
			users:    NewSQLiteUserRepo(tx),
			sessions: NewSQLiteSessionRepo(tx),
		})
	})
}

// txStore is already inside a transaction; nested WithTx calls join it.
type txStore struct {
	users    UserRepository
	sessions SessionRepository
}

func (s *txStore) Users() UserRepository       { return s.users }
func (s *txStore) Sessions() SessionRepository { return s.sessions }

func (s *txStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return fn(s)
}
