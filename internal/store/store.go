package store

import (
	"context"
	"database/sql"
)

// Store wraps the relational database behind typed operations. All SQL
// lives in this package; callers never see rows or placeholders.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
