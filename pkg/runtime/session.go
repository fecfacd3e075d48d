package runtime

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/TechXTT/biopull/internal/core"
	"github.com/TechXTT/biopull/pkg/config"
)

// Session holds the one connection and the transaction queries run in.
// Close must be called exactly once; it commits and releases both.
type Session struct {
	DB *sql.DB
	Tx *sql.Tx

	closed bool
}

// Open connects with cfg and begins the session transaction.
func Open(ctx context.Context, cfg *config.Config) (*Session, error) {
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s, err := NewSession(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSession begins a transaction on an existing DB.
func NewSession(ctx context.Context, db *sql.DB) (*Session, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Session{DB: db, Tx: tx}, nil
}

// Querier returns the handle queries should be issued on.
func (s *Session) Querier() core.Querier {
	return s.Tx
}

// Close commits the pending transaction and closes the connection.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if err := s.Tx.Commit(); err != nil {
		errs = append(errs, fmt.Errorf("commit: %w", err))
	}
	if err := core.Close(s.DB); err != nil {
		errs = append(errs, fmt.Errorf("close db: %w", err))
	}
	return errors.Join(errs...)
}
