// Package storage wires the repositories to their backing store and owns
// the one operation that must span both of them: cascading account removal.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/taskhub/identity/migrations"
	"github.com/taskhub/identity/pkg/account"
	"github.com/taskhub/identity/pkg/dbx"
	"github.com/taskhub/identity/pkg/task"
)

// PostgresStore holds the shared connection and hands out repositories.
// RemoveCascade implements account.Remover inside a single transaction.
type PostgresStore struct {
	db       *sql.DB
	accounts account.Repository
	tasks    task.Repository
}

// NewPostgresStore opens the database and runs pending migrations
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	s := &PostgresStore{
		db:       db,
		accounts: account.NewPostgresRepository(db),
		tasks:    task.NewPostgresRepository(db),
	}

	if err := s.RunMigrations(context.Background()); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return s, nil
}

// Conn exposes the underlying handle
func (s *PostgresStore) Conn() *sql.DB {
	return s.db
}

// Accounts returns the account repository bound to the pool
func (s *PostgresStore) Accounts() account.Repository {
	return s.accounts
}

// Tasks returns the task repository bound to the pool
func (s *PostgresStore) Tasks() task.Repository {
	return s.tasks
}

// RunMigrations applies the embedded goose migrations
func (s *PostgresStore) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.UpContext(ctx, s.db, ".")
}

// RemoveCascade deletes every task owned by the account and then the
// account itself in one transaction: either both commit or neither does.
func (s *PostgresStore) RemoveCascade(ctx context.Context, id uuid.UUID) (int64, error) {
	var removed int64

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := task.NewPostgresRepository(tx).DeleteByOwner(ctx, id)
		if err != nil {
			return err
		}
		removed = n

		return account.NewPostgresRepository(tx).Delete(ctx, id)
	})
	if err != nil {
		return 0, err
	}

	return removed, nil
}

// Close releases the database handle
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
