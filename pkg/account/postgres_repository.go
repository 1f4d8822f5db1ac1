package account

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taskhub/identity/pkg/dbx"
	"github.com/taskhub/identity/pkg/errors"
)

const pgUniqueViolation = "23505"

// PostgresRepository implements Repository over a dbx.DBTX handle, so the
// same type works against the pool and inside a transaction.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository creates a new PostgreSQL account repository
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `id, name, email, password_hash, age, session_tokens, avatar, version, created_at, updated_at`

func scanAccount(row *sql.Row) (Account, error) {
	var acct Account
	var tokens []byte

	err := row.Scan(&acct.ID, &acct.Name, &acct.Email, &acct.PasswordHash,
		&acct.Age, &tokens, &acct.Avatar, &acct.Version, &acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		return Account{}, err
	}

	if len(tokens) > 0 {
		if err := json.Unmarshal(tokens, &acct.SessionTokens); err != nil {
			return Account{}, fmt.Errorf("decode session tokens: %w", err)
		}
	}
	return acct, nil
}

// GetByID retrieves an account by ID
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	acct, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return Account{}, errors.NotFound("account", id.String())
		}
		return Account{}, errors.StorageWrap(err, "failed to load account")
	}
	return acct, nil
}

// GetByEmail retrieves an account by its normalized email
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	acct, err := scanAccount(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return Account{}, errors.NotFound("account", email)
		}
		return Account{}, errors.StorageWrap(err, "failed to load account by email")
	}
	return acct, nil
}

// Create persists a new account, enforcing email uniqueness
func (r *PostgresRepository) Create(ctx context.Context, acct *Account) error {
	tokens, err := json.Marshal(acct.SessionTokens)
	if err != nil {
		return fmt.Errorf("encode session tokens: %w", err)
	}

	query := `
		INSERT INTO accounts (id, name, email, password_hash, age, session_tokens, avatar, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
		RETURNING version, created_at, updated_at`

	err = r.db.QueryRowContext(ctx, query,
		acct.ID, acct.Name, acct.Email, acct.PasswordHash, acct.Age, tokens, acct.Avatar,
	).Scan(&acct.Version, &acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Newf(errors.ErrCodeEmailTaken, "email already registered: %s", acct.Email)
		}
		return errors.StorageWrap(err, "failed to create account")
	}
	return nil
}

// Update persists a mutation using compare-and-swap on the version stamp
func (r *PostgresRepository) Update(ctx context.Context, acct *Account) error {
	tokens, err := json.Marshal(acct.SessionTokens)
	if err != nil {
		return fmt.Errorf("encode session tokens: %w", err)
	}

	query := `
		UPDATE accounts
		SET name = $1, email = $2, password_hash = $3, age = $4,
		    session_tokens = $5, avatar = $6, version = version + 1, updated_at = now()
		WHERE id = $7 AND version = $8
		RETURNING version, updated_at`

	err = r.db.QueryRowContext(ctx, query,
		acct.Name, acct.Email, acct.PasswordHash, acct.Age, tokens, acct.Avatar,
		acct.ID, acct.Version,
	).Scan(&acct.Version, &acct.UpdatedAt)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			// Missing row and stale version look the same here; the caller's
			// retry loop re-reads and surfaces not-found on the next pass.
			return errors.Newf(errors.ErrCodeVersionConflict,
				"account %s modified concurrently", acct.ID)
		}
		if isUniqueViolation(err) {
			return errors.Newf(errors.ErrCodeEmailTaken, "email already registered: %s", acct.Email)
		}
		return errors.StorageWrap(err, "failed to update account")
	}
	return nil
}

// Delete removes the account record
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return errors.StorageWrap(err, "failed to delete account")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NotFound("account", id.String())
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
