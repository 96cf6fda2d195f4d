package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Registers the postgres driver used by hosts opening the pool for us.
	_ "github.com/lib/pq"

	"identitykit/internal/identity/models"
	"identitykit/pkg/platform/sentinel"
	"identitykit/pkg/platform/tx"
)

// PostgresStore persists tokens in a postgres table. One row per service
// identity, enforced by the primary key.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// runner returns the context transaction when the host is batching credential
// writes with its own data, and the pool otherwise.
func (s *PostgresStore) runner(ctx context.Context) querier {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

// Migrate creates the credentials table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS identity_credentials (
			identity_key TEXT PRIMARY KEY,
			token        TEXT NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate credentials table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, identity models.ServiceIdentity, token string) error {
	_, err := s.runner(ctx).ExecContext(ctx, `
		INSERT INTO identity_credentials (identity_key, token, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (identity_key) DO UPDATE SET token = EXCLUDED.token, updated_at = now()
	`, identity.Key(), token)
	if err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, identity models.ServiceIdentity) (string, error) {
	var token string
	err := s.runner(ctx).QueryRowContext(ctx,
		`SELECT token FROM identity_credentials WHERE identity_key = $1`,
		identity.Key(),
	).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load credential: %w", err)
	}
	return token, nil
}

func (s *PostgresStore) Erase(ctx context.Context, identity models.ServiceIdentity) error {
	_, err := s.runner(ctx).ExecContext(ctx,
		`DELETE FROM identity_credentials WHERE identity_key = $1`,
		identity.Key(),
	)
	if err != nil {
		return fmt.Errorf("erase credential: %w", err)
	}
	return nil
}
