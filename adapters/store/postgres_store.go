package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lopushok9/whatbird/core"
)

//go:embed schema.sql
var schemaSQL string

const uniqueViolation = "23505"

const identityColumns = `user_id, public_key, chain, name, email, created_at, updated_at`

// PostgresStore implements IdentityStore and RefreshStore backed by PostgreSQL.
// The unique index on profiles.public_key is the single source of truth for
// concurrent first logins.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a store backed by the given pgx connection pool
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// NewPostgresStoreFromDSN creates a connection pool from a DSN string, ensures
// the schema exists, and returns a new store.
func NewPostgresStoreFromDSN(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return NewPostgresStore(pool), nil
}

// EnsureSchema creates the required tables and indexes if they do not exist
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schemaSQL)
	return err
}

// Close closes the underlying connection pool
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func scanIdentity(row pgx.Row) (*core.Identity, error) {
	var (
		identity core.Identity
		chain    string
	)
	err := row.Scan(&identity.UserID, &identity.PublicKey, &chain, &identity.DisplayName,
		&identity.Email, &identity.CreatedAt, &identity.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning profile: %w", err)
	}
	identity.Chain = core.Chain(chain)
	return &identity, nil
}

func (s *PostgresStore) FindByPublicKey(ctx context.Context, publicKey string) (*core.Identity, error) {
	return scanIdentity(s.pool.QueryRow(ctx,
		`SELECT `+identityColumns+` FROM profiles WHERE public_key = $1`, publicKey))
}

func (s *PostgresStore) FindByID(ctx context.Context, userID string) (*core.Identity, error) {
	return scanIdentity(s.pool.QueryRow(ctx,
		`SELECT `+identityColumns+` FROM profiles WHERE user_id = $1`, userID))
}

func (s *PostgresStore) InsertIfAbsent(ctx context.Context, identity *core.Identity) error {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO profiles (`+identityColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (public_key) DO NOTHING`,
		identity.UserID, identity.PublicKey, string(identity.Chain), identity.DisplayName,
		identity.Email, identity.CreatedAt, identity.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return core.ErrIdentityExists
		}
		return fmt.Errorf("inserting profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrIdentityExists
	}
	return nil
}

func (s *PostgresStore) UpdateProfile(ctx context.Context, userID, displayName, email string, updatedAt time.Time) (*core.Identity, error) {
	return scanIdentity(s.pool.QueryRow(ctx,
		`UPDATE profiles
		 SET name = COALESCE(NULLIF($2, ''), name),
		     email = COALESCE(NULLIF($3, ''), email),
		     updated_at = $4
		 WHERE user_id = $1
		 RETURNING `+identityColumns,
		userID, displayName, email, updatedAt))
}

func (s *PostgresStore) SaveRefresh(ctx context.Context, record *core.RefreshRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		record.ID, record.UserID, record.TokenHash, record.ExpiresAt, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting refresh token: %w", err)
	}
	return nil
}

func (s *PostgresStore) ConsumeRefresh(ctx context.Context, tokenHash string) (*core.RefreshRecord, error) {
	var record core.RefreshRecord
	err := s.pool.QueryRow(ctx,
		`DELETE FROM refresh_tokens WHERE token_hash = $1
		 RETURNING id, user_id, token_hash, expires_at, created_at`, tokenHash).Scan(
		&record.ID, &record.UserID, &record.TokenHash, &record.ExpiresAt, &record.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrRefreshNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("consuming refresh token: %w", err)
	}
	return &record, nil
}

func (s *PostgresStore) DeleteRefresh(ctx context.Context, tokenHash string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return fmt.Errorf("deleting refresh token: %w", err)
	}
	return nil
}

// PurgeExpired deletes refresh tokens that expired before now
func (s *PostgresStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("purging refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
