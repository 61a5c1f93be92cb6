package pgrepo

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jrsteele09/go-credential-gateway/credentials"
	"github.com/jrsteele09/go-credential-gateway/internal/errors"
)

//go:embed schema.sql
var schema string

var _ credentials.Repo = (*PgCredentialsRepo)(nil)

// PgCredentialsRepo implements credentials.Repo on the oauth_tokens table.
type PgCredentialsRepo struct {
	pool *pgxpool.Pool
}

// Connect opens a pool for databaseURL and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("[pgrepo Connect] create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("[pgrepo Connect] ping: %w", err)
	}
	return pool, nil
}

func New(pool *pgxpool.Pool) *PgCredentialsRepo {
	return &PgCredentialsRepo{pool: pool}
}

// Migrate creates the oauth_tokens table when it does not exist.
func (r *PgCredentialsRepo) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("[pgrepo Migrate] %w", err)
	}
	return nil
}

func (r *PgCredentialsRepo) Get(ctx context.Context, userID string) (*credentials.TokenRecord, error) {
	query := `
		SELECT user_id, access_token, refresh_token, token_expiry
		FROM oauth_tokens
		WHERE user_id = $1
	`
	var record credentials.TokenRecord
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&record.UserID, &record.AccessToken, &record.RefreshToken, &record.TokenExpiry,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrRecordNotFound
		}
		return nil, fmt.Errorf("[pgrepo Get] %w", err)
	}
	return &record, nil
}

// Update is a single UPDATE statement, so concurrent refreshes resolve last-writer-wins.
func (r *PgCredentialsRepo) Update(ctx context.Context, userID string, update credentials.TokenUpdate) error {
	query := `
		UPDATE oauth_tokens
		SET access_token  = $2,
		    token_expiry  = $3,
		    refresh_token = COALESCE(NULLIF($4, ''), refresh_token),
		    updated_at    = now()
		WHERE user_id = $1
	`
	tag, err := r.pool.Exec(ctx, query, userID, update.AccessToken, update.TokenExpiry, update.RefreshToken)
	if err != nil {
		return fmt.Errorf("[pgrepo Update] %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrRecordNotFound
	}
	return nil
}
