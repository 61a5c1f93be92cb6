package redisrepo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jrsteele09/go-credential-gateway/credentials"
	"github.com/jrsteele09/go-credential-gateway/internal/errors"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "oauth_tokens:"

	fieldAccessToken  = "access_token"
	fieldRefreshToken = "refresh_token"
	fieldTokenExpiry  = "token_expiry"
)

// updateScript only touches an existing hash, so an update can never create a record.
// KEYS[1] record key; ARGV access token, expiry (unix ms), optional rotated refresh token.
var updateScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("HSET", KEYS[1], "access_token", ARGV[1], "token_expiry", ARGV[2])
if ARGV[3] ~= "" then
	redis.call("HSET", KEYS[1], "refresh_token", ARGV[3])
end
return 1
`)

var _ credentials.Repo = (*RedisCredentialsRepo)(nil)

// RedisCredentialsRepo stores one hash per user under oauth_tokens:{user_id}.
type RedisCredentialsRepo struct {
	cli redis.UniversalClient
}

// Connect parses url, creates a client and pings it.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("[redisrepo Connect] parse url: %w", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		if closeErr := cli.Close(); closeErr != nil {
			return nil, fmt.Errorf("[redisrepo Connect] ping: %w (close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("[redisrepo Connect] ping: %w", err)
	}
	return cli, nil
}

func New(cli redis.UniversalClient) *RedisCredentialsRepo {
	return &RedisCredentialsRepo{cli: cli}
}

func Key(userID string) string {
	return keyPrefix + userID
}

func (r *RedisCredentialsRepo) Get(ctx context.Context, userID string) (*credentials.TokenRecord, error) {
	values, err := r.cli.HGetAll(ctx, Key(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("[redisrepo Get] %w", err)
	}
	if len(values) == 0 {
		return nil, errors.ErrRecordNotFound
	}

	record := &credentials.TokenRecord{
		UserID:       userID,
		AccessToken:  values[fieldAccessToken],
		RefreshToken: values[fieldRefreshToken],
	}
	if raw := values[fieldTokenExpiry]; raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("[redisrepo Get] bad token_expiry %q: %w", raw, err)
		}
		record.TokenExpiry = time.UnixMilli(ms).UTC()
	}
	return record, nil
}

func (r *RedisCredentialsRepo) Update(ctx context.Context, userID string, update credentials.TokenUpdate) error {
	updated, err := updateScript.Run(ctx, r.cli, []string{Key(userID)},
		update.AccessToken, update.TokenExpiry.UnixMilli(), update.RefreshToken).Int()
	if err != nil {
		return fmt.Errorf("[redisrepo Update] %w", err)
	}
	if updated == 0 {
		return errors.ErrRecordNotFound
	}
	return nil
}

// Seed writes a full record. Used by the initial authorization grant and by tests.
func (r *RedisCredentialsRepo) Seed(ctx context.Context, record credentials.TokenRecord) error {
	err := r.cli.HSet(ctx, Key(record.UserID),
		fieldAccessToken, record.AccessToken,
		fieldRefreshToken, record.RefreshToken,
		fieldTokenExpiry, strconv.FormatInt(record.TokenExpiry.UnixMilli(), 10),
	).Err()
	if err != nil {
		return fmt.Errorf("[redisrepo Seed] %w", err)
	}
	return nil
}
