package sessions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "juris:session:"

// RedisStore keeps sessions as JSON values with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to the Redis server at rawURL and verifies it responds.
func NewRedisStore(ctx context.Context, rawURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "redis connection failed")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

// Get loads a session.
func (r *RedisStore) Get(ctx context.Context, id string) (Session, error) {
	raw, err := r.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrNotFound
		}
		return Session{}, errors.Wrapf(err, "redis get session %s", id)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, errors.Wrapf(err, "decode session %s", id)
	}
	return s, nil
}

// Save writes the session and resets its TTL.
func (r *RedisStore) Save(ctx context.Context, s Session) error {
	s.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	if err := r.client.Set(ctx, keyPrefix+s.ID, payload, r.ttl).Err(); err != nil {
		return errors.Wrapf(err, "redis set session %s", s.ID)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

var _ Store = (*RedisStore)(nil)
