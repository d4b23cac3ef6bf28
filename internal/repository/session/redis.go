package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bigbite-orderbot/internal/conversation"
	"bigbite-orderbot/internal/domain"
	"bigbite-orderbot/internal/logging"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionPrefix = "orderbot:session:"
	lockPrefix    = "orderbot:turn:"

	// A turn makes at most a few backend calls; the lock outlives them and
	// still frees itself if the holder dies.
	turnLockTTL = time.Minute
)

// Deletes the lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type redisStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedis returns a Store that keeps sessions as JSON in Redis so several
// api replicas can share them.
func NewRedis(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) Store {
	if logger == nil {
		logger = logging.Discard()
	}
	return &redisStore{rdb: rdb, ttl: ttl, logger: logger}
}

func (r *redisStore) Get(ctx context.Context, key string) (*conversation.Session, error) {
	raw, err := r.rdb.Get(ctx, sessionPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var sess conversation.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		r.logger.Warn("dropping unreadable session", "key", key, "err", err)
		_ = r.rdb.Del(ctx, sessionPrefix+key).Err()
		return nil, domain.ErrNotFound
	}
	return &sess, nil
}

func (r *redisStore) Save(ctx context.Context, sess conversation.Session) error {
	sess.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, sessionPrefix+sess.UserID, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *redisStore) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, sessionPrefix+key).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *redisStore) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ok, err := r.rdb.SetNX(ctx, lockPrefix+key, token, turnLockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("lock session: %w", err)
	}
	if !ok {
		return nil, ErrSessionBusy
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		// The turn context may already be cancelled.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, r.rdb, []string{lockPrefix + key}, token).Err(); err != nil {
			r.logger.Warn("release turn lock", "key", key, "err", err)
		}
	}, nil
}
