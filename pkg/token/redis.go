package token

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	fieldToken    = "token"
	fieldLastUsed = "last_used"
)

// touchScript updates last_used only while the stored token still matches.
var touchScript = redis.NewScript(`
if redis.call("HGET", KEYS[1], "token") == ARGV[1] then
	redis.call("HSET", KEYS[1], "last_used", ARGV[2])
	return 1
end
return 0
`)

func NewRedisStore(client *redis.Client, key string, now func() time.Time) *RedisStore {
	return &RedisStore{
		client: client,
		key:    key,
		now:    now,
	}
}

// RedisStore keeps the session in one hash, so several gateway processes can share it.
type RedisStore struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

func (s *RedisStore) Issue(ctx context.Context, tok string) (Session, error) {
	sess := Session{
		Token:    newToken(tok),
		LastUsed: s.now(),
	}
	err := s.client.HSet(ctx, s.key,
		fieldToken, sess.Token,
		fieldLastUsed, strconv.FormatInt(sess.LastUsed.UnixMilli(), 10),
	).Err()
	if err != nil {
		return Session{}, fmt.Errorf("failed to store session in key %v: %w", s.key, err)
	}
	return Session{Token: sess.Token, LastUsed: time.UnixMilli(sess.LastUsed.UnixMilli())}, nil
}

func (s *RedisStore) Revoke(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to delete session key %v: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Current(ctx context.Context) (Session, error) {
	values, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return Session{}, fmt.Errorf("failed to read session key %v: %w", s.key, err)
	}
	tok, ok := values[fieldToken]
	if !ok || tok == "" {
		return Session{}, ErrNoSession
	}
	ms, err := strconv.ParseInt(values[fieldLastUsed], 10, 64)
	if err != nil {
		return Session{}, fmt.Errorf("corrupted last_used in session key %v: %w", s.key, err)
	}
	return Session{
		Token:    tok,
		LastUsed: time.UnixMilli(ms),
	}, nil
}

func (s *RedisStore) Touch(ctx context.Context, tok string, at time.Time) error {
	updated, err := touchScript.Run(ctx, s.client, []string{s.key}, tok, strconv.FormatInt(at.UnixMilli(), 10)).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to touch session key %v: %w", s.key, err)
	}
	if updated == 0 {
		return ErrNoSession
	}
	return nil
}
