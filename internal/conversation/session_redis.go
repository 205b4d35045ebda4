package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:"
	sessionTTL       = 24 * time.Hour
)

// RedisSessionStore persists conversation cursors in Redis so several
// instances can share them. Cursors expire with the draft window.
type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) Get(ctx context.Context, lineUserID string) (Session, error) {
	var sess Session
	raw, err := s.client.Get(ctx, sessionKeyPrefix+lineUserID).Bytes()
	if errors.Is(err, redis.Nil) {
		return sess, nil
	}
	if err != nil {
		return sess, err
	}
	if err := json.Unmarshal(raw, &sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *RedisSessionStore) Put(ctx context.Context, lineUserID string, sess Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKeyPrefix+lineUserID, raw, sessionTTL).Err()
}
