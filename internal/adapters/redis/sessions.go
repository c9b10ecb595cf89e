package redisad

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"review_insights/internal/domain"
)

const sessionPrefix = "session:"

// SessionStore keeps dashboard sessions as JSON with a sliding TTL.
type SessionStore struct {
	c   *redis.Client
	ttl time.Duration
}

func NewSessionStore(c *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{c: c, ttl: ttl}
}

func (s *SessionStore) Load(ctx context.Context, id string) (*domain.Session, error) {
	b, err := s.c.Get(ctx, sessionPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var out domain.Session
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &out, nil
}

func (s *SessionStore) Save(ctx context.Context, sess *domain.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.c.Set(ctx, sessionPrefix+sess.ID, b, s.ttl).Err()
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	n, err := s.c.Del(ctx, sessionPrefix+id).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}
