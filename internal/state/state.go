package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"catalog/selector/internal/domain"
)

// SessionStore keeps one session record per session in Redis.
// Saves and touches refresh the key's TTL, so records expire with idle sessions.
type SessionStore struct {
	redisClient redis.Cmdable
	keyPrefix   string
	ttl         time.Duration
}

func NewSessionStore(redisClient redis.Cmdable, ttl time.Duration) *SessionStore {
	return &SessionStore{
		redisClient: redisClient,
		keyPrefix:   "catalogform:session:",
		ttl:         ttl,
	}
}

func (s *SessionStore) Save(ctx context.Context, id string, rec domain.SessionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", id, err)
	}

	if err := s.redisClient.Set(ctx, s.keyPrefix+id, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session %s: %w", id, err)
	}
	return nil
}

func (s *SessionStore) Load(ctx context.Context, id string) (*domain.SessionRecord, error) {
	val, err := s.redisClient.Get(ctx, s.keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // no record
		}
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}

	rec := domain.SessionRecord{Selection: domain.NewSelection()}
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	if rec.Selection.Answers == nil {
		rec.Selection.Answers = make(map[int]domain.Answer)
	}
	return &rec, nil
}

// Touch extends the record's TTL without rewriting it.
func (s *SessionStore) Touch(ctx context.Context, id string) error {
	if s.ttl <= 0 {
		return nil
	}
	if err := s.redisClient.Expire(ctx, s.keyPrefix+id, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to refresh session %s: %w", id, err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.redisClient.Del(ctx, s.keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}
