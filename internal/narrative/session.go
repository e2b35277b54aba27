package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionKeyFmt = "narrative:session:%s"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SessionStore keeps a bounded per-session message history in redis
// with TTL eviction, so assistant context survives process restarts and
// abandoned sessions clean themselves up.
type SessionStore struct {
	rdb     *redis.Client
	ttl     time.Duration
	maxMsgs int
}

func NewSessionStore(rdb *redis.Client, ttl time.Duration, maxMsgs int) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl, maxMsgs: maxMsgs}
}

// NewSessionID mints a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// Append adds a message, trims the history to the configured bound and
// refreshes the TTL.
func (s *SessionStore) Append(ctx context.Context, sessionID string, msg Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode session message: %w", err)
	}
	key := fmt.Sprintf(sessionKeyFmt, sessionID)
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key, raw)
	pipe.LTrim(ctx, key, int64(-s.maxMsgs), -1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append to session %s: %w", sessionID, err)
	}
	return nil
}

// History returns the retained messages, oldest first.
func (s *SessionStore) History(ctx context.Context, sessionID string) ([]Message, error) {
	key := fmt.Sprintf(sessionKeyFmt, sessionID)
	raw, err := s.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", sessionID, err)
	}
	msgs := make([]Message, 0, len(raw))
	for _, r := range raw {
		var m Message
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			return nil, fmt.Errorf("decode session message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// Clear drops a session outright.
func (s *SessionStore) Clear(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, fmt.Sprintf(sessionKeyFmt, sessionID)).Err()
}
