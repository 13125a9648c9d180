package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const defaultStateTTL = 2 * time.Hour

// Store is the live-state backend the service talks to. *StateManager
// is the Redis implementation; tests substitute an in-memory one.
type Store interface {
	// Lock serializes mutations of one session. It returns an unlock
	// function on success.
	Lock(ctx context.Context, sessionID uuid.UUID) (func() error, error)

	// Save persists the session and repoints the owner's current-session
	// marker at it.
	Save(ctx context.Context, sess *Session) error

	// Get returns the session, or (nil, nil) when it has expired.
	Get(ctx context.Context, sessionID uuid.UUID) (*Session, error)

	// Current returns the owner's most recent session id.
	Current(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error)
}

// StateManager handles ephemeral session state in Redis with atomic locks.
type StateManager struct {
	redis  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

var _ Store = (*StateManager)(nil)

// NewStateManager creates a state manager backed by Redis.
func NewStateManager(redis *redis.Client, ttl time.Duration, logger zerolog.Logger) *StateManager {
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	return &StateManager{
		redis:  redis,
		ttl:    ttl,
		logger: logger,
	}
}

// Lock acquires a distributed lock for session state transitions.
// Returns unlock function and error. Lock expires after 30s.
func (s *StateManager) Lock(ctx context.Context, sessionID uuid.UUID) (func() error, error) {
	key := fmt.Sprintf("session:lock:%s", sessionID.String())
	lockValue := uuid.New().String()

	acquired, err := s.redis.SetNX(ctx, key, lockValue, 30*time.Second).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("lock already held")
	}

	unlock := func() error {
		// Lua script ensures we only delete our own lock
		script := `
			if redis.call("get", KEYS[1]) == ARGV[1] then
				return redis.call("del", KEYS[1])
			else
				return 0
			end
		`
		return s.redis.Eval(ctx, script, []string{key}, lockValue).Err()
	}

	return unlock, nil
}

// Save stores the session blob and the owner's current-session pointer,
// both refreshed to the full TTL.
func (s *StateManager) Save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, sessionKey(sess.ID), data, s.ttl)
	pipe.Set(ctx, currentKey(sess.UserID), sess.ID.String(), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Get retrieves a session.
func (s *StateManager) Get(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	data, err := s.redis.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

// Current resolves the session a player last saved.
func (s *StateManager) Current(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	raw, err := s.redis.Get(ctx, currentKey(userID)).Result()
	if err == redis.Nil {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("get current session: %w", err)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		s.logger.Warn().Str("value", raw).Msg("corrupt current-session pointer")
		return uuid.Nil, false, nil
	}
	return id, true, nil
}

func sessionKey(id uuid.UUID) string {
	return fmt.Sprintf("session:state:%s", id.String())
}

func currentKey(userID uuid.UUID) string {
	return fmt.Sprintf("session:current:%s", userID.String())
}
