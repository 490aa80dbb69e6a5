package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"medform/internal/model"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionBusy means another request holds the session lock
	ErrSessionBusy = errors.New("session is busy")
	// ErrLockLost means the lock expired before it was released
	ErrLockLost = errors.New("session lock expired before release")
)

// LockTTL bounds how long one transition may hold a session. Work done under
// the lock, including a submission call, must finish well inside it.
const LockTTL = 30 * time.Second

// SessionCache stores respondent sessions in Redis with a sliding TTL
type SessionCache interface {
	Set(ctx context.Context, session *model.Session) error
	Get(ctx context.Context, id string) (*model.Session, error)
	Delete(ctx context.Context, id string) error
	// Lock takes the per-session transition lock. The returned func releases
	// it and reports ErrLockLost when the lock had already expired.
	Lock(ctx context.Context, id string) (func() error, error)
}

type sessionCache struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

func NewSessionCache(client *redis.Client, ttl time.Duration) SessionCache {
	return &sessionCache{
		client:  client,
		ttl:     ttl,
		lockTTL: LockTTL,
	}
}

func (c *sessionCache) key(id string) string {
	return "session:" + id
}

func (c *sessionCache) lockKey(id string) string {
	return fmt.Sprintf("session:%s:lock", id)
}

func (c *sessionCache) Set(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(session.ID), data, c.ttl).Err()
}

func (c *sessionCache) Get(ctx context.Context, id string) (*model.Session, error) {
	data, err := c.client.Get(ctx, c.key(id)).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var session model.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	if session.Answers == nil {
		session.Answers = model.AnswerStore{}
	}
	return &session, nil
}

func (c *sessionCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}

// releaseScript deletes the lock only if this holder still owns it
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (c *sessionCache) Lock(ctx context.Context, id string) (func() error, error) {
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, c.lockKey(id), token, c.lockTTL).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionBusy
	}
	return func() error {
		deleted, err := releaseScript.Run(context.Background(), c.client, []string{c.lockKey(id)}, token).Int()
		if err != nil {
			return fmt.Errorf("release session lock: %w", err)
		}
		if deleted == 0 {
			return ErrLockLost
		}
		return nil
	}, nil
}
