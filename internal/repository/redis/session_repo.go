package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"community_hub/internal/session"
)

var (
	ErrRedisUnavailable = errors.New("redis unavailable")
	ErrExtendFailed     = errors.New("session extend failed")
	ErrSessionDeleted   = errors.New("session delete failed")
)

const SessionKeyPrefix = "session:token"

// SessionRepository 基于 redis 的会话存储，实现 session.Store
type SessionRepository struct {
	Client *redis.Client
	TTL    time.Duration
}

func (r *SessionRepository) key(token string) string {
	return fmt.Sprintf("%s:%s", SessionKeyPrefix, token)
}

func (r *SessionRepository) Create(ctx context.Context, userID uint64) (string, error) {
	token, err := session.NewToken()
	if err != nil {
		return "", err
	}
	if err := r.Client.Set(ctx, r.key(token), userID, r.TTL).Err(); err != nil {
		return "", ErrRedisUnavailable
	}
	return token, nil
}

// Get 读取后顺带续期
func (r *SessionRepository) Get(ctx context.Context, token string) (uint64, error) {
	key := r.key(token)
	val, err := r.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, session.ErrSessionNotFound
	}
	if err != nil {
		return 0, ErrRedisUnavailable
	}
	userID, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, session.ErrSessionNotFound
	}

	if err := r.Client.Expire(ctx, key, r.TTL).Err(); err != nil {
		return 0, ErrExtendFailed
	}
	return userID, nil
}

func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	if err := r.Client.Del(ctx, r.key(token)).Err(); err != nil {
		return ErrSessionDeleted
	}
	return nil
}

var _ session.Store = (*SessionRepository)(nil)
