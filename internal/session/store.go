// Package session 维护 会话token -> 用户ID 的映射。
// 生产环境使用 redis 实现（repository/redis），开发和测试使用 MemoryStore。
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"community_hub/internal/pkg"
)

var ErrSessionNotFound = errors.New("session not found")

const tokenBytes = 32

type Store interface {
	// Create 为用户创建新会话并返回 token
	Create(ctx context.Context, userID uint64) (string, error)
	// Get 返回 token 对应的用户ID，并续期
	Get(ctx context.Context, token string) (uint64, error)
	Delete(ctx context.Context, token string) error
}

type entry struct {
	userID    uint64
	expiresAt time.Time
}

type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]entry
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]entry),
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, userID uint64) (string, error) {
	token, err := pkg.RandToken(tokenBytes)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = entry{userID: userID, expiresAt: s.now().Add(s.ttl)}
	return token, nil
}

func (s *MemoryStore) Get(_ context.Context, token string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[token]
	if !ok {
		return 0, ErrSessionNotFound
	}
	now := s.now()
	if !now.Before(e.expiresAt) {
		delete(s.sessions, token)
		return 0, ErrSessionNotFound
	}
	e.expiresAt = now.Add(s.ttl)
	s.sessions[token] = e
	return e.userID, nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// NewToken 供其他 Store 实现复用同一 token 规格
func NewToken() (string, error) {
	return pkg.RandToken(tokenBytes)
}
