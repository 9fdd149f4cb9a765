package service

import (
	"context"
	"sync"
	"time"

	"github.com/storefront-next/internal/cache"
)

const defaultEditSessionTTL = 30 * time.Minute

// EditSessionStore 地址编辑会话存储
type EditSessionStore interface {
	Load(ctx context.Context, customerID string) (*AddressBookState, bool, error)
	Save(ctx context.Context, customerID string, state AddressBookState) error
	Delete(ctx context.Context, customerID string) error
}

// NewEditSessionStore Redis 可用时使用 Redis，否则退回进程内存
func NewEditSessionStore(ttl time.Duration) EditSessionStore {
	if ttl <= 0 {
		ttl = defaultEditSessionTTL
	}
	if cache.Enabled() {
		return &RedisEditSessionStore{ttl: ttl}
	}
	return NewMemoryEditSessionStore(ttl)
}

func editSessionKey(customerID string) string {
	return "profile:edit:" + customerID
}

// RedisEditSessionStore 基于 Redis 的会话存储
type RedisEditSessionStore struct {
	ttl time.Duration
}

// Load 读取会话
func (s *RedisEditSessionStore) Load(ctx context.Context, customerID string) (*AddressBookState, bool, error) {
	var state AddressBookState
	hit, err := cache.GetJSON(ctx, editSessionKey(customerID), &state)
	if err != nil || !hit {
		return nil, false, err
	}
	return &state, true, nil
}

// Save 写入会话并刷新过期时间
func (s *RedisEditSessionStore) Save(ctx context.Context, customerID string, state AddressBookState) error {
	return cache.SetJSON(ctx, editSessionKey(customerID), state, s.ttl)
}

// Delete 删除会话
func (s *RedisEditSessionStore) Delete(ctx context.Context, customerID string) error {
	return cache.Del(ctx, editSessionKey(customerID))
}

type memoryEditSession struct {
	state     AddressBookState
	expiresAt time.Time
}

// MemoryEditSessionStore 进程内会话存储，单实例部署使用
type MemoryEditSessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]memoryEditSession
	now      func() time.Time
}

// NewMemoryEditSessionStore 创建内存会话存储
func NewMemoryEditSessionStore(ttl time.Duration) *MemoryEditSessionStore {
	return &MemoryEditSessionStore{
		ttl:      ttl,
		sessions: make(map[string]memoryEditSession),
		now:      time.Now,
	}
}

// Load 读取会话，过期会话视为不存在
func (s *MemoryEditSessionStore) Load(_ context.Context, customerID string) (*AddressBookState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[customerID]
	if !ok {
		return nil, false, nil
	}
	if !s.now().Before(session.expiresAt) {
		delete(s.sessions, customerID)
		return nil, false, nil
	}
	state := session.state
	return &state, true, nil
}

// Save 写入会话
func (s *MemoryEditSessionStore) Save(_ context.Context, customerID string, state AddressBookState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[customerID] = memoryEditSession{state: state, expiresAt: s.now().Add(s.ttl)}
	return nil
}

// Delete 删除会话
func (s *MemoryEditSessionStore) Delete(_ context.Context, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, customerID)
	return nil
}
