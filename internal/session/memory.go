package session

import (
	"context"
	"sync"
)

// MemoryStore — хранилище сессии в памяти процесса. Используется в тестах
// и при локальной разработке без redis.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
	set   bool
	epoch uint64
}

// NewMemory возвращает пустое хранилище сессии в памяти.
func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

// Get возвращает текущий токен и признак его наличия.
func (s *MemoryStore) Get(_ context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.set, nil
}

// Set сохраняет токен, замещая прежний.
func (s *MemoryStore) Set(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.set = true
	s.epoch++
	return nil
}

// Clear удаляет токен.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.set = false
	s.epoch++
	return nil
}

// Epoch возвращает текущее поколение сессии.
func (s *MemoryStore) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}
