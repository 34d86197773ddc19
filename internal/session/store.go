// Package session реализует хранилище сессионного токена портала.
//
// В каждый момент времени хранится не более одного токена: Set полностью
// замещает прежнее значение, Clear удаляет его. Хранилище не проверяет
// действительность токена — её устанавливает только успешный
// аутентифицированный вызов сервиса аккаунтов.
package session

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"github.com/pyro1121/omg-portal/internal/config"
)

// Key — фиксированное пространство имён, под которым токен лежит в хранилище.
const Key = "omg:portal:session"

// Store описывает контракт хранилища сессии.
//
// Epoch — монотонный счётчик поколений сессии: каждый Set и Clear увеличивает
// его. Асинхронный загрузчик фиксирует Epoch перед запросом и отбрасывает
// ответ, если к моменту применения значение изменилось, — так поздний ответ
// не может перезаписать состояние чужой или уже завершённой сессии.
type Store interface {
	// Get возвращает текущий токен и признак его наличия.
	Get(ctx context.Context) (string, bool, error)
	// Set сохраняет токен, замещая прежний.
	Set(ctx context.Context, token string) error
	// Clear удаляет токен из хранилища и из памяти процесса.
	Clear(ctx context.Context) error
	// Epoch возвращает текущее поколение сессии.
	Epoch() uint64
}

// RedisStore хранит токен в redis под фиксированным ключом без TTL:
// срок жизни сессии определяет только сервер.
type RedisStore struct {
	db    *redis.Client
	epoch atomic.Uint64
}

// NewRedis подключается к redis и возвращает хранилище сессии.
func NewRedis(ctx context.Context, cfg config.RedisConnection) (*RedisStore, error) {
	const op = "session.NewRedis"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &RedisStore{db: db}, nil
}

// Get возвращает текущий токен и признак его наличия.
func (s *RedisStore) Get(ctx context.Context) (string, bool, error) {
	const op = "session.Get"
	val, err := s.db.Get(ctx, Key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	return val, true, nil
}

// Set сохраняет токен, замещая прежний, и открывает новое поколение сессии.
func (s *RedisStore) Set(ctx context.Context, token string) error {
	const op = "session.Set"
	if err := s.db.Set(ctx, Key, token, 0).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.epoch.Add(1)
	return nil
}

// Clear удаляет токен и открывает новое поколение сессии.
func (s *RedisStore) Clear(ctx context.Context) error {
	const op = "session.Clear"
	if err := s.db.Del(ctx, Key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.epoch.Add(1)
	return nil
}

// Epoch возвращает текущее поколение сессии.
func (s *RedisStore) Epoch() uint64 {
	return s.epoch.Load()
}
