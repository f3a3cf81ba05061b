package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/reportdesk/incident_reporting_system/internal/service"
)

// ErrSessionNotFound возвращается, когда токен отсутствует или истек
var ErrSessionNotFound = errors.New("session not found")

// RedisSessionStore хранит сессии администраторов в Redis.
// Ключ session:<token> содержит id учетной записи с TTL,
// ключ admin_sessions:<id> индексирует токены для массовой инвалидации.
type RedisSessionStore struct {
	redisClient *redis.Client
	ttl         time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) service.SessionStore {
	return &RedisSessionStore{
		redisClient: client,
		ttl:         ttl,
	}
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

func adminIndexKey(adminID int64) string {
	return fmt.Sprintf("admin_sessions:%d", adminID)
}

// Create создает новую сессию и возвращает ее токен
func (s *RedisSessionStore) Create(ctx context.Context, adminID int64) (string, error) {
	token := uuid.NewString()

	pipe := s.redisClient.TxPipeline()
	pipe.Set(ctx, sessionKey(token), adminID, s.ttl)
	pipe.SAdd(ctx, adminIndexKey(adminID), token)
	// Индекс живет не меньше самой сессии
	pipe.Expire(ctx, adminIndexKey(adminID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to create session in Redis: %w", err)
	}

	return token, nil
}

// Get возвращает id учетной записи по токену сессии
func (s *RedisSessionStore) Get(ctx context.Context, token string) (int64, error) {
	val, err := s.redisClient.Get(ctx, sessionKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrSessionNotFound
		}
		return 0, fmt.Errorf("failed to get session from Redis: %w", err)
	}

	adminID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse session value: %w", err)
	}
	return adminID, nil
}

// Delete удаляет одну сессию (logout)
func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	val, err := s.redisClient.Get(ctx, sessionKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("failed to get session for delete: %w", err)
	}

	pipe := s.redisClient.TxPipeline()
	pipe.Del(ctx, sessionKey(token))
	if adminID, parseErr := strconv.ParseInt(val, 10, 64); parseErr == nil {
		pipe.SRem(ctx, adminIndexKey(adminID), token)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session in Redis: %w", err)
	}
	return nil
}

// DeleteAllForAdmin инвалидирует все сессии учетной записи
// (сброс пароля, деактивация, удаление)
func (s *RedisSessionStore) DeleteAllForAdmin(ctx context.Context, adminID int64) error {
	tokens, err := s.redisClient.SMembers(ctx, adminIndexKey(adminID)).Result()
	if err != nil {
		return fmt.Errorf("failed to list sessions for admin: %w", err)
	}

	pipe := s.redisClient.TxPipeline()
	for _, token := range tokens {
		pipe.Del(ctx, sessionKey(token))
	}
	pipe.Del(ctx, adminIndexKey(adminID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete sessions for admin: %w", err)
	}
	return nil
}
