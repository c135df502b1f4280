package runlock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"linkedin_poster/internal/config"
)

// Lock — суточный замок от повторной публикации одного аккаунта.
// Без адреса Redis замок отключён и Acquire всегда успешен, что
// повторяет поведение без защиты.
type Lock struct {
	client    *redis.Client
	personURN string
	ttl       time.Duration
}

func New(cfg *config.Config) *Lock {
	lock := &Lock{
		personURN: cfg.LinkedInPersonURN,
		ttl:       cfg.RunLockTTL,
	}
	if cfg.RedisAddr != "" {
		lock.client = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}
	return lock
}

// Acquire возвращает true, если сегодняшний запуск для этого аккаунта
// ещё не выполнялся. Ошибка Redis отдаётся вызывающему, который сам
// решает, продолжать ли без защиты.
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	if l.client == nil {
		return true, nil
	}

	key := fmt.Sprintf("poster:run:%s:%s", l.personURN, time.Now().UTC().Format("2006-01-02"))
	acquired, err := l.client.SetNX(ctx, key, 1, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire run lock: %w", err)
	}
	return acquired, nil
}

func (l *Lock) Close() error {
	if l.client == nil {
		return nil
	}
	return l.client.Close()
}
