package redis

import (
	"context"
	"errors"
	"time"

	"github.com/DRSN-tech/storefront-catalog/pkg/clients"
	"github.com/DRSN-tech/storefront-catalog/pkg/e"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// CacheRepo — персистентный уровень кэша выдачи поверх Redis.
// Значения — готовые JSON-строки; ключи живут retention, после чего Redis удаляет их сам.
type CacheRepo struct {
	client    *clients.RedisClient
	retention time.Duration
}

func NewCacheRepo(client *clients.RedisClient, retention time.Duration) *CacheRepo {
	return &CacheRepo{
		client:    client,
		retention: retention,
	}
}

// GetItem возвращает значение по ключу. Отсутствие ключа — ("", false, nil).
func (c *CacheRepo) GetItem(ctx context.Context, key string) (string, bool, error) {
	value, err := c.client.Client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return "", false, nil
		}
		return "", false, e.Wrap(whereami.WhereAmI(), err)
	}

	return value, true, nil
}

// SetItem перезаписывает значение и продлевает срок хранения ключа.
func (c *CacheRepo) SetItem(ctx context.Context, key, value string) error {
	if err := c.client.Client.Set(ctx, key, value, c.retention).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// RemoveItem удаляет ключи одной командой DEL.
func (c *CacheRepo) RemoveItem(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Client.Del(ctx, keys...).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
