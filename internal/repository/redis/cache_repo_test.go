package redis

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront-catalog/internal/domain"
	"github.com/DRSN-tech/storefront-catalog/internal/usecase"
	"github.com/DRSN-tech/storefront-catalog/pkg/clients"
	"github.com/DRSN-tech/storefront-catalog/pkg/logger"
	r "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUnreachableRedis() *clients.RedisClient {
	return &clients.RedisClient{Client: r.NewClient(&r.Options{
		Addr:       "localhost:0",
		MaxRetries: -1,
		Dialer: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return nil, errors.New("redis disabled in tests")
		},
	})}
}

func TestCacheRepo_ErrorsWhenRedisUnavailable(t *testing.T) {
	client := newUnreachableRedis()
	defer client.Close()
	repo := NewCacheRepo(client, time.Hour)
	ctx := context.Background()

	_, ok, err := repo.GetItem(ctx, "catalog:v1:all-newest")
	assert.Error(t, err)
	assert.False(t, ok)

	assert.Error(t, repo.SetItem(ctx, "catalog:v1:all-newest", "{}"))
	assert.Error(t, repo.RemoveItem(ctx, "catalog:v1:all-newest"))
	assert.NoError(t, repo.RemoveItem(ctx))
}

// Кэш выдачи поверх недоступного Redis продолжает работать из памяти.
func TestCacheRepo_CacheStoreDegradesToMemory(t *testing.T) {
	client := newUnreachableRedis()
	defer client.Close()

	store := usecase.NewCacheStore(NewCacheRepo(client, time.Hour), logger.Nop{}, usecase.CacheStoreOpts{
		StorageTimeout: 100 * time.Millisecond,
	})
	ctx := context.Background()
	f := domain.DefaultFilter()

	store.Put(ctx, f, usecase.CacheEntry{Products: []domain.Product{{ID: "1", Images: []string{"https://a/1.jpg"}}}})

	entry, ok := store.Get(ctx, f)
	require.True(t, ok)
	assert.Len(t, entry.Products, 1)
	assert.GreaterOrEqual(t, store.Stats().StorageFailures, uint64(1))
}
