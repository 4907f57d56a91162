package app

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/companydir/internal/company"
	"github.com/odyssey-erp/companydir/internal/observability"
	"github.com/odyssey-erp/companydir/internal/platform/cache"
)

func TestBootstrapMemoryWithSeed(t *testing.T) {
	ctx := context.Background()
	cfg := &Config{StoreDriver: StoreDriverMemory, SeedOnStart: true}

	rt, err := Bootstrap(ctx, cfg, slog.Default(), observability.NewMetrics())
	require.NoError(t, err)
	defer rt.Close()

	dataset, err := company.SeedDataset()
	require.NoError(t, err)
	all, err := rt.Service.List(ctx, company.Filters{})
	require.NoError(t, err)
	assert.Len(t, all, len(dataset))
	assert.IsType(t, &cache.LocalBus{}, rt.Bus)
	assert.NoError(t, rt.Ready(httptest.NewRequest("GET", "/healthz", nil)))
}

func TestBootstrapWithRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := &Config{StoreDriver: StoreDriverMemory, CacheEnabled: true, RedisAddr: mr.Addr(), CacheTTL: time.Minute}

	rt, err := Bootstrap(ctx, cfg, slog.Default(), nil)
	require.NoError(t, err)
	defer rt.Close()
	assert.IsType(t, &cache.TagCache{}, rt.Bus)

	tags := make(chan string, 4)
	require.NoError(t, rt.Bus.Listen(ctx, func(tag string) { tags <- tag }))

	_, err = rt.Service.Create(ctx, company.Attributes{Name: "Acme"})
	require.NoError(t, err)

	select {
	case tag := <-tags:
		assert.Equal(t, company.TagCompanies, tag)
	case <-time.After(2 * time.Second):
		t.Fatal("no invalidation published")
	}
	assert.NoError(t, rt.Ready(httptest.NewRequest("GET", "/healthz", nil)))

	mr.Close()
	assert.Error(t, rt.Ready(httptest.NewRequest("GET", "/healthz", nil)))
}

func TestBootstrapRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Bootstrap(context.Background(), &Config{StoreDriver: StoreDriverMemory, CacheEnabled: true, RedisAddr: addr}, slog.Default(), nil)
	assert.ErrorContains(t, err, "connect redis")
}
