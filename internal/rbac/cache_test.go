package rbac

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCacheFixture(t *testing.T) (*miniredis.Miniredis, *fakeStore, *CachedRoleStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	inner := newFakeStore(standardRoles)
	return mr, inner, NewCachedRoleStore(inner, client, time.Minute)
}

func TestCachedResolveServesFromRedis(t *testing.T) {
	ctx := context.Background()
	_, inner, cached := newCacheFixture(t)
	inner.grant(7, 1, 2)

	first, err := cached.ResolveRoles(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, 1, inner.resolveCalls)

	second, err := cached.ResolveRoles(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.resolveCalls, "second resolve must hit the cache")
	assert.ElementsMatch(t, first, second)
}

func TestCachedStoreInvalidatesOnMutation(t *testing.T) {
	ctx := context.Background()
	_, inner, cached := newCacheFixture(t)
	inner.grant(7, 1)

	_, err := cached.ResolveRoles(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, 1, inner.resolveCalls)

	require.NoError(t, cached.Attach(ctx, 7, []int64{2}))
	names, err := cached.ResolveRoles(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.resolveCalls, "attach must drop the cache entry")
	assert.ElementsMatch(t, []string{"admin", "member"}, names)

	require.NoError(t, cached.Detach(ctx, 7, []int64{1}))
	names, err = cached.ResolveRoles(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, inner.resolveCalls, "detach must drop the cache entry")
	assert.ElementsMatch(t, []string{"member"}, names)
}

func TestCachedStoreMutationFailureKeepsCache(t *testing.T) {
	ctx := context.Background()
	mr, inner, cached := newCacheFixture(t)
	inner.grant(7, 1)

	_, err := cached.ResolveRoles(ctx, 7)
	require.NoError(t, err)
	require.True(t, mr.Exists("rbac:roles:7"))

	inner.attachErr = errors.New("write rejected")
	require.Error(t, cached.Attach(ctx, 7, []int64{2}))
	assert.True(t, mr.Exists("rbac:roles:7"), "failed attach must not invalidate")
}

func TestCachedStoreFallsThroughWhenRedisIsDown(t *testing.T) {
	ctx := context.Background()
	mr, inner, cached := newCacheFixture(t)
	inner.grant(7, 1)

	mr.Close()

	names, err := cached.ResolveRoles(ctx, 7)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"admin"}, names)
	assert.Equal(t, 1, inner.resolveCalls)
}

func TestCachedStoreDropsCorruptEntries(t *testing.T) {
	ctx := context.Background()
	mr, inner, cached := newCacheFixture(t)
	inner.grant(7, 1)

	require.NoError(t, mr.Set("rbac:roles:7", "not json"))

	names, err := cached.ResolveRoles(ctx, 7)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"admin"}, names)
	assert.Equal(t, 1, inner.resolveCalls, "corrupt entry must be reloaded from the store")
}

func TestCachedStorePropagatesInnerFailure(t *testing.T) {
	ctx := context.Background()
	_, inner, cached := newCacheFixture(t)
	inner.resolveErr = errors.New("store down")

	_, err := cached.ResolveRoles(ctx, 7)
	assert.Error(t, err)
}
