package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CachedRoleStore decorates a RoleStore with a Redis TTL cache over
// resolved role sets. Concurrent cache misses for the same subject are
// collapsed into a single store load. Attach and Detach drop the cache
// entry after the underlying write succeeds.
//
// The cache is best-effort: Redis faults fall through to the inner store
// so a cache outage never turns into a resolution failure.
type CachedRoleStore struct {
	inner  RoleStore
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewCachedRoleStore constructs a CachedRoleStore.
func NewCachedRoleStore(inner RoleStore, client *redis.Client, ttl time.Duration) *CachedRoleStore {
	return &CachedRoleStore{inner: inner, client: client, ttl: ttl}
}

// ResolveRoles returns the cached role set, loading through the inner
// store on a miss.
func (c *CachedRoleStore) ResolveRoles(ctx context.Context, subjectID int64) ([]string, error) {
	key := c.key(subjectID)

	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var names []string
		if err := json.Unmarshal(data, &names); err == nil {
			return names, nil
		}
		// A corrupt entry is dropped and reloaded.
		_ = c.client.Del(ctx, key).Err()
	} else if !errors.Is(err, redis.Nil) {
		return c.inner.ResolveRoles(ctx, subjectID)
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		names, err := c.inner.ResolveRoles(ctx, subjectID)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(names); err == nil {
			_ = c.client.Set(ctx, key, data, c.ttl).Err()
		}
		return names, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

// Attach writes through to the inner store and invalidates the cache.
func (c *CachedRoleStore) Attach(ctx context.Context, subjectID int64, roleIDs []int64) error {
	if err := c.inner.Attach(ctx, subjectID, roleIDs); err != nil {
		return err
	}
	_ = c.client.Del(ctx, c.key(subjectID)).Err()
	return nil
}

// Detach writes through to the inner store and invalidates the cache.
func (c *CachedRoleStore) Detach(ctx context.Context, subjectID int64, roleIDs []int64) error {
	if err := c.inner.Detach(ctx, subjectID, roleIDs); err != nil {
		return err
	}
	_ = c.client.Del(ctx, c.key(subjectID)).Err()
	return nil
}

func (c *CachedRoleStore) key(subjectID int64) string {
	return "rbac:roles:" + strconv.FormatInt(subjectID, 10)
}
