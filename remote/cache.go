package remote

import (
	"context"
	"encoding/json"

	"github.com/coocood/freecache"

	"github.com/janelia-flyem/ndio/ndio"
)

// MinCacheSize is the smallest metadata cache freecache will allocate.
const MinCacheSize = 512 * ndio.Kilo

// CachedService wraps a Service so channel metadata is fetched once per resource
// until it expires.
type CachedService struct {
	Service
	cache *freecache.Cache
	ttl   int
}

// WithCache returns svc with a metadata cache of the given size in bytes.  Entries
// expire after ttl seconds, or never if ttl is zero.
func WithCache(svc Service, size, ttl int) *CachedService {
	if size < MinCacheSize {
		size = MinCacheSize
	}
	return &CachedService{
		Service: svc,
		cache:   freecache.NewCache(size),
		ttl:     ttl,
	}
}

func (c *CachedService) key(r Resource) []byte {
	return []byte(c.Service.Name() + "|" + r.String())
}

// ChannelInfo returns cached metadata if present, else fetches and caches it.
func (c *CachedService) ChannelInfo(ctx context.Context, r Resource) (ChannelInfo, error) {
	key := c.key(r)
	if data, err := c.cache.Get(key); err == nil {
		var info ChannelInfo
		if err := json.Unmarshal(data, &info); err == nil {
			return info, nil
		}
		c.cache.Del(key)
	}
	info, err := c.Service.ChannelInfo(ctx, r)
	if err != nil {
		return info, err
	}
	data, err := json.Marshal(info)
	if err != nil {
		return info, nil
	}
	if err := c.cache.Set(key, data, c.ttl); err != nil {
		ndio.Warningf("Unable to cache metadata for %s: %v\n", r, err)
	}
	return info, nil
}

// Invalidate drops any cached metadata for a resource.
func (c *CachedService) Invalidate(r Resource) {
	c.cache.Del(c.key(r))
}

// Stats returns the number of cache hits and misses so far.
func (c *CachedService) Stats() (hits, misses int64) {
	return c.cache.HitCount(), c.cache.MissCount()
}
