package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// InvalidateChannel carries invalidated tag names.
const InvalidateChannel = "companies.invalidate"

const keyPrefix = "companydir"

// TagCache caches JSON payloads under keys scoped by a tag version. Bumping
// a tag's version orphans every key built from it, and the tag name is
// published so subscribers can refresh.
type TagCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewTagCache wraps client. A nil client disables caching: loaders run on
// every fetch and Invalidate is a no-op.
func NewTagCache(client *redis.Client, ttl time.Duration) *TagCache {
	return &TagCache{client: client, ttl: ttl}
}

func versionKey(tag string) string {
	return keyPrefix + ":tag:" + tag + ":v"
}

// Version returns the current version of tag, starting at 0.
func (c *TagCache) Version(ctx context.Context, tag string) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, versionKey(tag)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return ver, err
}

// Key composes a cache key bound to the current version of tag. Parts are
// escaped so no two part lists share a key.
func (c *TagCache) Key(ctx context.Context, tag string, parts ...string) (string, error) {
	ver, err := c.Version(ctx, tag)
	if err != nil {
		return "", fmt.Errorf("platform/cache: version %s: %w", tag, err)
	}
	escaped := make([]string, len(parts))
	for i, part := range parts {
		escaped[i] = url.QueryEscape(part)
	}
	return fmt.Sprintf("%s:%s:%s@%d", keyPrefix, strings.Join(escaped, ":"), tag, ver), nil
}

// FetchJSON loads key into dest, populating it from loader on a miss.
// Concurrent misses for the same key share one loader call.
func (c *TagCache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("platform/cache: loader required")
	}
	if c == nil || c.client == nil {
		return load(ctx, dest, loader)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		// Cache outage falls through to the loader.
		return load(ctx, dest, loader)
	}
	raw, err, _ := c.group.Do(key, func() (any, error) {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		_ = c.client.Set(ctx, key, raw, c.ttl).Err()
		return raw, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(raw.([]byte), dest)
}

// Invalidate bumps each tag version and publishes the tag names.
func (c *TagCache) Invalidate(ctx context.Context, tags ...string) error {
	if c == nil || c.client == nil || len(tags) == 0 {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, tag := range tags {
			pipe.Incr(ctx, versionKey(tag))
			pipe.Publish(ctx, InvalidateChannel, tag)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("platform/cache: invalidate %s: %w", strings.Join(tags, ","), err)
	}
	return nil
}

// Listen calls fn with every tag published on InvalidateChannel until ctx is
// done. It returns once the subscription is active.
func (c *TagCache) Listen(ctx context.Context, fn func(tag string)) error {
	if c == nil || c.client == nil {
		return nil
	}
	pubsub := c.client.Subscribe(ctx, InvalidateChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("platform/cache: subscribe: %w", err)
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				fn(msg.Payload)
			}
		}
	}()
	return nil
}

func load(ctx context.Context, dest any, loader func(context.Context) (any, error)) error {
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
