package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	applog "github.com/janisto/linkglyph/internal/platform/logging"
)

const cacheKeyPrefix = "linkglyph:profile:"

// DefaultCacheTTL is used when CachedStore is given a non-positive TTL.
const DefaultCacheTTL = 5 * time.Minute

// lookupTimeout bounds a shared lookup, which outlives any single caller.
const lookupTimeout = 10 * time.Second

// cacheEncMode keeps sub-second timestamp precision, which the default
// Unix-seconds time encoding drops.
var cacheEncMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// RedisConfig holds connection settings for the lookup cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient creates a client and verifies the connection.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// CachedStore caches FindByHandle results in Redis in front of another Service.
// Cache failures never fail a request; the inner store stays authoritative.
type CachedStore struct {
	Service

	rdb   redis.UniversalClient
	ttl   time.Duration
	group singleflight.Group
}

// NewCachedStore wraps inner with a Redis read-through cache.
func NewCachedStore(inner Service, rdb redis.UniversalClient, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedStore{Service: inner, rdb: rdb, ttl: ttl}
}

// PingCache checks the Redis connection.
func (c *CachedStore) PingCache(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

type cachedProfile struct {
	Handle    string    `cbor:"handle"`
	FullName  string    `cbor:"fullName"`
	Title     *string   `cbor:"title,omitempty"`
	Bio       *string   `cbor:"bio,omitempty"`
	Location  *string   `cbor:"location,omitempty"`
	Website   *string   `cbor:"website,omitempty"`
	Avatar    *string   `cbor:"avatar,omitempty"`
	Theme     string    `cbor:"theme"`
	Accent    string    `cbor:"accent"`
	OwnerID   *string   `cbor:"ownerId,omitempty"`
	CreatedAt time.Time `cbor:"createdAt"`
	UpdatedAt time.Time `cbor:"updatedAt"`
}

// Upsert writes through to the cache so a lookup that read the previous
// record cannot leave it behind. When the write fails the entry is dropped.
func (c *CachedStore) Upsert(ctx context.Context, params UpsertParams) (*Profile, error) {
	p, err := c.Service.Upsert(ctx, params)
	if err != nil {
		return nil, err
	}
	c.group.Forget(p.Handle)

	if err := c.store(ctx, p, false); err != nil {
		applog.LogWarn(ctx, "cache write failed",
			slog.String("handle", p.Handle), slog.String("error", err.Error()))
		if err := c.rdb.Del(ctx, cacheKey(p.Handle)).Err(); err != nil {
			applog.LogWarn(ctx, "cache invalidate failed",
				slog.String("handle", p.Handle), slog.String("error", err.Error()))
		}
	}
	return p, nil
}

// FindByHandle shares one inner lookup between concurrent callers. The shared
// lookup runs detached from any caller, so one caller giving up does not fail
// the others.
func (c *CachedStore) FindByHandle(ctx context.Context, handle string) (*Profile, error) {
	if p, ok := c.get(ctx, handle); ok {
		return p, nil
	}

	ch := c.group.DoChan(handle, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()

		p, err := c.Service.FindByHandle(lctx, handle)
		if err != nil {
			return nil, err
		}
		// Fill only when empty; an upsert that raced this lookup wins.
		if err := c.store(lctx, p, true); err != nil {
			applog.LogWarn(lctx, "cache write failed",
				slog.String("handle", handle), slog.String("error", err.Error()))
		}
		return p, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		// Callers sharing a flight must not alias the same record.
		return cloneProfile(res.Val.(*Profile)), nil
	}
}

func (c *CachedStore) get(ctx context.Context, handle string) (*Profile, bool) {
	raw, err := c.rdb.Get(ctx, cacheKey(handle)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			applog.LogWarn(ctx, "cache read failed",
				slog.String("handle", handle), slog.String("error", err.Error()))
		}
		return nil, false
	}

	var entry cachedProfile
	if err := cbor.Unmarshal(raw, &entry); err != nil {
		applog.LogWarn(ctx, "cache entry undecodable",
			slog.String("handle", handle), slog.String("error", err.Error()))
		return nil, false
	}

	return entry.toProfile(), true
}

func (c *CachedStore) store(ctx context.Context, p *Profile, onlyIfAbsent bool) error {
	raw, err := cacheEncMode.Marshal(toCachedProfile(p))
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if onlyIfAbsent {
		return c.rdb.SetNX(ctx, cacheKey(p.Handle), raw, c.ttl).Err()
	}
	return c.rdb.Set(ctx, cacheKey(p.Handle), raw, c.ttl).Err()
}

func cacheKey(handle string) string {
	return cacheKeyPrefix + handle
}

func toCachedProfile(p *Profile) cachedProfile {
	return cachedProfile{
		Handle:    p.Handle,
		FullName:  p.FullName,
		Title:     p.Title,
		Bio:       p.Bio,
		Location:  p.Location,
		Website:   p.Website,
		Avatar:    p.Avatar,
		Theme:     p.Theme,
		Accent:    p.Accent,
		OwnerID:   p.OwnerID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (e cachedProfile) toProfile() *Profile {
	return &Profile{
		Handle:    e.Handle,
		FullName:  e.FullName,
		Title:     e.Title,
		Bio:       e.Bio,
		Location:  e.Location,
		Website:   e.Website,
		Avatar:    e.Avatar,
		Theme:     e.Theme,
		Accent:    e.Accent,
		OwnerID:   e.OwnerID,
		CreatedAt: e.CreatedAt.UTC(),
		UpdatedAt: e.UpdatedAt.UTC(),
	}
}

var _ Service = (*CachedStore)(nil)
