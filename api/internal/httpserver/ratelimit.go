package httpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"pitch-slides/api/internal/apperr"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// IPLimiter: локальные rate.Limiter на каждый ключ; неактивные вычищает go-cache.
type IPLimiter struct {
	rps   rate.Limit
	burst int
	items *cache.Cache
}

func NewIPLimiter(rps float64, burst int) *IPLimiter {
	if burst < 1 {
		burst = 1
	}
	return &IPLimiter{
		rps:   rate.Limit(rps),
		burst: burst,
		items: cache.New(10*time.Minute, 20*time.Minute),
	}
}

func (l *IPLimiter) limiterFor(key string) *rate.Limiter {
	if v, ok := l.items.Get(key); ok {
		l.items.SetDefault(key, v)
		return v.(*rate.Limiter)
	}
	lim := rate.NewLimiter(l.rps, l.burst)
	// Add не перезапишет лимитер, созданный параллельным запросом
	if err := l.items.Add(key, lim, cache.DefaultExpiration); err != nil {
		if v, ok := l.items.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return lim
}

func (l *IPLimiter) Allow(_ context.Context, key string) (bool, error) {
	return l.limiterFor(key).Allow(), nil
}

const tokenBucketScript = `
local tokensKey = KEYS[1]
local lastKey   = KEYS[2]
local capacity  = tonumber(ARGV[1])
local fillRate  = tonumber(ARGV[2])
local now       = tonumber(ARGV[3])
local ttl       = tonumber(ARGV[4])

local tokens = tonumber(redis.call("GET", tokensKey))
local last   = tonumber(redis.call("GET", lastKey))

if not tokens or not last then
  tokens = capacity
  last = now
else
  local elapsed = math.max(0, now - last) / 1e3
  tokens = math.min(capacity, tokens + elapsed * fillRate)
  last = now
end

local allowed = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
end

redis.call("SET", tokensKey, tokens, "EX", ttl)
redis.call("SET", lastKey, last, "EX", ttl)

return allowed
`

// RedisLimiter: распределённый token bucket (Lua-скрипт), общий для всех реплик.
type RedisLimiter struct {
	Client   redis.Scripter
	Capacity float64
	FillRate float64
	TTL      time.Duration
	Now      func() time.Time

	script *redis.Script
}

func NewRedisLimiter(client redis.Scripter, capacity, fillRate float64, ttl time.Duration) *RedisLimiter {
	if ttl < time.Second {
		ttl = time.Minute
	}
	// как у IPLimiter: burst 0 означает один запрос
	if capacity < 1 {
		capacity = 1
	}
	return &RedisLimiter{
		Client:   client,
		Capacity: capacity,
		FillRate: fillRate,
		TTL:      ttl,
		Now:      time.Now,
		script:   redis.NewScript(tokenBucketScript),
	}
}

func (r *RedisLimiter) keys(key string) []string {
	return []string{
		fmt.Sprintf("rate_limit:%s:tokens", key),
		fmt.Sprintf("rate_limit:%s:last", key),
	}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	res, err := r.script.Run(ctx, r.Client, r.keys(key),
		r.Capacity,
		r.FillRate,
		r.Now().UnixMilli(),
		int64(r.TTL/time.Second),
	).Int()
	if err != nil {
		return false, apperr.New(apperr.CodeInternal, "redis is not responding", err)
	}
	return res == 1, nil
}
