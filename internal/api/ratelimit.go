package api

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/tradelens/pkg/config"
	"github.com/wonny/tradelens/pkg/logger"
	"github.com/wonny/tradelens/pkg/redis"
)

// Limiter decides whether a client may make another request
type Limiter interface {
	Allow(ctx context.Context, clientKey string) bool
}

// NewLimiter picks the shared Redis limiter when Redis is enabled,
// otherwise an in-process token bucket per client
func NewLimiter(cfg *config.Config, client *redis.Client, log *logger.Logger) Limiter {
	if client.Enabled() {
		return &redisLimiter{
			limiter: redis.NewRateLimiter(client, "tradelens"),
			rps:     cfg.API.RateLimit,
			burst:   cfg.API.RateBurst,
			logger:  logger.OrNop(log),
		}
	}
	return NewLocalLimiter(cfg.API.RateLimit, cfg.API.RateBurst)
}

// limiterIdleTTL is the minimum idle time before a client's bucket is dropped
const limiterIdleTTL = 10 * time.Minute

// LocalLimiter keeps one token bucket per client in memory.
// Buckets idle long enough to have refilled are evicted, so memory is bounded
// by the clients seen within one idle window.
type LocalLimiter struct {
	mu        sync.Mutex
	rps       rate.Limit
	burst     int
	idle      time.Duration
	clients   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLocalLimiter creates a limiter allowing rps requests per second with burst
func NewLocalLimiter(rps float64, burst int) *LocalLimiter {
	if burst < 1 {
		burst = 1
	}
	idle := limiterIdleTTL
	if rps > 0 {
		// 비어 있던 버킷이 다시 가득 찰 때까지는 유지
		if refill := time.Duration(float64(burst) / rps * float64(time.Second)); refill > idle {
			idle = refill
		}
	}
	return &LocalLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		idle:    idle,
		clients: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow consumes one token of the client's bucket
func (l *LocalLimiter) Allow(_ context.Context, clientKey string) bool {
	l.mu.Lock()
	now := l.now()
	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}
	b, ok := l.clients[clientKey]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[clientKey] = b
	}
	b.lastSeen = now
	l.mu.Unlock()
	return b.limiter.AllowN(now, 1)
}

// sweep drops buckets idle for longer than l.idle; callers hold l.mu
func (l *LocalLimiter) sweep(now time.Time) {
	for key, b := range l.clients {
		if now.Sub(b.lastSeen) > l.idle {
			delete(l.clients, key)
		}
	}
	l.lastSweep = now
}

// redisLimiter shares one sliding window per client across API instances
type redisLimiter struct {
	limiter *redis.RateLimiter
	rps     float64
	burst   int
	logger  *logger.Logger
}

// Allow lets the request through when Redis fails
func (l *redisLimiter) Allow(ctx context.Context, clientKey string) bool {
	allowed, _, err := l.limiter.Allow(ctx, redis.ClientLimit(clientKey, l.rps, l.burst))
	if err != nil {
		l.logger.WithError(err).Warn("Rate limit check failed, allowing request")
		return true
	}
	return allowed
}

// clientKey identifies the caller by remote IP
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
