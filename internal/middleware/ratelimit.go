package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"

	"github.com/xelth-com/stockflow/internal/utils"
)

const storePrefix = "stockflow_limiter"

// NewMemoryStore keeps counters in process. Only correct for a single instance.
func NewMemoryStore() limiter.Store {
	return memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          storePrefix,
		CleanUpInterval: time.Minute,
	})
}

// NewRedisStore shares counters between instances through Redis
func NewRedisStore(client *redis.Client) (limiter.Store, error) {
	return sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix:   storePrefix,
		MaxRetry: 3,
	})
}

// RateLimiter builds per-route fixed window limits over a shared store
type RateLimiter struct {
	store      limiter.Store
	trustProxy bool
}

// NewRateLimiter creates a limiter backed by store. With trustProxy the
// client is taken from forwarding headers instead of the connection.
func NewRateLimiter(store limiter.Store, trustProxy bool) *RateLimiter {
	return &RateLimiter{store: store, trustProxy: trustProxy}
}

// ClientAddress identifies the caller. With trustProxy it prefers the first
// X-Forwarded-For entry, then X-Real-IP; otherwise, or when neither is set,
// the remote host, then "anonymous".
func ClientAddress(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
				return first
			}
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}
	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
			return host
		}
		return r.RemoteAddr
	}
	return "anonymous"
}

// Limit returns middleware allowing the formatted rate (e.g. "60-M") per
// client on the named route. Over the limit the request gets a 429.
func (rl *RateLimiter) Limit(route, formatted string) (func(http.Handler) http.Handler, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q for %s: %w", formatted, route, err)
	}

	instance := limiter.New(rl.store, rate)
	mw := stdlib.NewMiddleware(instance,
		stdlib.WithKeyGetter(func(r *http.Request) string {
			return route + ":" + ClientAddress(r, rl.trustProxy)
		}),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			zap.L().Warn("rate limit exceeded",
				zap.String("route", route),
				zap.String("client", ClientAddress(r, rl.trustProxy)))
			utils.WriteError(w, utils.ErrRateLimited)
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			zap.L().Error("rate limit store error", zap.String("route", route), zap.Error(err))
			utils.WriteError(w, utils.ErrInternal)
		}),
	)
	return mw.Handler, nil
}
