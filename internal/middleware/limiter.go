package middleware

import (
	"blogpress/internal/telemetry"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/netip"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"
)

const (
	cleanupEvery  = time.Minute
	inactiveLimit = 3 * time.Minute
)

var ErrInvalidIP = errors.New("invalid IP")

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client address.
type IPRateLimiter struct {
	name     string
	mu       sync.Mutex
	clients  map[netip.Addr]*client
	rate     rate.Limit
	burst    int
	clientIP clientIPFunc
	metrics  *telemetry.Metrics
}

// NewIPRateLimiter starts a janitor dropping idle clients until ctx is done.
func NewIPRateLimiter(ctx context.Context, name string, rps, burst int, trustedProxy bool, metrics *telemetry.Metrics) *IPRateLimiter {
	l := &IPRateLimiter{
		name:     name,
		clients:  make(map[netip.Addr]*client),
		rate:     rate.Limit(rps),
		burst:    burst,
		clientIP: clientIPResolver(trustedProxy),
		metrics:  metrics,
	}
	go l.janitor(ctx)
	return l
}

func (l *IPRateLimiter) janitor(ctx context.Context) {
	ticker := time.NewTicker(cleanupEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.cleanup(time.Now())
		}
	}
}

func (l *IPRateLimiter) cleanup(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for addr, c := range l.clients {
		if now.Sub(c.lastSeen) > inactiveLimit {
			delete(l.clients, addr)
		}
	}
}

func (l *IPRateLimiter) limiterFor(ip string) (*rate.Limiter, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return nil, ErrInvalidIP
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[addr]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.clients[addr] = c
	}
	c.lastSeen = time.Now()
	return c.limiter, nil
}

func (l *IPRateLimiter) Middleware(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := l.clientIP(r)

			limiter, err := l.limiterFor(ip)
			if err != nil {
				LoggerFrom(r.Context(), logger).Warn("rejecting request without client ip", "remote", r.RemoteAddr)
				writeError(w, http.StatusBadRequest, "invalid ip address")
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.burst))

			if !limiter.Allow() {
				// peek at the next token without consuming it
				reservation := limiter.Reserve()
				delay := reservation.Delay()
				reservation.Cancel()

				l.metrics.RateLimitHitsTotal.Add(r.Context(), 1, metric.WithAttributes(attribute.String("limiter", l.name)))
				LoggerFrom(r.Context(), logger).Debug("rate limited", "limiter", l.name, "ip", ip)

				w.Header().Set("Retry-After", strconv.Itoa(max(1, int(delay.Seconds()))))
				w.Header().Set("X-RateLimit-Remaining", "0")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))
			next.ServeHTTP(w, r)
		})
	}
}
