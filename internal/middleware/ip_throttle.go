package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const ipLimiterIdleTTL = 10 * time.Minute

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	mu       sync.Mutex
}

// IPごとのトークンバケット
type IPThrottle struct {
	limiters sync.Map // ip -> *ipLimiter
	rps      rate.Limit
	burst    int
}

func NewIPThrottle(rps float64, burst int) *IPThrottle {
	return &IPThrottle{rps: rate.Limit(rps), burst: burst}
}

func (t *IPThrottle) get(ip string, now time.Time) *rate.Limiter {
	v, _ := t.limiters.LoadOrStore(ip, &ipLimiter{limiter: rate.NewLimiter(t.rps, t.burst)})
	l := v.(*ipLimiter)
	l.mu.Lock()
	l.lastSeen = now
	l.mu.Unlock()
	return l.limiter
}

func (t *IPThrottle) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !t.get(c.RealIP(), time.Now()).Allow() {
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusTooManyRequests, errorJSON("too many requests"))
			}
			return next(c)
		}
	}
}

// しばらく使われていないIPのバケットを捨てる
func (t *IPThrottle) sweep(now time.Time) {
	t.limiters.Range(func(k, v any) bool {
		l := v.(*ipLimiter)
		l.mu.Lock()
		idle := now.Sub(l.lastSeen) > ipLimiterIdleTTL
		l.mu.Unlock()
		if idle {
			t.limiters.Delete(k)
		}
		return true
	})
}

// ctxが終わるまで定期的にsweepする
func (t *IPThrottle) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			t.sweep(now)
		}
	}
}
