package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// カウンタの保存先（プロセス内 or 共有DB）
type Store interface {
	//keyのカウンタを+1して、現在値と窓の終了時刻を返す
	Incr(ctx context.Context, key string, window time.Duration, now time.Time) (count int, resetAt time.Time, err error)
	//期限切れのカウンタを消す
	Sweep(ctx context.Context, now time.Time) (removed int, err error)
}

type Decision struct {
	Allowed    bool
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// 固定窓のレートリミッタ
type Limiter struct {
	store  Store
	max    int
	window time.Duration
	now    func() time.Time
}

type Option func(*Limiter)

func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

func New(store Store, max int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		store:  store,
		max:    max,
		window: window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := l.now()
	count, resetAt, err := l.store.Incr(ctx, key, l.window, now)
	if err != nil {
		return Decision{}, err
	}

	if count > l.max {
		retry := resetAt.Sub(now)
		if retry < 0 {
			retry = 0
		}
		return Decision{Allowed: false, ResetAt: resetAt, RetryAfter: retry}, nil
	}
	return Decision{Allowed: true, Remaining: l.max - count, ResetAt: resetAt}, nil
}

// ctxが終わるまで定期的に期限切れを掃除する（起動側がgoroutineで回す）
func (l *Limiter) Run(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := l.store.Sweep(ctx, l.now())
			if err != nil {
				logger.Warn("rate limit sweep failed", "err", err)
				continue
			}
			if n > 0 {
				logger.Debug("rate limit sweep", "removed", n)
			}
		}
	}
}
