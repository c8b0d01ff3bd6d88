package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Aktiar0403/ShukkuList1.2/internal/config"
)

// Policy names used by the router.
const (
	Metadata     = "metadata"
	Notification = "notification"
)

// Policy caps how many requests one client may make within a fixed window.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Decision describes the state of a client's window after a request.
type Decision struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
	RetryIn   time.Duration
}

type window struct {
	policy string
	start  time.Time
	used   int
}

// Limiter counts requests per client and policy in fixed windows.
type Limiter struct {
	mu       sync.Mutex
	policies map[string]Policy
	windows  map[string]*window // key: client + "|" + policy
	now      func() time.Time
}

// New creates a Limiter enforcing the named policies.
func New(policies map[string]Policy) *Limiter {
	return newWithClock(policies, time.Now)
}

func newWithClock(policies map[string]Policy, now func() time.Time) *Limiter {
	return &Limiter{
		policies: policies,
		windows:  make(map[string]*window),
		now:      now,
	}
}

// FromConfig returns nil when rate limiting is disabled.
func FromConfig(cfg config.RateLimitConfig) *Limiter {
	if !cfg.Enabled {
		return nil
	}
	return New(map[string]Policy{
		Metadata:     {Limit: cfg.Metadata.Limit, Window: cfg.Metadata.Window},
		Notification: {Limit: cfg.Notification.Limit, Window: cfg.Notification.Window},
	})
}

// Allow records a request by client under policy. Unknown policies are not
// limited and return a zero Decision.
func (l *Limiter) Allow(client, policy string) (Decision, bool) {
	p, ok := l.policies[policy]
	if !ok || p.Limit <= 0 {
		return Decision{}, true
	}

	now := l.now()
	key := client + "|" + policy

	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.windows[key]
	if w == nil || !now.Before(w.start.Add(p.Window)) {
		w = &window{policy: policy, start: now}
		l.windows[key] = w
	}

	resetAt := w.start.Add(p.Window)
	if w.used >= p.Limit {
		return Decision{Limit: p.Limit, ResetAt: resetAt, RetryIn: resetAt.Sub(now)}, false
	}
	w.used++
	return Decision{Limit: p.Limit, Remaining: p.Limit - w.used, ResetAt: resetAt}, true
}

// Sweep drops windows that have ended and reports how many were removed.
func (l *Limiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, w := range l.windows {
		p, ok := l.policies[w.policy]
		if !ok || !now.Before(w.start.Add(p.Window)) {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is cancelled.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Sweep(); n > 0 {
				slog.Debug("rate limit windows expired", "count", n)
			}
		}
	}
}
