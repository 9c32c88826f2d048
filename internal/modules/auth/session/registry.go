package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mesaYaBooking/internal/modules/auth/domain"
)

const (
	// DefaultTTL applies when the registry is built without WithTTL.
	DefaultTTL = 24 * time.Hour

	sweepInterval = time.Minute
)

type Option func(*Registry)

// WithTTL sets how long a session lives; it should match the token lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// Registry owns every live session keyed by session id. Sessions are process
// local: a restart signs everybody out.
type Registry struct {
	mu        sync.RWMutex
	sessions  map[string]*Context
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{sessions: map[string]*Context{}, ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	r.lastSweep = r.now()
	return r
}

// Begin opens a session for user under a fresh id. Expired sessions are
// dropped at most once per sweep interval.
func (r *Registry) Begin(user domain.User) *Context {
	now := r.now()
	ctx := newContext(uuid.NewString(), &user)
	ctx.expiresAt = now.Add(r.ttl)

	r.mu.Lock()
	var expired []*Context
	if now.Sub(r.lastSweep) >= sweepInterval {
		expired = r.collectLocked(now)
	}
	r.sessions[ctx.id] = ctx
	r.mu.Unlock()

	endAll(expired)
	slog.Info("session started", slog.String("sessionId", ctx.id), slog.String("uid", user.UID), slog.Time("expiresAt", ctx.expiresAt))
	return ctx
}

// Lookup returns the session under id unless it has expired.
func (r *Registry) Lookup(id string) (*Context, bool) {
	r.mu.RLock()
	ctx, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok || ctx.expired(r.now()) {
		return nil, false
	}
	return ctx, true
}

// Active reports whether id names a signed-in, unexpired session.
func (r *Registry) Active(id string) bool {
	ctx, ok := r.Lookup(id)
	return ok && ctx.IsAuthenticated()
}

// Update replaces the user of every session opened by uid.
func (r *Registry) Update(user domain.User) int {
	r.mu.RLock()
	var matched []*Context
	for _, ctx := range r.sessions {
		if current, ok := ctx.Current(); ok && current.UID == user.UID {
			matched = append(matched, ctx)
		}
	}
	r.mu.RUnlock()
	for _, ctx := range matched {
		ctx.set(&user)
	}
	return len(matched)
}

// End signs the session out, notifies its listeners and forgets it.
func (r *Registry) End(id string) bool {
	r.mu.Lock()
	ctx, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return false
	}
	ctx.end()
	slog.Info("session ended", slog.String("sessionId", id))
	return true
}

// Sweep ends every expired session and returns their ids.
func (r *Registry) Sweep() []string {
	now := r.now()
	r.mu.Lock()
	expired := r.collectLocked(now)
	r.mu.Unlock()

	endAll(expired)
	ids := make([]string, 0, len(expired))
	for _, ctx := range expired {
		ids = append(ids, ctx.id)
	}
	if len(ids) > 0 {
		slog.Info("sessions expired", slog.Int("count", len(ids)))
	}
	return ids
}

// Run sweeps every interval until ctx is done, handing each expired session
// id to onExpired.
func (r *Registry) Run(ctx context.Context, every time.Duration, onExpired func(id string)) {
	if every <= 0 {
		every = sweepInterval
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, id := range r.Sweep() {
				if onExpired != nil {
					onExpired(id)
				}
			}
		}
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) collectLocked(now time.Time) []*Context {
	r.lastSweep = now
	var expired []*Context
	for id, ctx := range r.sessions {
		if ctx.expired(now) {
			expired = append(expired, ctx)
			delete(r.sessions, id)
		}
	}
	return expired
}

func endAll(sessions []*Context) {
	for _, ctx := range sessions {
		ctx.end()
	}
}
