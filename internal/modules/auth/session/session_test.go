package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"mesaYaBooking/internal/modules/auth/domain"
)

func TestRegistryLifecycle(t *testing.T) {
	reg := NewRegistry()
	ctx := reg.Begin(domain.User{UID: "u-1", Email: "ana@example.com", Role: domain.RoleCustomer})

	if !reg.Active(ctx.ID()) || reg.Len() != 1 {
		t.Fatalf("expected active session")
	}
	user, ok := ctx.Current()
	if !ok || user.UID != "u-1" {
		t.Fatalf("unexpected current user %+v", user)
	}

	var seen []*domain.User
	unsubscribe := ctx.OnChange(func(u *domain.User) { seen = append(seen, u) })

	users, stopUsers := ctx.WatchUser()
	defer stopUsers()
	authed, stopAuth := ctx.WatchAuthenticated()
	defer stopAuth()
	if u := <-users; u == nil || u.UID != "u-1" {
		t.Fatalf("expected initial user, got %+v", u)
	}
	if !<-authed {
		t.Fatalf("expected initial authenticated=true")
	}

	if n := reg.Update(domain.User{UID: "u-1", Email: "ana@example.com", DisplayName: "Ana"}); n != 1 {
		t.Fatalf("expected 1 session updated, got %d", n)
	}
	if u := <-users; u == nil || u.DisplayName != "Ana" {
		t.Fatalf("expected updated user, got %+v", u)
	}
	<-authed

	if !reg.End(ctx.ID()) {
		t.Fatalf("expected session ended")
	}
	if reg.End(ctx.ID()) || reg.Active(ctx.ID()) {
		t.Fatalf("ended session must be gone")
	}
	if ctx.IsAuthenticated() {
		t.Fatalf("expected signed-out context")
	}
	if len(seen) != 2 || seen[0] == nil || seen[1] != nil {
		t.Fatalf("unexpected listener calls %+v", seen)
	}
	if u, ok := <-users; ok && u != nil {
		t.Fatalf("expected nil user or closed channel, got %+v", u)
	}
	if v, ok := <-authed; ok && v {
		t.Fatalf("expected signed-out value or closed channel")
	}

	unsubscribe()
	unsubscribe()
}

func TestOnChangeUnsubscribe(t *testing.T) {
	reg := NewRegistry()
	ctx := reg.Begin(domain.User{UID: "u-2"})
	calls := 0
	unsubscribe := ctx.OnChange(func(*domain.User) { calls++ })
	unsubscribe()
	reg.Update(domain.User{UID: "u-2", DisplayName: "B"})
	if calls != 0 {
		t.Fatalf("expected no calls after unsubscribe, got %d", calls)
	}
}

func TestAnonymous(t *testing.T) {
	ctx := Anonymous()
	if ctx.IsAuthenticated() || ctx.ID() != "" {
		t.Fatalf("anonymous context must be signed out")
	}
	var nilCtx *Context
	if _, ok := nilCtx.Current(); ok {
		t.Fatalf("nil context must be signed out")
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestRegistryExpiresSessions(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)}
	reg := NewRegistry(WithTTL(time.Hour), WithClock(clock.Now))

	old := reg.Begin(domain.User{UID: "u-1"})
	if want := clock.Now().Add(time.Hour); !old.ExpiresAt().Equal(want) {
		t.Fatalf("expected expiry %s, got %s", want, old.ExpiresAt())
	}
	signedOut := false
	old.OnChange(func(u *domain.User) { signedOut = u == nil })

	clock.Advance(59 * time.Minute)
	if !reg.Active(old.ID()) {
		t.Fatalf("expected session active before its expiry")
	}

	clock.Advance(time.Minute)
	if reg.Active(old.ID()) {
		t.Fatalf("expected session inactive at its expiry")
	}
	if _, ok := reg.Lookup(old.ID()); ok {
		t.Fatalf("expired session must not be returned")
	}

	fresh := reg.Begin(domain.User{UID: "u-2"})
	if reg.Len() != 1 || !reg.Active(fresh.ID()) {
		t.Fatalf("expected Begin to drop the expired session, have %d", reg.Len())
	}
	if !signedOut || old.IsAuthenticated() {
		t.Fatalf("expected expired session signed out")
	}
}

func TestRegistrySweep(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)}
	reg := NewRegistry(WithTTL(10*time.Minute), WithClock(clock.Now))

	for i := 0; i < 1000; i++ {
		reg.Begin(domain.User{UID: "u-abandoned"})
	}
	clock.Advance(5 * time.Minute)
	kept := reg.Begin(domain.User{UID: "u-kept"})
	if got := reg.Sweep(); len(got) != 0 {
		t.Fatalf("nothing has expired yet, swept %d", len(got))
	}

	clock.Advance(6 * time.Minute)
	if got := reg.Sweep(); len(got) != 1000 {
		t.Fatalf("expected 1000 expired sessions, got %d", len(got))
	}
	if reg.Len() != 1 || !reg.Active(kept.ID()) {
		t.Fatalf("expected only the recent session retained, have %d", reg.Len())
	}
}

func TestRegistryRunReportsExpiredSessions(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)}
	reg := NewRegistry(WithTTL(time.Minute), WithClock(clock.Now))
	sess := reg.Begin(domain.User{UID: "u-1"})
	clock.Advance(2 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	expired := make(chan string, 1)
	go reg.Run(ctx, 5*time.Millisecond, func(id string) { expired <- id })

	select {
	case id := <-expired:
		if id != sess.ID() {
			t.Fatalf("expected %s, got %s", sess.ID(), id)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expired session not reported")
	}
}
