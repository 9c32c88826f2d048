// Package session holds the signed-in identity of a client session and lets
// other components observe it. Only the Registry mutates a Context.
package session

import (
	"sync"
	"time"

	"mesaYaBooking/internal/modules/auth/domain"
)

// Listener is called with the new user, or nil after sign-out.
type Listener func(user *domain.User)

type Context struct {
	id        string
	expiresAt time.Time

	mu        sync.RWMutex
	user      *domain.User
	nextID    int
	listeners map[int]Listener
	userChs   map[int]chan *domain.User
	authChs   map[int]chan bool
}

func newContext(id string, user *domain.User) *Context {
	return &Context{
		id:        id,
		user:      user,
		listeners: map[int]Listener{},
		userChs:   map[int]chan *domain.User{},
		authChs:   map[int]chan bool{},
	}
}

// Anonymous returns a detached, signed-out context.
func Anonymous() *Context { return newContext("", nil) }

func (c *Context) ID() string { return c.id }

// ExpiresAt is when the session lapses; zero for anonymous contexts.
func (c *Context) ExpiresAt() time.Time { return c.expiresAt }

func (c *Context) expired(now time.Time) bool {
	return !c.expiresAt.IsZero() && !now.Before(c.expiresAt)
}

// Current returns a copy of the signed-in user.
func (c *Context) Current() (domain.User, bool) {
	if c == nil {
		return domain.User{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return domain.User{}, false
	}
	return *c.user, true
}

func (c *Context) IsAuthenticated() bool {
	_, ok := c.Current()
	return ok
}

// OnChange registers fn for every later change and returns its unsubscribe func.
func (c *Context) OnChange(fn Listener) (unsubscribe func()) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.listeners[id] = fn
	c.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// WatchUser streams the current user, starting with the present value. Only
// the newest value is kept for slow readers.
func (c *Context) WatchUser() (<-chan *domain.User, func()) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	ch := make(chan *domain.User, 1)
	ch <- copyUser(c.user)
	c.userChs[id] = ch
	c.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			if _, ok := c.userChs[id]; ok {
				delete(c.userChs, id)
				close(ch)
			}
			c.mu.Unlock()
		})
	}
}

// WatchAuthenticated streams the signed-in flag, starting with the present value.
func (c *Context) WatchAuthenticated() (<-chan bool, func()) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	ch := make(chan bool, 1)
	ch <- c.user != nil
	c.authChs[id] = ch
	c.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			if _, ok := c.authChs[id]; ok {
				delete(c.authChs, id)
				close(ch)
			}
			c.mu.Unlock()
		})
	}
}

func (c *Context) set(user *domain.User) {
	c.mu.Lock()
	c.user = copyUser(user)
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	for _, ch := range c.userChs {
		latest(ch, copyUser(user))
	}
	for _, ch := range c.authChs {
		latest(ch, user != nil)
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(copyUser(user))
	}
}

// end signs the context out and closes every watch channel.
func (c *Context) end() {
	c.set(nil)
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.userChs {
		close(ch)
		delete(c.userChs, id)
	}
	for id, ch := range c.authChs {
		close(ch)
		delete(c.authChs, id)
	}
	c.listeners = map[int]Listener{}
}

func copyUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

func latest[T any](ch chan T, v T) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
