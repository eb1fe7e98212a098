package session

import (
	"storefront-checkout/internal/domain"
	"sync"
)

// Context holds the current shopper identity. It is written by the auth
// collaborator and only read by checkout.
type Context struct {
	mu      sync.RWMutex
	current *domain.Session
}

func NewContext() *Context {
	return &Context{}
}

func (c *Context) Set(s domain.Session) {
	c.mu.Lock()
	c.current = &s
	c.mu.Unlock()
}

func (c *Context) Clear() {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
}

// Current returns the session and false when the shopper is a guest.
func (c *Context) Current() (domain.Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return domain.Session{}, false
	}
	return *c.current, true
}
