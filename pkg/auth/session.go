// Package auth owns the backend login session used by background and
// foreground reminder cycles.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/smith3v/lms-reminder/pkg/logger"
)

var ErrNoCredentials = errors.New("auth: no credentials configured")

type Session struct {
	Username string
	Token    string
	IssuedAt time.Time
}

func (s Session) Valid() bool {
	return s.Token != ""
}

type Credentials struct {
	Username string
	Password string
}

type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// Context holds the current session explicitly so that a background cycle
// never depends on state left behind by the UI process.
type Context struct {
	mu      sync.RWMutex
	auth    Authenticator
	creds   Credentials
	session Session
	now     func() time.Time
}

func NewContext(authenticator Authenticator, creds Credentials) *Context {
	return &Context{
		auth:  authenticator,
		creds: creds,
		now:   time.Now,
	}
}

// Reload logs in again and replaces the current session. On failure the
// previous session is kept.
func (c *Context) Reload(ctx context.Context) (Session, error) {
	c.mu.RLock()
	creds := c.creds
	c.mu.RUnlock()

	if creds.Username == "" || creds.Password == "" {
		return Session{}, ErrNoCredentials
	}
	token, err := c.auth.Login(ctx, creds.Username, creds.Password)
	if err != nil {
		logger.Warn("backend login failed", "username", creds.Username, "error", err)
		return Session{}, fmt.Errorf("login as %s: %w", creds.Username, err)
	}

	session := Session{Username: creds.Username, Token: token, IssuedAt: c.now().UTC()}
	c.mu.Lock()
	c.session = session
	c.mu.Unlock()
	logger.Debug("backend session refreshed", "username", creds.Username)
	return session, nil
}

func (c *Context) Current() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Invalidate drops the current session, e.g. after the backend rejected it.
func (c *Context) Invalidate() {
	c.mu.Lock()
	c.session = Session{}
	c.mu.Unlock()
}

// SetCredentials replaces the stored credentials and drops the session.
func (c *Context) SetCredentials(creds Credentials) {
	c.mu.Lock()
	c.creds = creds
	c.session = Session{}
	c.mu.Unlock()
}
