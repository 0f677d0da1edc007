package dashboard

import (
	"context"
	"errors"

	"github.com/smith3v/lms-reminder/pkg/auth"
	"github.com/smith3v/lms-reminder/pkg/logger"
)

// Provider fetches snapshots with the session held by an auth.Context,
// logging in on demand and once more after the backend rejects a token.
// Without configured credentials it fetches anonymously, for backends that
// need no login.
type Provider struct {
	client   *Client
	sessions *auth.Context
}

func NewProvider(client *Client, sessions *auth.Context) *Provider {
	return &Provider{client: client, sessions: sessions}
}

func (p *Provider) Fetch(ctx context.Context) (Snapshot, error) {
	session := p.sessions.Current()
	if !session.Valid() {
		var err error
		session, err = p.sessions.Reload(ctx)
		if errors.Is(err, auth.ErrNoCredentials) {
			return p.client.FetchDashboard(ctx, "")
		}
		if err != nil {
			return Snapshot{}, err
		}
	}

	snap, err := p.client.FetchDashboard(ctx, session.Token)
	if !errors.Is(err, ErrUnauthorized) {
		return snap, err
	}

	logger.Info("backend rejected session, logging in again", "username", session.Username)
	p.sessions.Invalidate()
	session, err = p.sessions.Reload(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return p.client.FetchDashboard(ctx, session.Token)
}
