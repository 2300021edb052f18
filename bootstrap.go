package session

import (
	"context"
	"sync"
	"time"
)

// BootstrapAction tells the host application what to do after startup
// hydration ran.
type BootstrapAction int

const (
	// BootstrapNone means stay on the current route.
	BootstrapNone BootstrapAction = iota
	// BootstrapRedirectLogin means the route needs credentials the session
	// does not have.
	BootstrapRedirectLogin
)

func (a BootstrapAction) String() string {
	switch a {
	case BootstrapRedirectLogin:
		return "redirect-login"
	default:
		return "none"
	}
}

// defaultSkipRoutes are the public entry routes where startup hydration is
// pointless: the visitor is there precisely because they have no session.
var defaultSkipRoutes = []string{
	"/login",
	"/register",
	"/forgot-password",
	"/reset-password",
}

// Bootstrapper hydrates the session exactly once per process, no matter how
// many callers race into Run. It validates the persisted token against the
// backend, then refreshes the profile, in that order: validate may rotate the
// token, and the profile fetch should ride on the rotated one.
type Bootstrapper struct {
	manager *Manager
	logger  Logger

	once     sync.Once
	skip     map[string]struct{}
	precheck bool

	action BootstrapAction
	runErr error
}

// BootstrapOption customizes Bootstrapper construction.
type BootstrapOption func(*Bootstrapper)

// WithSkipRoutes replaces the default public-route allow list.
func WithSkipRoutes(routes ...string) BootstrapOption {
	return func(b *Bootstrapper) {
		b.skip = make(map[string]struct{}, len(routes))
		for _, route := range routes {
			b.skip[route] = struct{}{}
		}
	}
}

// WithBootstrapLogger overrides the default logger.
func WithBootstrapLogger(logger Logger) BootstrapOption {
	return func(b *Bootstrapper) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithExpiryPrecheck makes Run decode the stored token's exp claim locally
// and skip the validate round trip when it already lapsed. Off by default:
// the backend stays the single authority unless the caller opts in.
func WithExpiryPrecheck() BootstrapOption {
	return func(b *Bootstrapper) {
		b.precheck = true
	}
}

// NewBootstrapper wires startup hydration around an existing manager.
func NewBootstrapper(manager *Manager, opts ...BootstrapOption) *Bootstrapper {
	b := &Bootstrapper{
		manager: manager,
		logger:  defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}

	if b.skip == nil {
		b.skip = make(map[string]struct{}, len(defaultSkipRoutes))
		for _, route := range defaultSkipRoutes {
			b.skip[route] = struct{}{}
		}
	}

	return b
}

// Run hydrates the session for the given route. The first call does the
// work; every later call returns the first call's outcome, even from a
// different route. Routes on the skip list return BootstrapNone without
// touching the first-run latch, so a visit to /login does not burn the
// hydration that the first protected route still needs.
func (b *Bootstrapper) Run(ctx context.Context, route string) (BootstrapAction, error) {
	if _, ok := b.skip[route]; ok {
		return BootstrapNone, nil
	}

	b.once.Do(func() {
		b.action, b.runErr = b.hydrate(ctx)
	})

	return b.action, b.runErr
}

func (b *Bootstrapper) hydrate(ctx context.Context) (BootstrapAction, error) {
	snap := b.manager.Snapshot()

	switch {
	case snap.Token != "":
		return b.hydrateWithToken(ctx, snap.Token)

	case snap.IsAuthenticated:
		// A session claiming authentication without a token has nothing to
		// invalidate. Try the profile anyway and swallow whatever happens.
		if _, err := b.manager.Me(ctx); err != nil {
			b.logger.Warn("bootstrap: tokenless profile fetch failed", "error", err)
		}
		return BootstrapNone, nil

	default:
		// Anonymous first visit. Nothing to hydrate, nothing to redirect.
		return BootstrapNone, nil
	}
}

func (b *Bootstrapper) hydrateWithToken(ctx context.Context, token string) (BootstrapAction, error) {
	if b.precheck && TokenLooksExpired(token, time.Now()) {
		b.logger.Info("bootstrap: stored token already expired, skipping validation")
		b.manager.ClearAuth(ctx)
		return BootstrapRedirectLogin, nil
	}

	if _, err := b.manager.Validate(ctx); err != nil {
		b.logger.Warn("bootstrap: token validation failed", "error", err)
		return BootstrapRedirectLogin, err
	}

	if _, err := b.manager.Me(ctx); err != nil {
		if IsTokenError(err) {
			b.logger.Warn("bootstrap: profile fetch rejected token", "error", err)
			return BootstrapRedirectLogin, err
		}
		// Token is fine, the profile endpoint hiccuped. Keep the session and
		// let the next profile fetch repair the user record.
		b.logger.Warn("bootstrap: profile fetch failed, keeping session", "error", err)
	}

	return BootstrapNone, nil
}
