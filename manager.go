package session

import (
	"context"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// Manager is the session state machine. It owns the in-memory session,
// drives the backend through an AuthAPI, and keeps the credential store in
// sync with every transition.
//
// Operations may be issued concurrently; the machine takes no per-operation
// lock beyond field consistency, so when two operations overlap the last
// completion to apply wins. Callers that need strict ordering (the
// bootstrapper does) must await one operation before issuing the next.
type Manager struct {
	mu          sync.Mutex
	api         AuthAPI
	store       CredentialStore
	logger      Logger
	unsubscribe func()

	user          *User
	token         string
	expiresIn     int64
	authenticated bool
	loading       bool
	err           *goerrors.Error
}

// ManagerOption customizes Manager construction.
type ManagerOption func(*Manager)

// WithManagerLogger overrides the default logger.
func WithManagerLogger(logger Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithManagerBridge subscribes the manager's ClearAuth to the bridge so a
// 401 anywhere in the HTTP layer drops the session to anonymous. The
// subscription is released by Close.
func WithManagerBridge(bridge *UnauthorizedBridge) ManagerOption {
	return func(m *Manager) {
		if bridge == nil {
			return
		}
		m.unsubscribe = bridge.Subscribe(func() {
			m.ClearAuth(context.Background())
		})
	}
}

// NewManager builds a session machine seeded from whatever the credential
// store still holds from a previous run.
func NewManager(api AuthAPI, store CredentialStore, opts ...ManagerOption) *Manager {
	m := &Manager{
		api:    api,
		store:  store,
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	creds := store.Load(context.Background())
	m.applyAuthLocked(creds.User, creds.Token, 0)

	return m
}

// Close releases the bridge subscription, if any.
func (m *Manager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// Snapshot returns a copy of the current session state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		User:            m.user,
		Token:           m.token,
		ExpiresIn:       m.expiresIn,
		IsAuthenticated: m.authenticated,
		Loading:         m.loading,
		Err:             m.err,
	}
}

// Register creates an account and, on success, authenticates the session
// with the returned credentials.
func (m *Manager) Register(ctx context.Context, payload RegisterPayload) (*AuthResult, error) {
	if err := payload.Validate(); err != nil {
		return nil, m.failPayload(err)
	}

	m.beginOp()
	res, err := m.api.Register(ctx, payload)
	if err != nil {
		return nil, m.failOp(err)
	}

	m.completeAuth(ctx, res)
	return res, nil
}

// Login authenticates with email and password.
func (m *Manager) Login(ctx context.Context, payload LoginPayload) (*AuthResult, error) {
	if err := payload.Validate(); err != nil {
		return nil, m.failPayload(err)
	}

	m.beginOp()
	res, err := m.api.Login(ctx, payload)
	if err != nil {
		return nil, m.failOp(err)
	}

	m.completeAuth(ctx, res)
	return res, nil
}

// Validate asks the backend to confirm the persisted token. On success the
// backend may hand back a replacement token (sliding refresh); both token and
// user are re-persisted. Validation failure of any kind deauthenticates;
// unlike Me, there is no transient-error carve-out here.
func (m *Manager) Validate(ctx context.Context) (*AuthResult, error) {
	m.beginOp()

	res, err := m.api.Validate(ctx)
	if err != nil {
		richErr := AsRichError(err)
		m.mu.Lock()
		m.clearLocked()
		m.loading = false
		m.err = richErr
		m.mu.Unlock()
		return nil, richErr
	}

	m.completeAuth(ctx, res)
	return res, nil
}

// Me refreshes the profile using the existing token. The token is left
// untouched; only the user is replaced and re-persisted. A failure
// deauthenticates only when the backend says the token itself is the problem
// (INVALID_TOKEN, MISSING_TOKEN). A flaky backend must not log anyone out.
func (m *Manager) Me(ctx context.Context) (*User, error) {
	m.beginOp()

	user, err := m.api.Me(ctx)
	if err != nil {
		richErr := AsRichError(err)

		m.mu.Lock()
		switch richErr.TextCode {
		case TextCodeInvalidToken, TextCodeMissingToken:
			m.clearLocked()
		}
		m.loading = false
		m.err = richErr
		m.mu.Unlock()
		return nil, richErr
	}

	m.mu.Lock()
	m.user = user
	m.authenticated = m.user != nil && m.token != ""
	m.loading = false
	m.err = nil
	m.mu.Unlock()

	if user != nil {
		m.store.SaveUser(ctx, user)
	}
	return user, nil
}

// Logout tells the backend to invalidate the session, then clears local
// state no matter what the backend said. A dead network must never trap a
// user in an authenticated session, so the error is reported but the clear
// always happens.
func (m *Manager) Logout(ctx context.Context) error {
	m.beginOp()

	err := m.api.Logout(ctx)

	m.store.Clear(ctx)

	m.mu.Lock()
	m.clearLocked()
	m.loading = false
	if err != nil {
		m.err = AsRichError(err)
	} else {
		m.err = nil
	}
	m.mu.Unlock()

	if err != nil {
		m.logger.Warn("logout request failed, session cleared locally", "error", err)
		return AsRichError(err)
	}
	return nil
}

// ForgotPassword triggers the reset email. Account recovery never touches
// the active session: only loading and error move.
func (m *Manager) ForgotPassword(ctx context.Context, payload ForgotPasswordPayload) error {
	if err := payload.Validate(); err != nil {
		return m.failPayload(err)
	}

	m.beginOp()
	if err := m.api.ForgotPassword(ctx, payload); err != nil {
		return m.failRecovery(err)
	}
	m.endOp()
	return nil
}

// ResetPassword consumes a reset token. Like ForgotPassword it is
// session-neutral on both success and failure.
func (m *Manager) ResetPassword(ctx context.Context, payload ResetPasswordPayload) error {
	if err := payload.Validate(); err != nil {
		return m.failPayload(err)
	}

	m.beginOp()
	if err := m.api.ResetPassword(ctx, payload); err != nil {
		return m.failRecovery(err)
	}
	m.endOp()
	return nil
}

// ClearError drops the recorded error. Idempotent.
func (m *Manager) ClearError() {
	m.mu.Lock()
	m.err = nil
	m.mu.Unlock()
}

// ClearAuth forces the anonymous state regardless of what came before: the
// bridge subscriber and explicit sign-out fallbacks both land here.
// Idempotent.
func (m *Manager) ClearAuth(ctx context.Context) {
	m.store.Clear(ctx)

	m.mu.Lock()
	m.clearLocked()
	m.loading = false
	m.err = nil
	m.mu.Unlock()
}

func (m *Manager) beginOp() {
	m.mu.Lock()
	m.loading = true
	m.err = nil
	m.mu.Unlock()
}

func (m *Manager) endOp() {
	m.mu.Lock()
	m.loading = false
	m.mu.Unlock()
}

// failPayload records a client-side validation failure without issuing a
// request.
func (m *Manager) failPayload(err error) *goerrors.Error {
	richErr := asValidationError(err)
	m.mu.Lock()
	m.loading = false
	m.err = richErr
	m.mu.Unlock()
	return richErr
}

// failOp records a failed authenticating operation. The session stays
// whatever it was; for register and login that means still unauthenticated.
func (m *Manager) failOp(err error) *goerrors.Error {
	richErr := AsRichError(err)
	m.mu.Lock()
	m.loading = false
	m.err = richErr
	m.mu.Unlock()
	return richErr
}

// failRecovery records a failed account-recovery call, leaving user, token
// and the authenticated flag exactly as they were.
func (m *Manager) failRecovery(err error) *goerrors.Error {
	return m.failOp(err)
}

func (m *Manager) completeAuth(ctx context.Context, res *AuthResult) {
	var user *User
	var token string
	var expiresIn int64
	if res != nil {
		user, token, expiresIn = res.User, res.Token, res.ExpiresIn
	}

	m.mu.Lock()
	m.applyAuthLocked(user, token, expiresIn)
	m.loading = false
	m.err = nil
	m.mu.Unlock()

	if user != nil && token != "" {
		m.store.SaveToken(ctx, token)
		m.store.SaveUser(ctx, user)
	}
}

// applyAuthLocked installs credentials while preserving the invariant that
// authenticated means both user and token are present: a partial pair is
// treated as no pair at all.
func (m *Manager) applyAuthLocked(user *User, token string, expiresIn int64) {
	if user == nil || token == "" {
		m.clearLocked()
		return
	}

	m.user = user
	m.token = token
	m.expiresIn = expiresIn
	m.authenticated = true
}

func (m *Manager) clearLocked() {
	m.user = nil
	m.token = ""
	m.expiresIn = 0
	m.authenticated = false
}
