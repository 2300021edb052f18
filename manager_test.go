package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	session "github.com/shopglow/go-session"
	"github.com/shopglow/go-session/store"
)

type stubAPI struct {
	registerFn func(ctx context.Context, payload session.RegisterPayload) (*session.AuthResult, error)
	loginFn    func(ctx context.Context, payload session.LoginPayload) (*session.AuthResult, error)
	validateFn func(ctx context.Context) (*session.AuthResult, error)
	logoutFn   func(ctx context.Context) error
	forgotFn   func(ctx context.Context, payload session.ForgotPasswordPayload) error
	resetFn    func(ctx context.Context, payload session.ResetPasswordPayload) error
	meFn       func(ctx context.Context) (*session.User, error)
}

func (s *stubAPI) Register(ctx context.Context, payload session.RegisterPayload) (*session.AuthResult, error) {
	if s.registerFn != nil {
		return s.registerFn(ctx, payload)
	}
	return nil, nil
}

func (s *stubAPI) Login(ctx context.Context, payload session.LoginPayload) (*session.AuthResult, error) {
	if s.loginFn != nil {
		return s.loginFn(ctx, payload)
	}
	return nil, nil
}

func (s *stubAPI) Validate(ctx context.Context) (*session.AuthResult, error) {
	if s.validateFn != nil {
		return s.validateFn(ctx)
	}
	return nil, nil
}

func (s *stubAPI) Logout(ctx context.Context) error {
	if s.logoutFn != nil {
		return s.logoutFn(ctx)
	}
	return nil
}

func (s *stubAPI) ForgotPassword(ctx context.Context, payload session.ForgotPasswordPayload) error {
	if s.forgotFn != nil {
		return s.forgotFn(ctx, payload)
	}
	return nil
}

func (s *stubAPI) ResetPassword(ctx context.Context, payload session.ResetPasswordPayload) error {
	if s.resetFn != nil {
		return s.resetFn(ctx, payload)
	}
	return nil
}

func (s *stubAPI) Me(ctx context.Context) (*session.User, error) {
	if s.meFn != nil {
		return s.meFn(ctx)
	}
	return nil, nil
}

func testUser() *session.User {
	return &session.User{
		ID:    "usr_1",
		Name:  "Maya Chen",
		Email: "maya@example.com",
		Role:  session.RoleStoreAdmin,
	}
}

func testResult(token string) *session.AuthResult {
	return &session.AuthResult{
		User:      testUser(),
		Token:     token,
		ExpiresIn: 3600,
	}
}

func validLogin() session.LoginPayload {
	return session.LoginPayload{
		Email:    "maya@example.com",
		Password: "super-secret-pw",
	}
}

// assertInvariant checks that authentication always implies a full
// user+token pair and vice versa.
func assertInvariant(t *testing.T, snap session.Snapshot) {
	t.Helper()
	assert.Equal(t, snap.User != nil && snap.Token != "", snap.IsAuthenticated)
}

func TestManagerLoginSuccess(t *testing.T) {
	credStore := store.NewMemory()
	api := &stubAPI{
		loginFn: func(ctx context.Context, payload session.LoginPayload) (*session.AuthResult, error) {
			return testResult("tok_1"), nil
		},
	}

	manager := session.NewManager(api, credStore)

	res, err := manager.Login(context.Background(), validLogin())
	require.NoError(t, err)
	require.NotNil(t, res)

	snap := manager.Snapshot()
	assertInvariant(t, snap)
	assert.True(t, snap.IsAuthenticated)
	assert.Equal(t, "tok_1", snap.Token)
	assert.Equal(t, int64(3600), snap.ExpiresIn)
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.Err)

	creds := credStore.Load(context.Background())
	assert.Equal(t, "tok_1", creds.Token)
	require.NotNil(t, creds.User)
	assert.Equal(t, "maya@example.com", creds.User.Email)
}

func TestManagerLoginFailureKeepsAnonymous(t *testing.T) {
	credStore := store.NewMemory()
	api := &stubAPI{
		loginFn: func(ctx context.Context, payload session.LoginPayload) (*session.AuthResult, error) {
			return nil, session.ErrorFromCode(session.TextCodeInvalidCreds, "", nil)
		},
	}

	manager := session.NewManager(api, credStore)

	_, err := manager.Login(context.Background(), validLogin())
	require.Error(t, err)
	assert.Equal(t, session.TextCodeInvalidCreds, session.ErrorCode(err))

	snap := manager.Snapshot()
	assertInvariant(t, snap)
	assert.False(t, snap.IsAuthenticated)
	assert.False(t, snap.Loading)
	require.NotNil(t, snap.Err)
	assert.Equal(t, session.TextCodeInvalidCreds, snap.Err.TextCode)

	assert.Empty(t, credStore.Load(context.Background()).Token)
}

func TestManagerLoginPayloadValidation(t *testing.T) {
	manager := session.NewManager(&stubAPI{}, store.NewMemory())

	_, err := manager.Login(context.Background(), session.LoginPayload{Email: "not-an-email"})
	require.Error(t, err)
	assert.Equal(t, session.TextCodeValidation, session.ErrorCode(err))
	assert.NotEmpty(t, session.FieldErrors(err))

	snap := manager.Snapshot()
	assertInvariant(t, snap)
	assert.False(t, snap.Loading)
}

func TestManagerRegisterSuccess(t *testing.T) {
	credStore := store.NewMemory()
	api := &stubAPI{
		registerFn: func(ctx context.Context, payload session.RegisterPayload) (*session.AuthResult, error) {
			return testResult("tok_reg"), nil
		},
	}

	manager := session.NewManager(api, credStore)

	_, err := manager.Register(context.Background(), session.RegisterPayload{
		Name:            "Maya Chen",
		Email:           "maya@example.com",
		Password:        "super-secret-pw",
		ConfirmPassword: "super-secret-pw",
	})
	require.NoError(t, err)

	snap := manager.Snapshot()
	assertInvariant(t, snap)
	assert.True(t, snap.IsAuthenticated)
	assert.Equal(t, "tok_reg", credStore.Load(context.Background()).Token)
}

func TestManagerValidateRefreshesToken(t *testing.T) {
	credStore := store.NewMemory()
	credStore.SaveToken(context.Background(), "tok_old")
	credStore.SaveUser(context.Background(), testUser())

	api := &stubAPI{
		validateFn: func(ctx context.Context) (*session.AuthResult, error) {
			return testResult("tok_new"), nil
		},
	}

	manager := session.NewManager(api, credStore)
	require.True(t, manager.Snapshot().IsAuthenticated)

	res, err := manager.Validate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok_new", res.Token)

	snap := manager.Snapshot()
	assertInvariant(t, snap)
	assert.Equal(t, "tok_new", snap.Token)
	assert.Equal(t, "tok_new", credStore.Load(context.Background()).Token)
}

func TestManagerValidateFailureAlwaysDeauthenticates(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"invalid token", session.ErrorFromCode(session.TextCodeInvalidToken, "", nil)},
		{"expired token", session.ErrorFromCode(session.TextCodeTokenExpired, "", nil)},
		{"network failure", session.ErrorFromCode(session.TextCodeNetworkError, "", nil)},
		{"server failure", session.ErrorFromCode(session.TextCodeServerError, "", nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			credStore := store.NewMemory()
			credStore.SaveToken(context.Background(), "tok_1")
			credStore.SaveUser(context.Background(), testUser())

			api := &stubAPI{
				validateFn: func(ctx context.Context) (*session.AuthResult, error) {
					return nil, tt.err
				},
			}

			manager := session.NewManager(api, credStore)

			_, err := manager.Validate(context.Background())
			require.Error(t, err)

			snap := manager.Snapshot()
			assertInvariant(t, snap)
			assert.False(t, snap.IsAuthenticated)
			assert.Nil(t, snap.User)
			assert.Empty(t, snap.Token)
			require.NotNil(t, snap.Err)
		})
	}
}

func TestManagerMeReplacesUserOnly(t *testing.T) {
	credStore := store.NewMemory()
	credStore.SaveToken(context.Background(), "tok_1")
	credStore.SaveUser(context.Background(), testUser())

	updated := testUser()
	updated.Name = "Maya R. Chen"

	api := &stubAPI{
		meFn: func(ctx context.Context) (*session.User, error) {
			return updated, nil
		},
	}

	manager := session.NewManager(api, credStore)

	user, err := manager.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Maya R. Chen", user.Name)

	snap := manager.Snapshot()
	assertInvariant(t, snap)
	assert.True(t, snap.IsAuthenticated)
	assert.Equal(t, "tok_1", snap.Token)
	assert.Equal(t, "Maya R. Chen", snap.User.Name)

	creds := credStore.Load(context.Background())
	assert.Equal(t, "tok_1", creds.Token)
	assert.Equal(t, "Maya R. Chen", creds.User.Name)
}

func TestManagerMeTransientFailureKeepsSession(t *testing.T) {
	credStore := store.NewMemory()
	credStore.SaveToken(context.Background(), "tok_1")
	credStore.SaveUser(context.Background(), testUser())

	api := &stubAPI{
		meFn: func(ctx context.Context) (*session.User, error) {
			return nil, session.ErrorFromCode(session.TextCodeServerError, "backend down", nil)
		},
	}

	manager := session.NewManager(api, credStore)

	_, err := manager.Me(context.Background())
	require.Error(t, err)

	snap := manager.Snapshot()
	assertInvariant(t, snap)
	assert.True(t, snap.IsAuthenticated)
	require.NotNil(t, snap.Err)
	assert.Equal(t, session.TextCodeServerError, snap.Err.TextCode)
}

func TestManagerMeTokenFailureDeauthenticates(t *testing.T) {
	for _, code := range []string{session.TextCodeInvalidToken, session.TextCodeMissingToken} {
		t.Run(code, func(t *testing.T) {
			credStore := store.NewMemory()
			credStore.SaveToken(context.Background(), "tok_1")
			credStore.SaveUser(context.Background(), testUser())

			api := &stubAPI{
				meFn: func(ctx context.Context) (*session.User, error) {
					return nil, session.ErrorFromCode(code, "", nil)
				},
			}

			manager := session.NewManager(api, credStore)

			_, err := manager.Me(context.Background())
			require.Error(t, err)

			snap := manager.Snapshot()
			assertInvariant(t, snap)
			assert.False(t, snap.IsAuthenticated)
		})
	}
}

func TestManagerLogoutClearsEvenOnFailure(t *testing.T) {
	credStore := store.NewMemory()
	credStore.SaveToken(context.Background(), "tok_1")
	credStore.SaveUser(context.Background(), testUser())

	api := &stubAPI{
		logoutFn: func(ctx context.Context) error {
			return session.ErrorFromCode(session.TextCodeNetworkError, "", nil)
		},
	}

	manager := session.NewManager(api, credStore)
	require.True(t, manager.Snapshot().IsAuthenticated)

	err := manager.Logout(context.Background())
	require.Error(t, err)
	assert.Equal(t, session.TextCodeNetworkError, session.ErrorCode(err))

	snap := manager.Snapshot()
	assertInvariant(t, snap)
	assert.False(t, snap.IsAuthenticated)
	assert.Nil(t, snap.User)
	assert.Empty(t, snap.Token)

	creds := credStore.Load(context.Background())
	assert.Empty(t, creds.Token)
	assert.Nil(t, creds.User)
}

func TestManagerLogoutSuccess(t *testing.T) {
	credStore := store.NewMemory()
	credStore.SaveToken(context.Background(), "tok_1")
	credStore.SaveUser(context.Background(), testUser())

	manager := session.NewManager(&stubAPI{}, credStore)

	require.NoError(t, manager.Logout(context.Background()))

	snap := manager.Snapshot()
	assertInvariant(t, snap)
	assert.False(t, snap.IsAuthenticated)
	assert.Nil(t, snap.Err)
}

func TestManagerRecoveryFlowsAreSessionNeutral(t *testing.T) {
	tests := []struct {
		name string
		run  func(m *session.Manager) error
	}{
		{
			name: "forgot password success",
			run: func(m *session.Manager) error {
				return m.ForgotPassword(context.Background(), session.ForgotPasswordPayload{Email: "maya@example.com"})
			},
		},
		{
			name: "reset password success",
			run: func(m *session.Manager) error {
				return m.ResetPassword(context.Background(), session.ResetPasswordPayload{
					Token:           "rt_1",
					Password:        "fresh-password",
					ConfirmPassword: "fresh-password",
				})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			credStore := store.NewMemory()
			credStore.SaveToken(context.Background(), "tok_1")
			credStore.SaveUser(context.Background(), testUser())

			manager := session.NewManager(&stubAPI{}, credStore)
			before := manager.Snapshot()

			require.NoError(t, tt.run(manager))

			after := manager.Snapshot()
			assertInvariant(t, after)
			assert.Equal(t, before.IsAuthenticated, after.IsAuthenticated)
			assert.Equal(t, before.Token, after.Token)
			assert.Equal(t, "tok_1", credStore.Load(context.Background()).Token)
		})
	}
}

func TestManagerResetPasswordTokenUsedStaysNeutral(t *testing.T) {
	credStore := store.NewMemory()
	credStore.SaveToken(context.Background(), "tok_1")
	credStore.SaveUser(context.Background(), testUser())

	api := &stubAPI{
		resetFn: func(ctx context.Context, payload session.ResetPasswordPayload) error {
			return session.ErrorFromCode(session.TextCodeTokenUsed, "", nil)
		},
	}

	manager := session.NewManager(api, credStore)

	err := manager.ResetPassword(context.Background(), session.ResetPasswordPayload{
		Token:           "rt_used",
		Password:        "fresh-password",
		ConfirmPassword: "fresh-password",
	})
	require.Error(t, err)
	assert.Equal(t, session.TextCodeTokenUsed, session.ErrorCode(err))

	// The reset token failing is about the recovery flow, not the active
	// session: the signed-in user stays signed in.
	snap := manager.Snapshot()
	assertInvariant(t, snap)
	assert.True(t, snap.IsAuthenticated)
	assert.Equal(t, "tok_1", snap.Token)
}

func TestManagerClearErrorIsIdempotent(t *testing.T) {
	api := &stubAPI{
		loginFn: func(ctx context.Context, payload session.LoginPayload) (*session.AuthResult, error) {
			return nil, session.ErrorFromCode(session.TextCodeInvalidCreds, "", nil)
		},
	}

	manager := session.NewManager(api, store.NewMemory())

	_, _ = manager.Login(context.Background(), validLogin())
	require.NotNil(t, manager.Snapshot().Err)

	manager.ClearError()
	assert.Nil(t, manager.Snapshot().Err)

	manager.ClearError()
	assert.Nil(t, manager.Snapshot().Err)
}

func TestManagerClearAuthIsIdempotent(t *testing.T) {
	credStore := store.NewMemory()
	credStore.SaveToken(context.Background(), "tok_1")
	credStore.SaveUser(context.Background(), testUser())

	manager := session.NewManager(&stubAPI{}, credStore)
	require.True(t, manager.Snapshot().IsAuthenticated)

	manager.ClearAuth(context.Background())
	manager.ClearAuth(context.Background())

	snap := manager.Snapshot()
	assertInvariant(t, snap)
	assert.True(t, snap.Anonymous())
	assert.Empty(t, credStore.Load(context.Background()).Token)
}

func TestManagerSeedsFromStore(t *testing.T) {
	credStore := store.NewMemory()
	credStore.SaveToken(context.Background(), "tok_persisted")
	credStore.SaveUser(context.Background(), testUser())

	manager := session.NewManager(&stubAPI{}, credStore)

	snap := manager.Snapshot()
	assertInvariant(t, snap)
	assert.True(t, snap.IsAuthenticated)
	assert.Equal(t, "tok_persisted", snap.Token)
}

func TestManagerSeedsPartialCredentialsAsAnonymous(t *testing.T) {
	credStore := store.NewMemory()
	credStore.SaveToken(context.Background(), "tok_orphan")

	manager := session.NewManager(&stubAPI{}, credStore)

	snap := manager.Snapshot()
	assertInvariant(t, snap)
	assert.False(t, snap.IsAuthenticated)
}

func TestManagerBridgeSubscriptionClearsSession(t *testing.T) {
	credStore := store.NewMemory()
	credStore.SaveToken(context.Background(), "tok_1")
	credStore.SaveUser(context.Background(), testUser())

	bridge := session.NewUnauthorizedBridge()
	manager := session.NewManager(&stubAPI{}, credStore,
		session.WithManagerBridge(bridge),
	)
	defer manager.Close()

	require.True(t, manager.Snapshot().IsAuthenticated)

	bridge.Publish()

	snap := manager.Snapshot()
	assertInvariant(t, snap)
	assert.True(t, snap.Anonymous())
	assert.Empty(t, credStore.Load(context.Background()).Token)
}

func TestManagerCloseDetachesFromBridge(t *testing.T) {
	credStore := store.NewMemory()
	bridge := session.NewUnauthorizedBridge()

	api := &stubAPI{
		loginFn: func(ctx context.Context, payload session.LoginPayload) (*session.AuthResult, error) {
			return testResult("tok_1"), nil
		},
	}

	manager := session.NewManager(api, credStore, session.WithManagerBridge(bridge))
	manager.Close()

	_, err := manager.Login(context.Background(), validLogin())
	require.NoError(t, err)

	bridge.Publish()

	assert.True(t, manager.Snapshot().IsAuthenticated)
}

func TestManagerLastWriteWins(t *testing.T) {
	credStore := store.NewMemory()

	release := make(chan struct{})
	api := &stubAPI{
		loginFn: func(ctx context.Context, payload session.LoginPayload) (*session.AuthResult, error) {
			<-release
			return testResult("tok_slow"), nil
		},
	}

	manager := session.NewManager(api, credStore)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = manager.Login(context.Background(), validLogin())
	}()

	manager.ClearAuth(context.Background())
	close(release)
	<-done

	// The login completion applied after the clear, so its write wins.
	snap := manager.Snapshot()
	assertInvariant(t, snap)
	assert.True(t, snap.IsAuthenticated)
	assert.Equal(t, "tok_slow", snap.Token)
}
