package session

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(message string, args ...any)
	Info(message string, args ...any)
	Warn(message string, args ...any)
	Error(message string, args ...any)
}

// Credentials is what the persistent store hands back on load. Either field
// may be zero when nothing was persisted or the stored value failed to decode.
type Credentials struct {
	Token string
	User  *User
}

// CredentialStore persists the bearer token and a serialized copy of the
// current user across process restarts. All methods are best-effort: a
// storage failure must be logged and swallowed, never surfaced, so that a
// broken store degrades to an in-memory session instead of blocking auth.
type CredentialStore interface {
	Load(ctx context.Context) Credentials
	SaveToken(ctx context.Context, token string)
	SaveUser(ctx context.Context, user *User)
	Clear(ctx context.Context)
}

// AuthAPI is the backend surface the session machine drives. The client
// package provides the HTTP implementation; tests substitute stubs.
type AuthAPI interface {
	Register(ctx context.Context, payload RegisterPayload) (*AuthResult, error)
	Login(ctx context.Context, payload LoginPayload) (*AuthResult, error)
	Validate(ctx context.Context) (*AuthResult, error)
	Logout(ctx context.Context) error
	ForgotPassword(ctx context.Context, payload ForgotPasswordPayload) error
	ResetPassword(ctx context.Context, payload ResetPasswordPayload) error
	Me(ctx context.Context) (*User, error)
}

// AuthResult is the success payload of register, login and validate.
type AuthResult struct {
	User      *User  `json:"user"`
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

// NopLogger discards every message. Components that log on best-effort
// paths default to it so a missing logger never becomes a nil panic.
type NopLogger struct{}

func (NopLogger) Error(message string, args ...any) {}
func (NopLogger) Warn(message string, args ...any)  {}
func (NopLogger) Info(message string, args ...any)  {}
func (NopLogger) Debug(message string, args ...any) {}

type defLogger struct{}

func (d defLogger) Error(message string, args ...any) {
	fmt.Println(append([]any{"[ERR] SESSION " + message}, args...)...)
}

func (d defLogger) Warn(message string, args ...any) {
	fmt.Println(append([]any{"[WRN] SESSION " + message}, args...)...)
}

func (d defLogger) Info(message string, args ...any) {
	fmt.Println(append([]any{"[INF] SESSION " + message}, args...)...)
}

func (d defLogger) Debug(message string, args ...any) {
	fmt.Println(append([]any{"[DBG] SESSION " + message}, args...)...)
}
