package store

import (
	"context"
	"sync"

	"github.com/shopglow/go-session"
)

// Memory keeps credentials for the lifetime of the process. It is the store
// of choice for tests and for hosts that explicitly do not want persistence.
type Memory struct {
	mu    sync.RWMutex
	token string
	user  *session.User
}

var _ session.CredentialStore = &Memory{}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(ctx context.Context) session.Credentials {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return session.Credentials{
		Token: m.token,
		User:  m.user,
	}
}

func (m *Memory) SaveToken(ctx context.Context, token string) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
}

func (m *Memory) SaveUser(ctx context.Context, user *session.User) {
	m.mu.Lock()
	m.user = user
	m.mu.Unlock()
}

func (m *Memory) Clear(ctx context.Context) {
	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.mu.Unlock()
}
