package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	session "github.com/shopglow/go-session"
	"github.com/shopglow/go-session/store"
)

func TestMemoryRoundTrip(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	assert.Empty(t, m.Load(ctx).Token)
	assert.Nil(t, m.Load(ctx).User)

	m.SaveToken(ctx, "tok_1")
	m.SaveUser(ctx, &session.User{ID: "usr_1", Email: "maya@example.com"})

	creds := m.Load(ctx)
	assert.Equal(t, "tok_1", creds.Token)
	require.NotNil(t, creds.User)
	assert.Equal(t, "maya@example.com", creds.User.Email)
}

func TestMemoryClear(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	m.SaveToken(ctx, "tok_1")
	m.SaveUser(ctx, &session.User{ID: "usr_1"})
	m.Clear(ctx)

	creds := m.Load(ctx)
	assert.Empty(t, creds.Token)
	assert.Nil(t, creds.User)

	// Clearing an already-empty store is fine.
	m.Clear(ctx)
}
