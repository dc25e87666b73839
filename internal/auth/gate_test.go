package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	listeners listeners[*Identity]
}

func (f *fakeProvider) SignIn(context.Context, string, string) (Identity, error) {
	return Identity{}, nil
}

func (f *fakeProvider) SignUp(context.Context, string, string) (Identity, error) {
	return Identity{}, nil
}

func (f *fakeProvider) SignOut(context.Context) error { return nil }

func (f *fakeProvider) SubscribeToSessionChanges(cb func(*Identity)) func() {
	return f.listeners.add(cb)
}

func (f *fakeProvider) emit(identity *Identity) {
	f.listeners.notify(identity)
}

func TestGate_FailsClosedBeforeFirstNotification(t *testing.T) {
	g := NewGate(&fakeProvider{})

	assert.Equal(t, StateUnknown, g.State())
	assert.False(t, g.Authenticated())
	_, ok := g.Identity()
	assert.False(t, ok)
}

func TestGate_Transitions(t *testing.T) {
	p := &fakeProvider{}
	g := NewGate(p)

	var seen []State
	unsubscribe := g.Subscribe(func(s State, _ *Identity) { seen = append(seen, s) })
	defer unsubscribe()

	p.emit(&Identity{UID: "u1", Email: "ann@example.com"})
	require.True(t, g.Authenticated())
	id, ok := g.Identity()
	require.True(t, ok)
	assert.Equal(t, Identity{UID: "u1", Email: "ann@example.com"}, id)

	p.emit(nil)
	assert.False(t, g.Authenticated())
	assert.Equal(t, StateUnauthenticated, g.State())
	_, ok = g.Identity()
	assert.False(t, ok)

	assert.Equal(t, []State{StateAuthenticated, StateUnauthenticated}, seen)
}

func TestGate_UnsubscribeAndClose(t *testing.T) {
	p := &fakeProvider{}
	g := NewGate(p)

	calls := 0
	unsubscribe := g.Subscribe(func(State, *Identity) { calls++ })
	p.emit(&Identity{UID: "u1"})
	unsubscribe()
	unsubscribe()
	p.emit(nil)
	assert.Equal(t, 1, calls)

	g.Close()
	assert.Equal(t, 0, p.listeners.count())
	p.emit(&Identity{UID: "u2"})
	assert.Equal(t, StateUnauthenticated, g.State())
}

func TestGate_IdentityIsCopied(t *testing.T) {
	p := &fakeProvider{}
	g := NewGate(p)

	identity := &Identity{UID: "u1"}
	p.emit(identity)
	identity.UID = "changed"

	id, _ := g.Identity()
	assert.Equal(t, "u1", id.UID)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "unknown", StateUnknown.String())
	assert.Equal(t, "unauthenticated", StateUnauthenticated.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
}
