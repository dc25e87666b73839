package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"daily-routine/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestCredentials(t *testing.T) *database.CredentialRepository {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "auth.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return database.NewCredentialRepository(db)
}

func newTestProvider(store CredentialStore, client string) *LocalProvider {
	return NewLocalProvider(store, client, Bcrypt{Cost: bcrypt.MinCost}, zap.NewNop())
}

func TestLocalProvider_SignUpSignOutSignIn(t *testing.T) {
	store := newTestCredentials(t)
	p := newTestProvider(store, "chat-1")
	ctx := context.Background()

	var events []*Identity
	unsubscribe := p.SubscribeToSessionChanges(func(id *Identity) { events = append(events, id) })
	defer unsubscribe()

	created, err := p.SignUp(ctx, "Ann@Example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, created.UID)
	assert.Equal(t, "ann@example.com", created.Email)
	require.NotNil(t, p.Current())

	require.NoError(t, p.SignOut(ctx))
	assert.Nil(t, p.Current())

	signedIn, err := p.SignIn(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, created, signedIn)

	require.Len(t, events, 3)
	assert.Equal(t, created.UID, events[0].UID)
	assert.Nil(t, events[1])
	assert.Equal(t, created.UID, events[2].UID)
}

func TestLocalProvider_SignUpValidation(t *testing.T) {
	p := newTestProvider(newTestCredentials(t), "chat-1")
	ctx := context.Background()

	_, err := p.SignUp(ctx, "not-an-email", "secret1")
	assert.True(t, IsCode(err, CodeInvalidEmail))

	_, err = p.SignUp(ctx, "ann@example.com", "123")
	assert.True(t, IsCode(err, CodeWeakPassword))

	_, err = p.SignUp(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)
	_, err = p.SignUp(ctx, "ann@example.com", "secret2")
	assert.True(t, IsCode(err, CodeEmailAlreadyInUse))
}

func TestLocalProvider_SignInFailures(t *testing.T) {
	store := newTestCredentials(t)
	p := newTestProvider(store, "chat-1")
	ctx := context.Background()

	_, err := p.SignUp(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, p.SignOut(ctx))

	_, err = p.SignIn(ctx, "ann@example.com", "wrong-password")
	assert.True(t, IsCode(err, CodeInvalidCredential))
	assert.Equal(t, "Invalid email or password.", DisplayMessage(err))

	_, err = p.SignIn(ctx, "bob@example.com", "secret1")
	assert.True(t, IsCode(err, CodeInvalidCredential))
	assert.Nil(t, p.Current())
}

func TestLocalProvider_RestoreSession(t *testing.T) {
	store := newTestCredentials(t)
	ctx := context.Background()

	first := newTestProvider(store, "chat-1")
	created, err := first.SignUp(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)

	restored := newTestProvider(store, "chat-1")
	gate := NewGate(restored)
	assert.Equal(t, StateUnknown, gate.State())

	require.NoError(t, restored.Restore(ctx))
	require.True(t, gate.Authenticated())
	id, _ := gate.Identity()
	assert.Equal(t, created.UID, id.UID)

	other := newTestProvider(store, "chat-2")
	otherGate := NewGate(other)
	require.NoError(t, other.Restore(ctx))
	assert.Equal(t, StateUnauthenticated, otherGate.State())
}

type failingStore struct {
	CredentialStore
}

func (failingStore) SessionUser(context.Context, string) (*database.UserRecord, error) {
	return nil, errors.New("disk on fire")
}

func (failingStore) DeleteSession(context.Context, string) error {
	return errors.New("disk on fire")
}

func TestLocalProvider_FailuresFailClosed(t *testing.T) {
	p := newTestProvider(failingStore{}, "chat-1")
	gate := NewGate(p)

	err := p.Restore(context.Background())
	assert.True(t, IsCode(err, CodeInternal))
	assert.Equal(t, StateUnauthenticated, gate.State())

	err = p.SignOut(context.Background())
	assert.True(t, IsCode(err, CodeInternal))
	assert.Nil(t, p.Current())
}

func TestDisplayMessage(t *testing.T) {
	err := &AuthError{Code: CodeWeakPassword, Message: "Password should be at least 6 characters."}
	assert.Equal(t, "local-auth: Password should be at least 6 characters. (auth/weak-password)", err.Error())
	assert.Equal(t, "Password should be at least 6 characters.", DisplayMessage(err))
	assert.Equal(t, "plain", DisplayMessage(errors.New("local-auth: plain")))
	assert.Equal(t, "", DisplayMessage(nil))
}
