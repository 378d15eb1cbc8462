package device

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MoriTags/internal/auth"
	"MoriTags/internal/db/dbtest"
	"MoriTags/internal/errors"
	"MoriTags/internal/guest"
	"MoriTags/internal/selection"
)

func newDevice(t *testing.T) (*Device, *guest.MemoryKV) {
	t.Helper()
	kv := guest.NewMemoryKV()
	d := New(Options{
		Local:    kv,
		DB:       dbtest.New(t),
		Sessions: auth.NewSessions("device-secret", time.Hour),
	})
	return d, kv
}

func TestSelectionSurvivesInvocations(t *testing.T) {
	ctx := context.Background()
	d, _ := newDevice(t)

	w := d.Open(ctx)
	w.Toggle("cat_ears")
	w.Toggle("blue_eyes")
	require.NoError(t, d.Persist(w))

	next := d.Open(ctx)
	assert.Equal(t, selection.Selection{"cat_ears", "blue_eyes"}, next.Selection())
	assert.Equal(t, "cat_ears, blue_eyes", next.Prompt())
}

func TestCorruptSelectionResets(t *testing.T) {
	d, kv := newDevice(t)
	require.NoError(t, kv.Set(KeySelection, "{not json"))

	w := d.Open(context.Background())
	assert.Equal(t, selection.Selection{}, w.Selection())
}

func TestLoginLogout(t *testing.T) {
	ctx := context.Background()
	d, kv := newDevice(t)

	assert.True(t, d.State(ctx).IsGuest())

	_, err := d.Login(ctx, "admin", "")
	assert.True(t, errors.Is(err, errors.ErrValidation))
	_, ok, _ := kv.Get(KeySession)
	assert.False(t, ok)

	identity, err := d.Login(ctx, "admin", "secret")
	require.NoError(t, err)
	assert.Equal(t, "admin", identity.Username)

	restored, ok := d.State(ctx).Identity()
	require.True(t, ok)
	assert.Equal(t, identity.ID, restored.ID)

	require.NoError(t, d.Logout())
	assert.True(t, d.State(ctx).IsGuest())
}

func TestGuestDataHiddenWhileLoggedIn(t *testing.T) {
	ctx := context.Background()
	d, _ := newDevice(t)

	w := d.Open(ctx)
	w.Toggle("solo")
	_, err := w.SaveSelection(ctx, "local")
	require.NoError(t, err)

	_, err = d.Login(ctx, "admin", "secret")
	require.NoError(t, err)

	authed := d.Open(ctx)
	list, err := authed.Collections(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, d.Logout())
	list, err = d.Open(ctx).Collections(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "local", list[0].Name)
}

func TestInvalidTokenFallsBackToGuest(t *testing.T) {
	ctx := context.Background()
	d, kv := newDevice(t)
	require.NoError(t, kv.Set(KeySession, "garbage"))

	assert.True(t, d.State(ctx).IsGuest())
	_, ok, _ := kv.Get(KeySession)
	assert.False(t, ok, "invalid token should be cleared")
}

func TestUpdateSettingsRequiresLogin(t *testing.T) {
	ctx := context.Background()
	d, _ := newDevice(t)

	_, err := d.UpdateSettings(ctx, auth.SettingsRequest{OldPassword: "secret", NewUsername: "mori"})
	assert.True(t, errors.Is(err, errors.ErrUnauthorized))

	_, err = d.Login(ctx, "admin", "secret")
	require.NoError(t, err)
	updated, err := d.UpdateSettings(ctx, auth.SettingsRequest{OldPassword: "secret", NewUsername: "mori"})
	require.NoError(t, err)
	assert.Equal(t, "mori", updated.Username)
}

func TestWithoutDatabase(t *testing.T) {
	ctx := context.Background()
	d := New(Options{Local: guest.NewMemoryKV()})

	_, err := d.Login(ctx, "admin", "secret")
	assert.True(t, errors.Is(err, errors.ErrStorageUnavailable))

	w := d.Open(ctx)
	vocab, err := w.Vocabulary(ctx)
	require.NoError(t, err)
	assert.Empty(t, vocab.Tags)
}
