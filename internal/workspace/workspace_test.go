package workspace

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"MoriTags/internal/auth"
	"MoriTags/internal/collection"
	"MoriTags/internal/customtag"
	"MoriTags/internal/db"
	"MoriTags/internal/db/dbtest"
	domainerrors "MoriTags/internal/errors"
	"MoriTags/internal/events"
	"MoriTags/internal/guest"
	"MoriTags/internal/models"
	"MoriTags/internal/selection"
	"MoriTags/internal/tag"
)

type recordedEvent struct {
	owner int64
	kind  string
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) Publish(ownerID int64, eventType string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{owner: ownerID, kind: eventType})
}

type fixture struct {
	db       *gorm.DB
	local    *guest.MemoryKV
	backends Backends
	notes    *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gormDB := dbtest.New(t)
	local := guest.NewMemoryKV()
	notes := &recorder{}
	return &fixture{
		db:    gormDB,
		local: local,
		notes: notes,
		backends: Backends{
			Catalog:     tag.NewService(gormDB),
			CustomTags:  customtag.NewService(gormDB),
			Collections: collection.NewService(gormDB),
			Local:       local,
			Priority:    tag.DefaultPriorityTable(),
			Notifier:    notes,
		},
	}
}

func (f *fixture) seed(t *testing.T, rows ...models.Tag) {
	t.Helper()
	require.NoError(t, f.db.Create(&rows).Error)
}

func TestGuestSaveAndListCollection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w := Open(auth.Guest(), f.backends)
	assert.True(t, w.IsGuest())

	w.Toggle("cat_ears")
	w.Toggle("blue_eyes")
	assert.Equal(t, "cat_ears, blue_eyes", w.Prompt())

	saved, err := w.SaveSelection(ctx, "Demo")
	require.NoError(t, err)
	assert.Equal(t, "cat_ears, blue_eyes", saved.TagsString)
	assert.Equal(t, 2, saved.TagsCount)

	list, err := w.Collections(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, list)
	assert.Equal(t, saved.ID, list[0].ID)

	// 访客不产生推送
	assert.Empty(t, f.notes.events)

	var count int64
	require.NoError(t, f.db.Model(&models.Collection{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAuthenticatedCustomTagSortsLast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t,
		models.Tag{NameEN: "blue_eyes", Category: "角色"},
		models.Tag{NameEN: "solo", Category: "构图"},
		models.Tag{NameEN: "nsfw", Category: "R-18"},
	)

	w := Open(auth.Authenticated(auth.Identity{ID: 1, Username: "mori"}), f.backends)
	added, err := w.AddCustomTag(ctx, customtag.AddRequest{Name: "halo"})
	require.NoError(t, err)
	assert.Equal(t, tag.CategoryCustom, added.Category)

	vocab, err := w.Vocabulary(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"角色", "构图", "R-18", tag.CategoryCustom}, vocab.Categories)

	halo, ok := vocab.Lookup("halo")
	require.True(t, ok)
	assert.Equal(t, tag.CategoryCustom, halo.Category)
	assert.True(t, halo.IsCustom)
	assert.Equal(t, "halo", vocab.Tags[len(vocab.Tags)-1].NameEN)

	require.Len(t, f.notes.events, 1)
	assert.Equal(t, recordedEvent{owner: 1, kind: events.CustomTagAdded}, f.notes.events[0])
}

func TestLoadCollectionReplacesSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := Open(auth.Authenticated(auth.Identity{ID: 1}), f.backends)

	w.SetSelection(selection.Selection{"a", "b"})
	saved, err := w.SaveSelection(ctx, "AB")
	require.NoError(t, err)

	w.SetSelection(selection.Selection{"b", "c", "d"})
	loaded, err := w.LoadCollection(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, selection.Selection{"a", "b"}, loaded)
	assert.Equal(t, selection.Selection{"a", "b"}, w.Selection())

	// 加载失败时选择不变
	_, err = w.LoadCollection(ctx, saved.ID+100)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
	assert.Equal(t, selection.Selection{"a", "b"}, w.Selection())
}

func TestDeleteCustomTagRemovesFromSelection(t *testing.T) {
	for _, state := range []auth.State{auth.Guest(), auth.Authenticated(auth.Identity{ID: 3})} {
		f := newFixture(t)
		ctx := context.Background()
		w := Open(state, f.backends)

		added, err := w.AddCustomTag(ctx, customtag.AddRequest{Name: "halo"})
		require.NoError(t, err)
		w.Toggle("solo")
		w.Toggle("halo")

		require.NoError(t, w.DeleteCustomTag(ctx, added.ID))
		assert.Equal(t, selection.Selection{"solo"}, w.Selection())

		vocab, err := w.Vocabulary(ctx)
		require.NoError(t, err)
		_, ok := vocab.Lookup("halo")
		assert.False(t, ok)

		// 不存在的 id 静默成功，选择不变
		require.NoError(t, w.DeleteCustomTag(ctx, added.ID+1))
		assert.Equal(t, selection.Selection{"solo"}, w.Selection())
	}
}

func TestDeleteOthersCollectionIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := Open(auth.Authenticated(auth.Identity{ID: 1}), f.backends)
	saved, err := owner.SaveCollection(ctx, collection.SaveRequest{Name: "Mine", Tags: "a"})
	require.NoError(t, err)

	intruder := Open(auth.Authenticated(auth.Identity{ID: 2}), f.backends)
	require.NoError(t, intruder.DeleteCollection(ctx, saved.ID))

	list, err := owner.Collections(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, saved.ID, list[0].ID)
}

func TestLoginOrphansGuestData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := auth.NewService(f.db, nil)

	state := auth.Guest()
	w := Open(state, f.backends)
	_, err := w.SaveCollection(ctx, collection.SaveRequest{Name: "Guest work", Tags: "a, b"})
	require.NoError(t, err)
	_, err = w.AddCustomTag(ctx, customtag.AddRequest{Name: "guest_tag"})
	require.NoError(t, err)

	state, err = state.Login(ctx, svc, "admin", "secret")
	require.NoError(t, err)
	w = Open(state, f.backends)
	assert.False(t, w.IsGuest())

	list, err := w.Collections(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	vocab, err := w.Vocabulary(ctx)
	require.NoError(t, err)
	_, ok := vocab.Lookup("guest_tag")
	assert.False(t, ok)

	// 本地数据仍在
	_, found, err := f.local.Get(guest.KeyCollections)
	require.NoError(t, err)
	assert.True(t, found)

	w = Open(state.Logout(), f.backends)
	list, err = w.Collections(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Guest work", list[0].Name)
}

func TestGuestWithoutLocalStore(t *testing.T) {
	f := newFixture(t)
	f.backends.Local = nil
	f.seed(t, models.Tag{NameEN: "solo", Category: "构图"})
	ctx := context.Background()

	w := Open(auth.Guest(), f.backends)

	vocab, err := w.Vocabulary(ctx)
	require.NoError(t, err)
	assert.Len(t, vocab.Tags, 1)

	_, err = w.AddCustomTag(ctx, customtag.AddRequest{Name: "halo"})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrUnauthorized))
	_, err = w.Collections(ctx)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrUnauthorized))
	assert.True(t, domainerrors.Is(w.DeleteCollection(ctx, 1), domainerrors.ErrUnauthorized))
}

func TestCollectionsIncludePreview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, models.Tag{NameEN: "cat_ears", Category: "衣装", ImageURL: models.StringPtr("https://img/cat.png")})

	w := Open(auth.Authenticated(auth.Identity{ID: 1}), f.backends)
	_, err := w.SaveCollection(ctx, collection.SaveRequest{Name: "Cats", Tags: "solo, cat_ears"})
	require.NoError(t, err)

	list, err := w.Collections(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].PreviewImageURL)
	assert.Equal(t, "https://img/cat.png", *list[0].PreviewImageURL)

	kinds := make([]string, 0, len(f.notes.events))
	for _, e := range f.notes.events {
		kinds = append(kinds, e.kind)
	}
	assert.Equal(t, []string{events.CollectionSaved}, kinds)
}

func TestLoadCollectionDropsRepeatedNames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := Open(auth.Authenticated(auth.Identity{ID: 1}), f.backends)

	saved, err := w.SaveCollection(ctx, collection.SaveRequest{Name: "Dup", Tags: "a, b, a"})
	require.NoError(t, err)

	loaded, err := w.LoadCollection(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, selection.Selection{"a", "b"}, loaded)

	w.Toggle("a")
	assert.Equal(t, selection.Selection{"b"}, w.Selection())
	w.Toggle("a")
	assert.Equal(t, selection.Selection{"b", "a"}, w.Selection())
}

func TestStorageFailureKeepsSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := Open(auth.Authenticated(auth.Identity{ID: 1}), f.backends)

	saved, err := w.SaveCollection(ctx, collection.SaveRequest{Name: "Kept", Tags: "x, y"})
	require.NoError(t, err)
	w.SetSelection(selection.Selection{"a", "b"})
	published := len(f.notes.events)

	require.NoError(t, db.Close(f.db))

	_, err = w.SaveSelection(ctx, "Broken")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrStorageUnavailable))

	_, err = w.LoadCollection(ctx, saved.ID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrStorageUnavailable))

	err = w.DeleteCollection(ctx, saved.ID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrStorageUnavailable))

	_, err = w.AddCustomTag(ctx, customtag.AddRequest{Name: "halo"})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrStorageUnavailable))

	assert.Equal(t, selection.Selection{"a", "b"}, w.Selection())
	assert.Len(t, f.notes.events, published)
}
