package guest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MoriTags/internal/collection"
	"MoriTags/internal/customtag"
	domainerrors "MoriTags/internal/errors"
	"MoriTags/internal/tag"
)

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestKVImplementations(t *testing.T) {
	badgerKV, err := OpenBadgerKV(filepath.Join(t.TempDir(), "badger"))
	require.NoError(t, err)
	t.Cleanup(func() { badgerKV.Close() })

	stores := map[string]KV{
		"memory": NewMemoryKV(),
		"file":   NewFileKV(filepath.Join(t.TempDir(), "nested", "state.json")),
		"badger": badgerKV,
	}

	for name, kv := range stores {
		t.Run(name, func(t *testing.T) {
			_, ok, err := kv.Get("missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, kv.Set("k", "v1"))
			require.NoError(t, kv.Set("k", "v2"))
			v, ok, err := kv.Get("k")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "v2", v)

			require.NoError(t, kv.Delete("k"))
			require.NoError(t, kv.Delete("k"))
			_, ok, err = kv.Get("k")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestFileKVToleratesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	kv := NewFileKV(path)
	_, ok, err := kv.Get(KeyCollections)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set("selection", "a, b"))

	// 另一个实例能读到同一文件
	v, ok, err := NewFileKV(path).Get("selection")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a, b", v)
}

func TestStoresTolerateMalformedData(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"非法JSON", "{oops"},
		{"不是数组", `{"id": 1}`},
		{"空串", ""},
		{"null", "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := NewMemoryKV()
			require.NoError(t, kv.Set(KeyCollections, tt.value))
			require.NoError(t, kv.Set(KeyCustomTags, tt.value))

			cols, err := NewCollectionStore(kv).List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, cols)

			tags, err := NewCustomTagStore(kv).List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, tags)
		})
	}
}

func TestCollectionStoreSaveAndList(t *testing.T) {
	kv := NewMemoryKV()
	s := NewCollectionStore(kv)
	s.now = fixedClock(1700000000000)
	ctx := context.Background()

	first, err := s.Save(ctx, collection.SaveRequest{Name: "Demo", Tags: "cat_ears, blue_eyes"})
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000), first.ID)
	assert.Equal(t, 2, first.TagsCount)

	// 同一毫秒内再次保存，id 仍唯一
	second, err := s.Save(ctx, collection.SaveRequest{Name: "Demo", Tags: "halo"})
	require.NoError(t, err)
	assert.Equal(t, first.ID+1, second.ID)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, "cat_ears, blue_eyes", list[1].TagsString)

	got, err := s.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Demo", got.Name)

	_, err = s.Get(ctx, 42)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestCollectionStoreValidation(t *testing.T) {
	kv := NewMemoryKV()
	s := NewCollectionStore(kv)

	_, err := s.Save(context.Background(), collection.SaveRequest{Name: "Demo"})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	_, ok, _ := kv.Get(KeyCollections)
	assert.False(t, ok)
}

func TestCollectionStoreDelete(t *testing.T) {
	s := NewCollectionStore(NewMemoryKV())
	ctx := context.Background()

	c, err := s.Save(ctx, collection.SaveRequest{Name: "Demo", Tags: "a"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, c.ID+999))
	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.Delete(ctx, c.ID))
	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCollectionStoreReadsBrowserFormat(t *testing.T) {
	kv := NewMemoryKV()
	raw := `[{"id":1712345678901,"user_id":0,"name":"Old","tags_string":"a, b, c","tags_count":3,"preview_image_url":null,"created_at":"2024-04-05T19:34:38.901Z","updated_at":"2024-04-05T19:34:38.901Z"}]`
	require.NoError(t, kv.Set(KeyCollections, raw))

	list, err := NewCollectionStore(kv).List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1712345678901), list[0].ID)
	assert.Equal(t, 3, list[0].TagsCount)
	assert.Nil(t, list[0].PreviewImageURL)
}

func TestCustomTagStoreAdd(t *testing.T) {
	kv := NewMemoryKV()
	s := NewCustomTagStore(kv)
	s.now = fixedClock(1700000000000)
	ctx := context.Background()

	added, err := s.Add(ctx, customtag.AddRequest{Name: " halo "})
	require.NoError(t, err)
	assert.Equal(t, "halo", added.Name)
	assert.Equal(t, tag.CategoryCustom, added.Category)

	again, err := s.Add(ctx, customtag.AddRequest{Name: "halo", Category: "Other"})
	require.NoError(t, err)
	assert.Equal(t, added.ID, again.ID)
	assert.Equal(t, tag.CategoryCustom, again.Category)

	_, err = s.Add(ctx, customtag.AddRequest{Name: "wings", NameZH: "翅膀"})
	require.NoError(t, err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "halo", list[0].Name)
	assert.Equal(t, "翅膀", list[1].NameZH)

	// 存储格式与词表标签一致
	raw, _, _ := kv.Get(KeyCustomTags)
	var stored []map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, "halo", stored[0]["name_en"])
	assert.Equal(t, true, stored[0]["is_custom"])

	_, err = s.Add(ctx, customtag.AddRequest{Name: "  "})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}

func TestCustomTagStorePatchesLegacyData(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(KeyCustomTags, `[{"id":1,"name_en":"halo"},{"id":2,"name_en":"wings","category":"Mine","is_custom":true}]`))

	list, err := NewCustomTagStore(kv).List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, tag.CategoryCustom, list[0].Category)
	assert.True(t, list[0].IsCustom)
	assert.Equal(t, "Mine", list[1].Category)

	raw, _, _ := kv.Get(KeyCustomTags)
	var stored []tag.Tag
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.True(t, stored[0].IsCustom)
	assert.Equal(t, tag.CategoryCustom, stored[0].Category)
}

func TestCustomTagStoreDelete(t *testing.T) {
	s := NewCustomTagStore(NewMemoryKV())
	ctx := context.Background()

	added, err := s.Add(ctx, customtag.AddRequest{Name: "halo"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, added.ID+1))
	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.Delete(ctx, added.ID))
	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
