package customtag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MoriTags/internal/db/dbtest"
	domainerrors "MoriTags/internal/errors"
	"MoriTags/internal/models"
	"MoriTags/internal/tag"
)

func TestAddCustomTagDefaults(t *testing.T) {
	s := NewService(dbtest.New(t))
	ctx := context.Background()

	added, err := s.AddCustomTag(ctx, 1, AddRequest{Name: "  halo  "})
	require.NoError(t, err)
	assert.Equal(t, "halo", added.Name)
	assert.Equal(t, tag.CategoryCustom, added.Category)
	assert.Equal(t, "", added.NameZH)
	assert.True(t, added.IsCustom)
	assert.NotZero(t, added.ID)
}

func TestAddCustomTagValidation(t *testing.T) {
	s := NewService(dbtest.New(t))

	tests := []struct {
		name string
		req  AddRequest
	}{
		{"空名称", AddRequest{}},
		{"只有空白", AddRequest{Name: " \t "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.AddCustomTag(context.Background(), 1, tt.req)
			require.Error(t, err)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
			assert.Equal(t, "Name is required", domainerrors.MessageOf(err))
		})
	}
}

func TestAddCustomTagIsIdempotent(t *testing.T) {
	gormDB := dbtest.New(t)
	s := NewService(gormDB)
	ctx := context.Background()

	first, err := s.AddCustomTag(ctx, 1, AddRequest{Name: "halo", Category: "Mine"})
	require.NoError(t, err)
	second, err := s.AddCustomTag(ctx, 1, AddRequest{Name: "halo"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Mine", second.Category)

	var count int64
	require.NoError(t, gormDB.Model(&models.CustomTag{}).Where("user_id = ? AND name = ?", 1, "halo").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// 不同用户互不影响
	other, err := s.AddCustomTag(ctx, 2, AddRequest{Name: "halo"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestListCustomTagsScopedAndOrdered(t *testing.T) {
	s := NewService(dbtest.New(t))
	ctx := context.Background()

	for _, name := range []string{"wings", "halo", "aura"} {
		_, err := s.AddCustomTag(ctx, 1, AddRequest{Name: name})
		require.NoError(t, err)
	}
	_, err := s.AddCustomTag(ctx, 2, AddRequest{Name: "tail"})
	require.NoError(t, err)

	list, err := s.ListCustomTags(ctx, 1)
	require.NoError(t, err)

	var names []string
	for _, c := range list {
		names = append(names, c.Name)
		assert.Equal(t, int64(1), c.UserID)
	}
	assert.Equal(t, []string{"aura", "halo", "wings"}, names)
}

func TestDeleteCustomTagOwnership(t *testing.T) {
	s := NewService(dbtest.New(t))
	ctx := context.Background()

	mine, err := s.AddCustomTag(ctx, 1, AddRequest{Name: "halo"})
	require.NoError(t, err)

	// 其他用户删除：静默成功，数据不变
	require.NoError(t, s.DeleteCustomTag(ctx, 2, mine.ID))
	// 不存在的 id
	require.NoError(t, s.DeleteCustomTag(ctx, 1, mine.ID+100))

	list, err := s.ListCustomTags(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, s.DeleteCustomTag(ctx, 1, mine.ID))
	list, err = s.ListCustomTags(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestForOwner(t *testing.T) {
	s := NewService(dbtest.New(t))
	ctx := context.Background()

	var store Store = s.ForOwner(7)
	added, err := store.Add(ctx, AddRequest{Name: "halo", NameZH: "光环"})
	require.NoError(t, err)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "光环", list[0].NameZH)

	require.NoError(t, s.ForOwner(8).Delete(ctx, added.ID))
	list, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, store.Delete(ctx, added.ID))
	list, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestToTags(t *testing.T) {
	tags := ToTags([]CustomTag{
		{ID: 1, Name: "halo"},
		{ID: 2, Name: "wings", Category: "Mine", NameZH: "翅膀"},
	})
	require.Len(t, tags, 2)
	assert.Equal(t, tag.Tag{ID: 1, NameEN: "halo", Category: tag.CategoryCustom, IsCustom: true}, tags[0])
	assert.Equal(t, "Mine", tags[1].Category)
	assert.Equal(t, "翅膀", tags[1].NameZH)
}

func TestCustomTagStorageUnavailable(t *testing.T) {
	s := NewService(dbtest.Closed(t))
	ctx := context.Background()

	_, err := s.ListCustomTags(ctx, 1)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrStorageUnavailable))

	_, err = s.AddCustomTag(ctx, 1, AddRequest{Name: "halo"})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrStorageUnavailable))

	err = s.DeleteCustomTag(ctx, 1, 1)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrStorageUnavailable))

	// 校验先于存储
	_, err = s.AddCustomTag(ctx, 1, AddRequest{Name: "  "})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}
