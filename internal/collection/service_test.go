package collection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MoriTags/internal/db/dbtest"
	domainerrors "MoriTags/internal/errors"
	"MoriTags/internal/selection"
	"MoriTags/internal/tag"
)

func TestSaveCollection(t *testing.T) {
	s := NewService(dbtest.New(t))
	ctx := context.Background()

	c, err := s.SaveCollection(ctx, 1, SaveRequest{Name: "Demo", Tags: "cat_ears, blue_eyes"})
	require.NoError(t, err)
	assert.NotZero(t, c.ID)
	assert.Equal(t, "Demo", c.Name)
	assert.Equal(t, "cat_ears, blue_eyes", c.TagsString)
	assert.Equal(t, 2, c.TagsCount)
	assert.Equal(t, selection.Selection{"cat_ears", "blue_eyes"}, c.Selection())
}

func TestSaveCollectionValidation(t *testing.T) {
	s := NewService(dbtest.New(t))

	tests := []struct {
		name string
		req  SaveRequest
	}{
		{"缺少名称", SaveRequest{Tags: "a"}},
		{"名称为空白", SaveRequest{Name: "  ", Tags: "a"}},
		{"缺少标签", SaveRequest{Name: "Demo"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SaveCollection(context.Background(), 1, tt.req)
			require.Error(t, err)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
			assert.Equal(t, "Name and tags are required", domainerrors.MessageOf(err))
		})
	}
}

func TestSaveCollectionAllowsDuplicateNames(t *testing.T) {
	s := NewService(dbtest.New(t))
	ctx := context.Background()

	first, err := s.SaveCollection(ctx, 1, SaveRequest{Name: "Demo", Tags: "a"})
	require.NoError(t, err)
	second, err := s.SaveCollection(ctx, 1, SaveRequest{Name: "Demo", Tags: "b"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	list, err := s.ListCollections(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	// 最新创建的在前
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestListCollectionsScopedToOwner(t *testing.T) {
	s := NewService(dbtest.New(t))
	ctx := context.Background()

	_, err := s.SaveCollection(ctx, 1, SaveRequest{Name: "Mine", Tags: "a"})
	require.NoError(t, err)
	_, err = s.SaveCollection(ctx, 2, SaveRequest{Name: "Theirs", Tags: "b"})
	require.NoError(t, err)

	list, err := s.ListCollections(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Mine", list[0].Name)
}

func TestGetAndDeleteCollectionOwnership(t *testing.T) {
	s := NewService(dbtest.New(t))
	ctx := context.Background()

	c, err := s.SaveCollection(ctx, 1, SaveRequest{Name: "Demo", Tags: "a, b"})
	require.NoError(t, err)

	got, err := s.GetCollection(ctx, 1, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.TagsString, got.TagsString)

	_, err = s.GetCollection(ctx, 2, c.ID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))

	// 非本人删除：静默成功
	require.NoError(t, s.DeleteCollection(ctx, 2, c.ID))
	list, err := s.ListCollections(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.ForOwner(1).Delete(ctx, c.ID))
	list, err = s.ForOwner(1).List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPreviewImage(t *testing.T) {
	vocab := &tag.Vocabulary{Tags: []tag.Tag{
		{NameEN: "solo"},
		{NameEN: "local_img", ImageURL: "/static/a.png"},
		{NameEN: "cat_ears", ImageURL: "https://img/cat.png"},
		{NameEN: "blue_eyes", ImageURL: "http://img/blue.png"},
	}}

	tests := []struct {
		name       string
		tagsString string
		expected   string
	}{
		{"第一个有图的标签", "solo, cat_ears, blue_eyes", "https://img/cat.png"},
		{"跳过非http地址", "local_img, blue_eyes", "http://img/blue.png"},
		{"不在词表中", "unknown, missing", ""},
		{"空串", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PreviewImage(tt.tagsString, vocab))
		})
	}

	assert.Equal(t, "", PreviewImage("cat_ears", nil))
}

func TestWithPreviews(t *testing.T) {
	vocab := &tag.Vocabulary{Tags: []tag.Tag{{NameEN: "cat_ears", ImageURL: "https://img/cat.png"}}}
	list := []Collection{{ID: 1, TagsString: "cat_ears"}, {ID: 2, TagsString: "solo"}}

	out := WithPreviews(list, vocab)
	require.NotNil(t, out[0].PreviewImageURL)
	assert.Equal(t, "https://img/cat.png", *out[0].PreviewImageURL)
	assert.Nil(t, out[1].PreviewImageURL)
	assert.Nil(t, list[0].PreviewImageURL)
}

func TestCollectionStorageUnavailable(t *testing.T) {
	s := NewService(dbtest.Closed(t))
	ctx := context.Background()

	_, err := s.SaveCollection(ctx, 1, SaveRequest{Name: "Demo", Tags: "a"})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrStorageUnavailable))

	_, err = s.ListCollections(ctx, 1)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrStorageUnavailable))

	_, err = s.GetCollection(ctx, 1, 1)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrStorageUnavailable))

	err = s.DeleteCollection(ctx, 1, 1)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrStorageUnavailable))
}
