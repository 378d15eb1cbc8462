package guest

import (
	"context"
	"time"

	"MoriTags/internal/collection"
	domainerrors "MoriTags/internal/errors"
	"MoriTags/internal/selection"
)

// CollectionStore 访客收藏夹，保存在 guest_collections 键下，新建的排在最前
type CollectionStore struct {
	kv  KV
	now func() time.Time
}

func NewCollectionStore(kv KV) *CollectionStore {
	return &CollectionStore{kv: kv, now: time.Now}
}

var _ collection.Store = (*CollectionStore)(nil)

// Save 新建收藏夹并插入到列表头部
func (s *CollectionStore) Save(ctx context.Context, req collection.SaveRequest) (*collection.Collection, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}

	stored, err := s.load()
	if err != nil {
		return nil, err
	}

	var maxID int64
	for _, c := range stored {
		if c.ID > maxID {
			maxID = c.ID
		}
	}

	now := s.now().UTC()
	c := collection.Collection{
		ID:         nextID(now, maxID),
		Name:       req.Name,
		TagsString: req.Tags,
		TagsCount:  selection.Count(req.Tags),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	updated := make([]collection.Collection, 0, len(stored)+1)
	updated = append(updated, c)
	updated = append(updated, stored...)
	if err := setJSON(s.kv, KeyCollections, updated); err != nil {
		return nil, domainerrors.Storage(err)
	}
	return &c, nil
}

// List 按存储顺序返回
func (s *CollectionStore) List(ctx context.Context) ([]collection.Collection, error) {
	stored, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range stored {
		stored[i].TagsCount = selection.Count(stored[i].TagsString)
	}
	if stored == nil {
		stored = []collection.Collection{}
	}
	return stored, nil
}

// Get 按 id 查找
func (s *CollectionStore) Get(ctx context.Context, id int64) (*collection.Collection, error) {
	stored, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, c := range stored {
		if c.ID == id {
			c.TagsCount = selection.Count(c.TagsString)
			return &c, nil
		}
	}
	return nil, domainerrors.NotFound("Collection not found")
}

// Delete 按 id 删除，不存在时静默成功
func (s *CollectionStore) Delete(ctx context.Context, id int64) error {
	stored, err := s.load()
	if err != nil {
		return err
	}

	kept := make([]collection.Collection, 0, len(stored))
	for _, c := range stored {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(stored) {
		return nil
	}
	return domainerrors.Storage(setJSON(s.kv, KeyCollections, kept))
}

func (s *CollectionStore) load() ([]collection.Collection, error) {
	var stored []collection.Collection
	ok, err := getJSON(s.kv, KeyCollections, &stored)
	if err != nil {
		return nil, domainerrors.Storage(err)
	}
	if !ok {
		return nil, nil
	}
	return stored, nil
}
