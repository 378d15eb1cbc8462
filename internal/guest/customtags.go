package guest

import (
	"context"
	"time"

	"MoriTags/internal/customtag"
	domainerrors "MoriTags/internal/errors"
	"MoriTags/internal/tag"
)

// CustomTagStore 访客自定义标签，保存在 guest_custom_tags 键下。
// 存储格式与词表标签一致（name_en / name_zh / category / is_custom）。
type CustomTagStore struct {
	kv  KV
	now func() time.Time
}

func NewCustomTagStore(kv KV) *CustomTagStore {
	return &CustomTagStore{kv: kv, now: time.Now}
}

var _ customtag.Store = (*CustomTagStore)(nil)

// List 读取本地自定义标签，旧数据补全 is_custom / category / name_zh 后写回
func (s *CustomTagStore) List(ctx context.Context) ([]customtag.CustomTag, error) {
	stored, err := s.load()
	if err != nil {
		return nil, err
	}

	patched := false
	for i := range stored {
		if !stored[i].IsCustom || stored[i].Category == "" {
			patched = true
		}
		stored[i].IsCustom = true
		if stored[i].Category == "" {
			stored[i].Category = tag.CategoryCustom
		}
	}
	if patched && len(stored) > 0 {
		if err := setJSON(s.kv, KeyCustomTags, stored); err != nil {
			return nil, domainerrors.Storage(err)
		}
	}

	list := make([]customtag.CustomTag, 0, len(stored))
	for _, t := range stored {
		list = append(list, toCustomTag(t))
	}
	return list, nil
}

// Add 追加到末尾；同名标签已存在时直接返回
func (s *CustomTagStore) Add(ctx context.Context, req customtag.AddRequest) (*customtag.CustomTag, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}

	stored, err := s.load()
	if err != nil {
		return nil, err
	}

	var maxID int64
	for _, t := range stored {
		if t.NameEN == req.Name {
			existing := toCustomTag(t)
			return &existing, nil
		}
		if t.ID > maxID {
			maxID = t.ID
		}
	}

	newTag := tag.Tag{
		ID:       nextID(s.now(), maxID),
		NameEN:   req.Name,
		NameZH:   req.NameZH,
		Category: req.Category,
		IsCustom: true,
	}
	stored = append(stored, newTag)
	if err := setJSON(s.kv, KeyCustomTags, stored); err != nil {
		return nil, domainerrors.Storage(err)
	}

	added := toCustomTag(newTag)
	return &added, nil
}

// Delete 按 id 删除，不存在时静默成功
func (s *CustomTagStore) Delete(ctx context.Context, id int64) error {
	stored, err := s.load()
	if err != nil {
		return err
	}

	kept := make([]tag.Tag, 0, len(stored))
	for _, t := range stored {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(stored) {
		return nil
	}
	return domainerrors.Storage(setJSON(s.kv, KeyCustomTags, kept))
}

func (s *CustomTagStore) load() ([]tag.Tag, error) {
	var stored []tag.Tag
	ok, err := getJSON(s.kv, KeyCustomTags, &stored)
	if err != nil {
		return nil, domainerrors.Storage(err)
	}
	if !ok {
		return nil, nil
	}
	return stored, nil
}

func toCustomTag(t tag.Tag) customtag.CustomTag {
	category := t.Category
	if category == "" {
		category = tag.CategoryCustom
	}
	return customtag.CustomTag{
		ID:       t.ID,
		Name:     t.NameEN,
		Category: category,
		NameZH:   t.NameZH,
		IsCustom: true,
	}
}

// nextID 基于时间戳生成，只保证在本设备当前数据中唯一
func nextID(now time.Time, maxID int64) int64 {
	id := now.UnixMilli()
	if id <= maxID {
		id = maxID + 1
	}
	return id
}
