// Package workspace 一次浏览会话：根据身份状态选择持久化或本地存储，
// 组合词表，并维护当前选择。业务逻辑只在 Open 中区分访客与登录用户。
package workspace

import (
	"context"

	"MoriTags/internal/auth"
	"MoriTags/internal/collection"
	"MoriTags/internal/customtag"
	domainerrors "MoriTags/internal/errors"
	"MoriTags/internal/events"
	"MoriTags/internal/guest"
	log "MoriTags/internal/log"
	"MoriTags/internal/selection"
	"MoriTags/internal/tag"
)

// Catalog 系统标签来源
type Catalog interface {
	ListTags(ctx context.Context) ([]tag.Tag, error)
}

// Backends 可供选择的存储后端
type Backends struct {
	Catalog     Catalog
	CustomTags  *customtag.Service  // 持久化，登录用户使用
	Collections *collection.Service // 持久化，登录用户使用
	Local       guest.KV            // 本设备存储，访客使用；为 nil 表示没有本地存储
	Priority    tag.PriorityTable
	Notifier    events.Notifier
}

// Workspace 一次会话的状态
type Workspace struct {
	state       auth.State
	catalog     Catalog
	customTags  customtag.Store
	collections collection.Store
	priority    tag.PriorityTable
	notifier    events.Notifier
	ownerID     int64

	selection selection.Selection
}

// Open 按身份状态选择后端。
// 登录用户只使用持久化存储，本地访客数据不会被读取或迁移。
func Open(state auth.State, b Backends) *Workspace {
	w := &Workspace{
		state:     state,
		catalog:   b.Catalog,
		priority:  b.Priority,
		notifier:  b.Notifier,
		selection: selection.Selection{},
	}
	if w.priority.Ranks == nil {
		w.priority = tag.DefaultPriorityTable()
	}
	if w.notifier == nil {
		w.notifier = events.Nop{}
	}

	if identity, ok := state.Identity(); ok {
		w.ownerID = identity.ID
		if b.CustomTags != nil {
			w.customTags = b.CustomTags.ForOwner(identity.ID)
		}
		if b.Collections != nil {
			w.collections = b.Collections.ForOwner(identity.ID)
		}
		return w
	}

	if b.Local != nil {
		w.customTags = guest.NewCustomTagStore(b.Local)
		w.collections = guest.NewCollectionStore(b.Local)
	}
	return w
}

// IsGuest 是否访客会话
func (w *Workspace) IsGuest() bool {
	return w.state.IsGuest()
}

// State 身份状态
func (w *Workspace) State() auth.State {
	return w.state
}

// Vocabulary 合并系统标签与当前归属方的自定义标签
func (w *Workspace) Vocabulary(ctx context.Context) (*tag.Vocabulary, error) {
	var catalog []tag.Tag
	if w.catalog != nil {
		var err error
		catalog, err = w.catalog.ListTags(ctx)
		if err != nil {
			return nil, err
		}
	}

	var custom []tag.Tag
	if w.customTags != nil {
		list, err := w.customTags.List(ctx)
		if err != nil {
			return nil, err
		}
		custom = customtag.ToTags(list)
	}

	return tag.Merge(catalog, custom, w.priority), nil
}

// Selection 当前选择
func (w *Workspace) Selection() selection.Selection {
	return w.selection
}

// SetSelection 整体替换当前选择
func (w *Workspace) SetSelection(s selection.Selection) {
	w.selection = selection.Of(s...)
}

// Toggle 切换标签
func (w *Workspace) Toggle(name string) selection.Selection {
	w.selection = w.selection.Toggle(name)
	return w.selection
}

// Remove 移除标签
func (w *Workspace) Remove(name string) selection.Selection {
	w.selection = w.selection.Remove(name)
	return w.selection
}

// Clear 清空选择
func (w *Workspace) Clear() selection.Selection {
	w.selection = w.selection.Clear()
	return w.selection
}

// Prompt 当前选择的提示词
func (w *Workspace) Prompt() string {
	return w.selection.ToPromptString()
}

// AddCustomTag 添加自定义标签
func (w *Workspace) AddCustomTag(ctx context.Context, req customtag.AddRequest) (*customtag.CustomTag, error) {
	store, err := w.customTagStore()
	if err != nil {
		return nil, err
	}
	added, err := store.Add(ctx, req)
	if err != nil {
		return nil, err
	}
	w.notify(events.CustomTagAdded, added)
	return added, nil
}

// DeleteCustomTag 删除自定义标签，并把它从当前选择中移除
func (w *Workspace) DeleteCustomTag(ctx context.Context, id int64) error {
	store, err := w.customTagStore()
	if err != nil {
		return err
	}

	list, err := store.List(ctx)
	if err != nil {
		return err
	}
	var name string
	for _, c := range list {
		if c.ID == id {
			name = c.Name
			break
		}
	}

	if err := store.Delete(ctx, id); err != nil {
		return err
	}
	if name != "" {
		w.selection = w.selection.Remove(name)
		w.notify(events.CustomTagDeleted, map[string]interface{}{"id": id, "name": name})
	}
	return nil
}

// SaveSelection 把当前选择保存为收藏夹
func (w *Workspace) SaveSelection(ctx context.Context, name string) (*collection.Collection, error) {
	return w.SaveCollection(ctx, collection.SaveRequest{Name: name, Tags: w.selection.ToPromptString()})
}

// SaveCollection 保存收藏夹
func (w *Workspace) SaveCollection(ctx context.Context, req collection.SaveRequest) (*collection.Collection, error) {
	store, err := w.collectionStore()
	if err != nil {
		return nil, err
	}
	saved, err := store.Save(ctx, req)
	if err != nil {
		return nil, err
	}
	w.notify(events.CollectionSaved, saved)
	return saved, nil
}

// Collections 收藏夹列表，带预览图
func (w *Workspace) Collections(ctx context.Context) ([]collection.Collection, error) {
	store, err := w.collectionStore()
	if err != nil {
		return nil, err
	}
	list, err := store.List(ctx)
	if err != nil {
		return nil, err
	}

	vocab, err := w.Vocabulary(ctx)
	if err != nil {
		log.Warnf("加载词表失败，收藏夹不显示预览图: %v", err)
		return list, nil
	}
	return collection.WithPreviews(list, vocab), nil
}

// Collection 获取单个收藏夹
func (w *Workspace) Collection(ctx context.Context, id int64) (*collection.Collection, error) {
	store, err := w.collectionStore()
	if err != nil {
		return nil, err
	}
	return store.Get(ctx, id)
}

// LoadCollection 用收藏夹整体替换当前选择
func (w *Workspace) LoadCollection(ctx context.Context, id int64) (selection.Selection, error) {
	c, err := w.Collection(ctx, id)
	if err != nil {
		return w.selection, err
	}
	w.selection = c.Selection()
	return w.selection, nil
}

// DeleteCollection 删除收藏夹
func (w *Workspace) DeleteCollection(ctx context.Context, id int64) error {
	store, err := w.collectionStore()
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, id); err != nil {
		return err
	}
	w.notify(events.CollectionDeleted, map[string]int64{"id": id})
	return nil
}

func (w *Workspace) customTagStore() (customtag.Store, error) {
	if w.customTags == nil {
		return nil, domainerrors.Unauthorized("Login required")
	}
	return w.customTags, nil
}

func (w *Workspace) collectionStore() (collection.Store, error) {
	if w.collections == nil {
		return nil, domainerrors.Unauthorized("Login required")
	}
	return w.collections, nil
}

// notify 只有登录用户才有推送对象
func (w *Workspace) notify(eventType string, data interface{}) {
	if w.state.IsGuest() {
		return
	}
	w.notifier.Publish(w.ownerID, eventType, data)
}
