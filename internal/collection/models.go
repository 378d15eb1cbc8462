package collection

import (
	"context"
	"strings"
	"time"

	domainerrors "MoriTags/internal/errors"
	"MoriTags/internal/selection"
	"MoriTags/internal/tag"
)

// Collection 收藏夹：某次选择的命名快照
type Collection struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Name            string    `json:"name"`
	TagsString      string    `json:"tags_string"`
	TagsCount       int       `json:"tags_count"`
	PreviewImageURL *string   `json:"preview_image_url"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Selection 还原为选择
func (c Collection) Selection() selection.Selection {
	return selection.FromTagsString(c.TagsString)
}

// SaveRequest 保存收藏夹请求；Tags 为 ", " 拼接的选择
type SaveRequest struct {
	Name string `json:"name" validate:"notblank,max=200"`
	Tags string `json:"tags" validate:"required"`
}

// Normalize 校验名称与标签串均非空；标签串原样保存
func (r SaveRequest) Normalize() (SaveRequest, error) {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" || r.Tags == "" {
		return r, domainerrors.Validation("Name and tags are required")
	}
	return r, nil
}

// Store 某个归属方（用户或本设备）的收藏夹
type Store interface {
	// Save 总是新建，同名收藏夹允许重复
	Save(ctx context.Context, req SaveRequest) (*Collection, error)
	// List 最新创建的在前
	List(ctx context.Context) ([]Collection, error)
	Get(ctx context.Context, id int64) (*Collection, error)
	// Delete 不存在或不属于归属方时静默成功
	Delete(ctx context.Context, id int64) error
}

// PreviewImage 按顺序找到第一个在词表中且 image_url 以 http 开头的标签
func PreviewImage(tagsString string, vocab *tag.Vocabulary) string {
	if vocab == nil {
		return ""
	}
	for _, name := range selection.FromTagsString(tagsString) {
		t, ok := vocab.Lookup(name)
		if ok && strings.HasPrefix(t.ImageURL, "http") {
			return t.ImageURL
		}
	}
	return ""
}

// WithPreviews 为列表填充预览图，返回新切片
func WithPreviews(list []Collection, vocab *tag.Vocabulary) []Collection {
	out := make([]Collection, len(list))
	for i, c := range list {
		if url := PreviewImage(c.TagsString, vocab); url != "" {
			c.PreviewImageURL = &url
		}
		out[i] = c
	}
	return out
}

// CollectionResponse API 响应
type CollectionResponse struct {
	Success     bool        `json:"success"`
	Message     string      `json:"message,omitempty"`
	Error       string      `json:"error,omitempty"`
	Collection  interface{} `json:"collection,omitempty"`
	Collections interface{} `json:"collections,omitempty"`
}
