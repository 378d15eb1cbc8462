package customtag

import (
	"context"
	"strings"

	domainerrors "MoriTags/internal/errors"
	"MoriTags/internal/tag"
)

// CustomTag 用户自定义标签
type CustomTag struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_id,omitempty"`
	Name     string `json:"name"`
	Category string `json:"category"`
	NameZH   string `json:"name_zh"`
	IsCustom bool   `json:"is_custom"`
}

// ToTag 投影为词表标签
func (c CustomTag) ToTag() tag.Tag {
	category := c.Category
	if category == "" {
		category = tag.CategoryCustom
	}
	return tag.Tag{
		ID:       c.ID,
		NameEN:   c.Name,
		NameZH:   c.NameZH,
		Category: category,
		IsCustom: true,
	}
}

// ToTags 批量投影
func ToTags(list []CustomTag) []tag.Tag {
	tags := make([]tag.Tag, 0, len(list))
	for _, c := range list {
		tags = append(tags, c.ToTag())
	}
	return tags
}

// AddRequest 添加自定义标签请求
type AddRequest struct {
	Name     string `json:"name" validate:"notblank,max=200"`
	Category string `json:"category,omitempty" validate:"max=100"`
	NameZH   string `json:"name_zh,omitempty" validate:"max=200"`
}

// Normalize 去除首尾空白并补全默认值，名称为空时返回 ValidationError
func (r AddRequest) Normalize() (AddRequest, error) {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return r, domainerrors.Validation("Name is required")
	}
	r.Category = strings.TrimSpace(r.Category)
	if r.Category == "" {
		r.Category = tag.CategoryCustom
	}
	r.NameZH = strings.TrimSpace(r.NameZH)
	return r, nil
}

// Store 某个归属方（用户或本设备）的自定义标签
type Store interface {
	List(ctx context.Context) ([]CustomTag, error)
	// Add 同名标签已存在时返回已有标签
	Add(ctx context.Context, req AddRequest) (*CustomTag, error)
	// Delete 不存在或不属于归属方时静默成功
	Delete(ctx context.Context, id int64) error
}

// CustomTagResponse API 响应
type CustomTagResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	ID      int64       `json:"id,omitempty"`
	Tag     interface{} `json:"tag,omitempty"`
	Tags    interface{} `json:"tags,omitempty"`
}
