package models

import (
	"time"
)

// User 身份表 - GORM模型
// password_hash 列沿用历史命名，默认模式下保存的是明文凭据
type User struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement;column:id"`
	Username     string    `json:"username" gorm:"type:text;uniqueIndex;not null;column:username"`
	PasswordHash string    `json:"-" gorm:"type:text;not null;column:password_hash"`
	Role         string    `json:"role" gorm:"type:text;default:'user';column:role"`
	CreatedAt    time.Time `json:"createdAt" gorm:"autoCreateTime;column:created_at"`
}

// TableName 设置表名
func (User) TableName() string {
	return "users"
}

// Tag 系统标签表 - GORM模型，由外部种子脚本填充
type Tag struct {
	ID         int64   `json:"id" gorm:"primaryKey;autoIncrement;column:id"`
	NameEN     string  `json:"name_en" gorm:"type:text;not null;index:idx_tags_category_name,priority:2;column:name_en"`
	NameZH     *string `json:"name_zh,omitempty" gorm:"type:text;column:name_zh"`
	Category   string  `json:"category" gorm:"type:text;not null;index:idx_tags_category_name,priority:1;column:category"`
	IsNegative bool    `json:"is_negative" gorm:"default:false;column:is_negative"`
	ImageURL   *string `json:"image_url,omitempty" gorm:"type:text;column:image_url"`
	WikiURL    *string `json:"wiki_url,omitempty" gorm:"type:text;column:wiki_url"`
}

// TableName 设置表名
func (Tag) TableName() string {
	return "tags"
}

// CustomTag 用户自定义标签表 - GORM模型
type CustomTag struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement;column:id"`
	UserID    int64     `json:"user_id" gorm:"not null;index:idx_custom_tags_user_name,priority:1;column:user_id"`
	Name      string    `json:"name" gorm:"type:text;not null;index:idx_custom_tags_user_name,priority:2;column:name"`
	Category  *string   `json:"category,omitempty" gorm:"type:text;default:'Custom';column:category"`
	NameZH    *string   `json:"name_zh,omitempty" gorm:"type:text;column:name_zh"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;column:created_at"`
}

// TableName 设置表名
func (CustomTag) TableName() string {
	return "custom_tags"
}

// Collection 收藏夹表 - GORM模型
// tags_string 原样保存拼接后的选择，不做二次规范化
type Collection struct {
	ID              int64     `json:"id" gorm:"primaryKey;autoIncrement;column:id"`
	UserID          int64     `json:"user_id" gorm:"not null;index;column:user_id"`
	Name            string    `json:"name" gorm:"type:text;not null;column:name"`
	TagsString      string    `json:"tags_string" gorm:"type:text;not null;column:tags_string"`
	PreviewImageURL *string   `json:"preview_image_url,omitempty" gorm:"type:text;column:preview_image_url"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime;index;column:created_at"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"autoUpdateTime;column:updated_at"`
}

// TableName 设置表名
func (Collection) TableName() string {
	return "collections"
}

// All 服务端二进制需要确保存在的全部表
func All() []interface{} {
	return []interface{}{&User{}, &Tag{}, &CustomTag{}, &Collection{}}
}

// StringValue 可空字符串取值
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StringPtr 空字符串存为 NULL
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
