package tag

import (
	"context"
	"errors"

	"gorm.io/gorm"

	domainerrors "MoriTags/internal/errors"
	"MoriTags/internal/models"
)

// Service 系统标签目录，只读
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ListTags 获取全部系统标签，按 (category, name_en) 排序
func (s *Service) ListTags(ctx context.Context) ([]Tag, error) {
	var rows []models.Tag
	err := s.db.WithContext(ctx).Order("category").Order("name_en").Find(&rows).Error
	if err != nil {
		return nil, domainerrors.Storage(err)
	}

	tags := make([]Tag, 0, len(rows))
	for _, row := range rows {
		tags = append(tags, FromModel(row))
	}
	return tags, nil
}

// GetTag 根据ID获取系统标签
func (s *Service) GetTag(ctx context.Context, id int64) (*Tag, error) {
	var row models.Tag
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.NotFound("Tag not found")
		}
		return nil, domainerrors.Storage(err)
	}

	tag := FromModel(row)
	return &tag, nil
}

// FromModel 数据库行转换为词表标签
func FromModel(row models.Tag) Tag {
	return Tag{
		ID:         row.ID,
		NameEN:     row.NameEN,
		NameZH:     models.StringValue(row.NameZH),
		Category:   row.Category,
		IsNegative: row.IsNegative,
		ImageURL:   models.StringValue(row.ImageURL),
		WikiURL:    models.StringValue(row.WikiURL),
	}
}
