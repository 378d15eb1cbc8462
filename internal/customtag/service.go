package customtag

import (
	"context"
	"errors"

	"gorm.io/gorm"

	domainerrors "MoriTags/internal/errors"
	log "MoriTags/internal/log"
	"MoriTags/internal/models"
)

// Service 持久化的自定义标签，所有操作都按 user_id 过滤
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ListCustomTags 获取用户的自定义标签，按名称排序
func (s *Service) ListCustomTags(ctx context.Context, ownerID int64) ([]CustomTag, error) {
	var rows []models.CustomTag
	err := s.db.WithContext(ctx).Where("user_id = ?", ownerID).Order("name").Find(&rows).Error
	if err != nil {
		log.WithFields(log.Fields{"owner": ownerID}).Errorf("查询自定义标签失败: %v", err)
		return nil, domainerrors.Storage(err)
	}

	tags := make([]CustomTag, 0, len(rows))
	for _, row := range rows {
		tags = append(tags, fromModel(row))
	}
	return tags, nil
}

// AddCustomTag 添加自定义标签；同名标签已存在时直接返回
func (s *Service) AddCustomTag(ctx context.Context, ownerID int64, req AddRequest) (*CustomTag, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}

	// 先查后插，并发重复添加可能产生重复行
	var existing models.CustomTag
	err = s.db.WithContext(ctx).Where("user_id = ? AND name = ?", ownerID, req.Name).First(&existing).Error
	if err == nil {
		tag := fromModel(existing)
		return &tag, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.Storage(err)
	}

	row := models.CustomTag{
		UserID:   ownerID,
		Name:     req.Name,
		Category: &req.Category,
		NameZH:   &req.NameZH,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		log.WithFields(log.Fields{"owner": ownerID}).Errorf("创建自定义标签失败: %v", err)
		return nil, domainerrors.Storage(err)
	}

	tag := fromModel(row)
	return &tag, nil
}

// DeleteCustomTag 删除自定义标签，id 与 user_id 同时匹配才会删除
func (s *Service) DeleteCustomTag(ctx context.Context, ownerID, id int64) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).Delete(&models.CustomTag{})
	if result.Error != nil {
		return domainerrors.Storage(result.Error)
	}
	if result.RowsAffected == 0 {
		log.Debugf("自定义标签 %d 不存在或不属于用户 %d，忽略删除", id, ownerID)
	}
	return nil
}

// ForOwner 绑定归属用户，得到 Store
func (s *Service) ForOwner(ownerID int64) Store {
	return &ownerStore{svc: s, ownerID: ownerID}
}

type ownerStore struct {
	svc     *Service
	ownerID int64
}

func (o *ownerStore) List(ctx context.Context) ([]CustomTag, error) {
	return o.svc.ListCustomTags(ctx, o.ownerID)
}

func (o *ownerStore) Add(ctx context.Context, req AddRequest) (*CustomTag, error) {
	return o.svc.AddCustomTag(ctx, o.ownerID, req)
}

func (o *ownerStore) Delete(ctx context.Context, id int64) error {
	return o.svc.DeleteCustomTag(ctx, o.ownerID, id)
}

func fromModel(row models.CustomTag) CustomTag {
	return CustomTag{
		ID:       row.ID,
		UserID:   row.UserID,
		Name:     row.Name,
		Category: models.StringValue(row.Category),
		NameZH:   models.StringValue(row.NameZH),
		IsCustom: true,
	}
}
