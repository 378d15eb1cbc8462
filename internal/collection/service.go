package collection

import (
	"context"
	"errors"

	"gorm.io/gorm"

	domainerrors "MoriTags/internal/errors"
	log "MoriTags/internal/log"
	"MoriTags/internal/models"
	"MoriTags/internal/selection"
)

// Service 持久化的收藏夹，所有操作都按 user_id 过滤
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// SaveCollection 新建收藏夹
func (s *Service) SaveCollection(ctx context.Context, ownerID int64, req SaveRequest) (*Collection, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}

	row := models.Collection{
		UserID:     ownerID,
		Name:       req.Name,
		TagsString: req.Tags,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		log.WithFields(log.Fields{"owner": ownerID}).Errorf("保存收藏夹失败: %v", err)
		return nil, domainerrors.Storage(err)
	}

	c := fromModel(row)
	return &c, nil
}

// ListCollections 获取用户的收藏夹，最新创建的在前
func (s *Service) ListCollections(ctx context.Context, ownerID int64) ([]Collection, error) {
	var rows []models.Collection
	err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		log.WithFields(log.Fields{"owner": ownerID}).Errorf("查询收藏夹失败: %v", err)
		return nil, domainerrors.Storage(err)
	}

	list := make([]Collection, 0, len(rows))
	for _, row := range rows {
		list = append(list, fromModel(row))
	}
	return list, nil
}

// GetCollection 获取单个收藏夹；不属于该用户时同样返回 NotFound
func (s *Service) GetCollection(ctx context.Context, ownerID, id int64) (*Collection, error) {
	var row models.Collection
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.NotFound("Collection not found")
		}
		return nil, domainerrors.Storage(err)
	}

	c := fromModel(row)
	return &c, nil
}

// DeleteCollection 删除收藏夹，id 与 user_id 同时匹配才会删除
func (s *Service) DeleteCollection(ctx context.Context, ownerID, id int64) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).Delete(&models.Collection{})
	if result.Error != nil {
		return domainerrors.Storage(result.Error)
	}
	if result.RowsAffected == 0 {
		log.Debugf("收藏夹 %d 不存在或不属于用户 %d，忽略删除", id, ownerID)
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

func (o *ownerStore) Save(ctx context.Context, req SaveRequest) (*Collection, error) {
	return o.svc.SaveCollection(ctx, o.ownerID, req)
}

func (o *ownerStore) List(ctx context.Context) ([]Collection, error) {
	return o.svc.ListCollections(ctx, o.ownerID)
}

func (o *ownerStore) Get(ctx context.Context, id int64) (*Collection, error) {
	return o.svc.GetCollection(ctx, o.ownerID, id)
}

func (o *ownerStore) Delete(ctx context.Context, id int64) error {
	return o.svc.DeleteCollection(ctx, o.ownerID, id)
}

func fromModel(row models.Collection) Collection {
	return Collection{
		ID:              row.ID,
		UserID:          row.UserID,
		Name:            row.Name,
		TagsString:      row.TagsString,
		TagsCount:       selection.Count(row.TagsString),
		PreviewImageURL: row.PreviewImageURL,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}
