package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	domainerrors "MoriTags/internal/errors"
	log "MoriTags/internal/log"
	"MoriTags/internal/models"
)

// Service 身份与凭据
type Service struct {
	db    *gorm.DB
	creds Credentials
}

// NewService 创建认证服务；creds 为 nil 时使用明文比较
func NewService(db *gorm.DB, creds Credentials) *Service {
	if creds == nil {
		creds = PlainCredentials{}
	}
	return &Service{db: db, creds: creds}
}

// Login 校验凭据。用户表为空且用户名为 admin 时，以提交的凭据创建管理员。
// 用户不存在与密码错误返回同一个错误。
func (s *Service) Login(ctx context.Context, username, password string) (*Identity, error) {
	if username == "" || password == "" {
		return nil, domainerrors.Validation("Username and password are required")
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err == nil {
		if !s.creds.Verify(user.PasswordHash, password) {
			log.Debugf("用户 %s 登录失败", username)
			return nil, domainerrors.InvalidCredentials()
		}
		return toIdentity(user), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.Storage(err)
	}

	if username != BootstrapUsername {
		return nil, domainerrors.InvalidCredentials()
	}
	return s.bootstrap(ctx, username, password)
}

// bootstrap 首次运行创建管理员
func (s *Service) bootstrap(ctx context.Context, username, password string) (*Identity, error) {
	encoded, err := s.creds.Encode(password)
	if err != nil {
		return nil, domainerrors.Internal("凭据编码失败", err)
	}

	var created *models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		user := models.User{Username: username, PasswordHash: encoded, Role: RoleAdmin}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		created = &user
		return nil
	})
	if err != nil {
		return nil, domainerrors.Storage(err)
	}
	if created == nil {
		return nil, domainerrors.InvalidCredentials()
	}

	log.Infof("首次运行，已创建管理员账号 %s", username)
	return toIdentity(*created), nil
}

// GetUser 根据ID获取身份
func (s *Service) GetUser(ctx context.Context, id int64) (*Identity, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.NotFound("User not found")
		}
		return nil, domainerrors.Storage(err)
	}
	return toIdentity(user), nil
}

// UpdateSettings 修改用户名和/或密码，需要当前密码
func (s *Service) UpdateSettings(ctx context.Context, userID int64, req SettingsRequest) (*Identity, error) {
	if req.OldPassword == "" {
		return nil, domainerrors.Validation("Current password is required to make changes.")
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.Storage(err)
	}
	if err != nil || !s.creds.Verify(user.PasswordHash, req.OldPassword) {
		return nil, domainerrors.Validation("Incorrect current password.")
	}

	updates := make(map[string]interface{})

	newUsername := strings.TrimSpace(req.NewUsername)
	if newUsername != "" && newUsername != user.Username {
		var taken int64
		err := s.db.WithContext(ctx).Model(&models.User{}).
			Where("username = ? AND id <> ?", newUsername, userID).
			Count(&taken).Error
		if err != nil {
			return nil, domainerrors.Storage(err)
		}
		if taken > 0 {
			return nil, domainerrors.Validation("Username already taken.")
		}
		updates["username"] = newUsername
	}

	if strings.TrimSpace(req.NewPassword) != "" {
		encoded, err := s.creds.Encode(req.NewPassword)
		if err != nil {
			return nil, domainerrors.Internal("凭据编码失败", err)
		}
		updates["password_hash"] = encoded
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "unique") {
				return nil, domainerrors.Validation("Username already taken.")
			}
			return nil, domainerrors.Storage(err)
		}
		log.Infof("用户 %d 更新了账号设置", userID)
	}

	return s.GetUser(ctx, userID)
}

func toIdentity(user models.User) *Identity {
	role := user.Role
	if role == "" {
		role = RoleUser
	}
	return &Identity{ID: user.ID, Username: user.Username, Role: role}
}
