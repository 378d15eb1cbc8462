package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	// 纯 Go 驱动，注册为 "sqlite"
	_ "modernc.org/sqlite"

	log "MoriTags/internal/log"
	"MoriTags/internal/models"
)

// Open 按配置打开数据库连接
func Open(config DBConfig) (*gorm.DB, error) {
	if dir := filepath.Dir(config.Database); dir != "." && dir != "" {
		if err := ensureDir(dir); err != nil {
			return nil, fmt.Errorf("创建数据库目录失败: %w", err)
		}
	}

	dialector := sqlite.Dialector{DriverName: config.Driver, DSN: config.BuildDSN()}
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(config.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层连接失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(config.MaxLifetime)
	sqlDB.SetConnMaxIdleTime(config.MaxIdleTime)

	return gormDB, nil
}

// EnsureSchema 确保 users / tags / custom_tags / collections 四张表存在。
// 仅由 cmd 入口在启动时调用，存储服务本身从不修改表结构。
func EnsureSchema(gormDB *gorm.DB) error {
	if err := gormDB.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("初始化数据库表结构失败: %w", err)
	}
	log.Debug("数据库表结构已就绪")
	return nil
}

// Close 关闭数据库连接
func Close(gormDB *gorm.DB) error {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return logger.Silent
	}
}

// ensureDir 确保目录存在，如果不存在则创建
func ensureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		log.Infof("创建目录: %s", dir)
		return os.MkdirAll(dir, 0755)
	}
	return nil
}
