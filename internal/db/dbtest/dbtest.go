// Package dbtest 为存储层测试提供临时 SQLite 数据库
package dbtest

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"MoriTags/internal/db"
)

// New 在 t.TempDir() 下创建数据库并建表，测试结束自动关闭
func New(t testing.TB) *gorm.DB {
	t.Helper()

	config := db.DefaultDBConfig()
	config.Database = filepath.Join(t.TempDir(), "test.db")

	gormDB, err := db.Open(config)
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	if err := db.EnsureSchema(gormDB); err != nil {
		t.Fatalf("初始化测试数据库失败: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(gormDB) })
	return gormDB
}

// Closed 返回已关闭连接的数据库，用于模拟存储不可用
func Closed(t testing.TB) *gorm.DB {
	t.Helper()

	gormDB := New(t)
	if err := db.Close(gormDB); err != nil {
		t.Fatalf("关闭测试数据库失败: %v", err)
	}
	return gormDB
}
