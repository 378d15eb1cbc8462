package db

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	log "MoriTags/internal/log"
)

const (
	// DriverCGO mattn/go-sqlite3（gorm 默认驱动）
	DriverCGO = "sqlite3"
	// DriverPure modernc.org/sqlite，无需 cgo
	DriverPure = "sqlite"
)

// DBConfig SQLite数据库配置结构
type DBConfig struct {
	Database     string        // SQLite数据库文件路径
	Driver       string        // 驱动名：sqlite3 / sqlite
	MaxOpenConns int           // 最大打开连接数
	MaxIdleConns int           // 最大空闲连接数
	MaxLifetime  time.Duration // 连接最大生命周期
	MaxIdleTime  time.Duration // 空闲连接最大生命周期
	LogLevel     string        // gorm 日志级别
	WALMode      bool          // 是否启用WAL模式
}

// DefaultDBConfig 默认配置
func DefaultDBConfig() DBConfig {
	return DBConfig{
		Database:     "public/moritags.db",
		Driver:       DriverCGO,
		MaxOpenConns: 10, // SQLite推荐的连接数较小
		MaxIdleConns: 5,
		MaxLifetime:  5 * time.Minute,
		MaxIdleTime:  2 * time.Minute,
		LogLevel:     "silent",
		WALMode:      true,
	}
}

// GetDBConfig 获取数据库配置：默认值 < 环境变量 < 命令行参数
func GetDBConfig() DBConfig {
	config := DefaultDBConfig()

	loadFromEnv(&config)
	loadFromFlags(&config)

	if err := validateConfig(&config); err != nil {
		log.Errorf("数据库配置验证失败: %v，使用默认配置", err)
		config = DefaultDBConfig()
	}

	log.Infof("数据库配置: %s (%s)", config.Database, config.Driver)
	return config
}

// RegisterFlags 注册数据库相关命令行参数
func RegisterFlags(fs *flag.FlagSet) {
	fs.String("db-path", "", "SQLite 数据库文件路径")
	fs.String("db-driver", "", "SQLite 驱动 (sqlite3, sqlite)")
	fs.Int("db-max-open", 0, "最大打开连接数")
	fs.Int("db-max-idle", 0, "最大空闲连接数")
	fs.String("db-log-level", "", "数据库日志级别")
	fs.Bool("db-wal-mode", true, "是否启用WAL模式")
}

// loadFromFlags 从命令行参数加载配置，只读取显式设置过的 flag
func loadFromFlags(config *DBConfig) {
	if !flag.Parsed() {
		return
	}
	loadFromFlagSet(config, flag.CommandLine)
}

func loadFromFlagSet(config *DBConfig, fs *flag.FlagSet) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db-path":
			config.Database = f.Value.String()
		case "db-driver":
			config.Driver = f.Value.String()
		case "db-max-open":
			if val, err := strconv.Atoi(f.Value.String()); err == nil {
				config.MaxOpenConns = val
			}
		case "db-max-idle":
			if val, err := strconv.Atoi(f.Value.String()); err == nil {
				config.MaxIdleConns = val
			}
		case "db-log-level":
			config.LogLevel = f.Value.String()
		case "db-wal-mode":
			config.WALMode = f.Value.String() == "true"
		}
	})
}

// loadFromEnv 从环境变量加载配置
func loadFromEnv(config *DBConfig) {
	if value := os.Getenv("DB_PATH"); value != "" {
		config.Database = value
	}
	if value := os.Getenv("DB_DRIVER"); value != "" {
		config.Driver = value
	}
	if value := os.Getenv("DB_MAX_OPEN_CONNS"); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			config.MaxOpenConns = intVal
		}
	}
	if value := os.Getenv("DB_MAX_IDLE_CONNS"); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			config.MaxIdleConns = intVal
		}
	}
	if value := os.Getenv("DB_MAX_LIFETIME"); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			config.MaxLifetime = duration
		}
	}
	if value := os.Getenv("DB_MAX_IDLE_TIME"); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			config.MaxIdleTime = duration
		}
	}
	if value := os.Getenv("DB_LOG_LEVEL"); value != "" {
		config.LogLevel = value
	}
	if value := os.Getenv("DB_WAL_MODE"); value != "" {
		config.WALMode = value == "true"
	}
}

// validateConfig 验证配置的有效性
func validateConfig(config *DBConfig) error {
	if config.Database == "" {
		return fmt.Errorf("数据库文件路径不能为空")
	}
	if config.Driver != DriverCGO && config.Driver != DriverPure {
		return fmt.Errorf("不支持的数据库驱动: %s", config.Driver)
	}
	if config.MaxOpenConns <= 0 {
		return fmt.Errorf("最大连接数必须大于0")
	}
	if config.MaxIdleConns <= 0 {
		return fmt.Errorf("最大空闲连接数必须大于0")
	}
	if config.MaxIdleConns > config.MaxOpenConns {
		return fmt.Errorf("最大空闲连接数不能超过最大连接数")
	}
	return nil
}

// BuildDSN 构建SQLite连接字符串，两种驱动的参数语法不同
func (c *DBConfig) BuildDSN() string {
	if c.Driver == DriverPure {
		dsn := "file:" + c.Database + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)"
		if c.WALMode {
			dsn += "&_pragma=journal_mode(WAL)"
		}
		return dsn
	}

	dsn := c.Database + "?_foreign_keys=on&_busy_timeout=10000"
	if c.WALMode {
		dsn += "&_journal_mode=WAL"
	}
	return dsn
}

// PrintConfig 打印配置信息
func (c *DBConfig) PrintConfig() {
	log.Infof("SQLite数据库配置:")
	log.Infof("  数据库文件: %s", c.Database)
	log.Infof("  驱动: %s", c.Driver)
	log.Infof("  最大连接数: %d", c.MaxOpenConns)
	log.Infof("  最大空闲连接数: %d", c.MaxIdleConns)
	log.Infof("  连接生命周期: %v", c.MaxLifetime)
	log.Infof("  空闲超时: %v", c.MaxIdleTime)
	log.Infof("  日志级别: %s", c.LogLevel)
	log.Infof("  WAL模式: %v", c.WALMode)
}
