package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"MoriTags/internal/db"
)

// 凭据校验模式
const (
	CredentialModePlain  = "plain"
	CredentialModeBcrypt = "bcrypt"
)

// Config 服务端配置
type Config struct {
	Server  ServerConfig
	Session SessionConfig
	Catalog CatalogConfig
	DB      db.DBConfig
	// 日志级别 (DEBUG, INFO, WARN, ERROR)
	LogLevel string
	// 日志文件目录，为空时只输出到标准输出
	LogDir string
	// 日志文件保留天数
	LogRetentionDays int
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port     string
	CertFile string
	KeyFile  string
}

// SessionConfig 会话与凭据配置
type SessionConfig struct {
	// 会话令牌签名密钥
	Secret string
	// 会话有效期
	TTL time.Duration
	// Cookie 是否只在 HTTPS 下发送
	CookieSecure bool
	// plain: 明文比对（默认）；bcrypt: 哈希比对
	CredentialMode string
}

// CatalogConfig 标签目录配置
type CatalogConfig struct {
	// 分类排序优先级 YAML 文件，为空时使用内置表
	PriorityFile string
	// 图片代理拒绝私有/回环地址
	BlockPrivateImageHosts bool
	// 系统标签缓存有效期，0 表示不缓存
	CacheTTL time.Duration
}

// Flags 命令行参数，由 RegisterFlags 注册
type Flags struct {
	Port           *string
	LogLevel       *string
	LogDir         *string
	CertFile       *string
	KeyFile        *string
	PriorityFile   *string
	CredentialMode *string
}

// RegisterFlags 在给定 FlagSet 上注册服务端参数（数据库参数同样在此注册，由 db.GetDBConfig 读取）
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{
		Port:           fs.String("port", "", "HTTP 服务端口 (优先级高于环境变量 PORT)，默认 3000"),
		LogLevel:       fs.String("log-level", "", "设置日志级别 (DEBUG, INFO, WARN, ERROR)"),
		LogDir:         fs.String("log-dir", "", "日志文件目录，按天切分"),
		CertFile:       fs.String("cert", "", "TLS 证书文件路径"),
		KeyFile:        fs.String("key", "", "TLS 私钥文件路径"),
		PriorityFile:   fs.String("category-priority", "", "分类排序优先级 YAML 文件"),
		CredentialMode: fs.String("credential-mode", "", "凭据校验模式 (plain, bcrypt)"),
	}
	db.RegisterFlags(fs)
	return f
}

// DefaultSessionSecret 未设置 SESSION_SECRET 时使用的签名密钥，公开值，仅供本地开发
const DefaultSessionSecret = "mori-tags-secret-key-change-me"

// UsesDefaultSecret 会话密钥是否仍为公开默认值
func (c *Config) UsesDefaultSecret() bool {
	return c.Session.Secret == DefaultSessionSecret
}

// Default 默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "3000"},
		Session: SessionConfig{
			Secret:         DefaultSessionSecret,
			TTL:            30 * 24 * time.Hour,
			CredentialMode: CredentialModePlain,
		},
		Catalog:          CatalogConfig{CacheTTL: 5 * time.Minute},
		DB:               db.DefaultDBConfig(),
		LogLevel:         "info",
		LogRetentionDays: 7,
	}
}

// Load 组装配置：默认值 < 环境变量 < 命令行参数
func Load(flags *Flags) (*Config, error) {
	cfg := Default()
	cfg.loadFromEnv()
	if flags != nil {
		cfg.loadFromFlags(flags)
	}
	cfg.DB = db.GetDBConfig()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_DIR"); v != "" {
		c.LogDir = v
	}
	if v := os.Getenv("LOG_RETENTION_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			c.LogRetentionDays = days
		}
	}
	if v := os.Getenv("TLS_CERT"); v != "" {
		c.Server.CertFile = v
	}
	if v := os.Getenv("TLS_KEY"); v != "" {
		c.Server.KeyFile = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		c.Session.Secret = v
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Session.TTL = d
		}
	}
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		c.Session.CookieSecure = v == "true" || v == "1"
	}
	if v := os.Getenv("CREDENTIAL_MODE"); v != "" {
		c.Session.CredentialMode = strings.ToLower(v)
	}
	if v := os.Getenv("CATEGORY_PRIORITY_FILE"); v != "" {
		c.Catalog.PriorityFile = v
	}
	if v := os.Getenv("CATALOG_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Catalog.CacheTTL = d
		}
	}
	if v := os.Getenv("IMAGE_PROXY_BLOCK_PRIVATE"); v != "" {
		c.Catalog.BlockPrivateImageHosts = v == "true" || v == "1"
	}
}

func (c *Config) loadFromFlags(f *Flags) {
	if f.Port != nil && *f.Port != "" {
		c.Server.Port = *f.Port
	}
	if f.LogLevel != nil && *f.LogLevel != "" {
		c.LogLevel = *f.LogLevel
	}
	if f.LogDir != nil && *f.LogDir != "" {
		c.LogDir = *f.LogDir
	}
	if f.CertFile != nil && *f.CertFile != "" {
		c.Server.CertFile = *f.CertFile
	}
	if f.KeyFile != nil && *f.KeyFile != "" {
		c.Server.KeyFile = *f.KeyFile
	}
	if f.PriorityFile != nil && *f.PriorityFile != "" {
		c.Catalog.PriorityFile = *f.PriorityFile
	}
	if f.CredentialMode != nil && *f.CredentialMode != "" {
		c.Session.CredentialMode = strings.ToLower(*f.CredentialMode)
	}
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("端口不能为空")
	}
	if (c.Server.CertFile == "") != (c.Server.KeyFile == "") {
		return fmt.Errorf("TLS 证书与私钥必须同时提供")
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("会话密钥不能为空")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("会话有效期必须大于0")
	}
	switch c.Session.CredentialMode {
	case CredentialModePlain, CredentialModeBcrypt:
	default:
		return fmt.Errorf("无效的凭据校验模式: %s", c.Session.CredentialMode)
	}
	return nil
}

// TLSEnabled 是否启用 HTTPS
func (c *Config) TLSEnabled() bool {
	return c.Server.CertFile != "" && c.Server.KeyFile != ""
}
