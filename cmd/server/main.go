package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"MoriTags/internal/auth"
	"MoriTags/internal/config"
	dbPkg "MoriTags/internal/db"
	"MoriTags/internal/events"
	log "MoriTags/internal/log"
	"MoriTags/internal/router"
	"MoriTags/internal/tag"
)

// Version 会在构建时通过 -ldflags "-X main.Version=xxx" 注入
var Version = "dev"

func main() {
	// 命令行参数处理
	flags := config.RegisterFlags(flag.CommandLine)
	versionFlag := flag.Bool("version", false, "显示版本信息")
	vFlag := flag.Bool("v", false, "显示版本信息")
	flag.Parse()

	// 如果指定了版本参数，显示版本信息后退出
	if *versionFlag || *vFlag {
		fmt.Printf("MoriTags %s\n", Version)
		fmt.Printf("Go version: %s\n", runtime.Version())
		fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		return
	}

	cfg, err := config.Load(flags)
	if err != nil {
		log.Errorf("加载配置失败: %v", err)
		os.Exit(1)
	}

	// 设置日志级别
	if err := log.SetLogLevel(cfg.LogLevel); err != nil {
		log.Errorf("设置日志级别失败: %v", err)
	}

	if cfg.LogDir != "" {
		fileLogger, err := log.EnableFileOutput(cfg.LogDir, cfg.LogRetentionDays)
		if err != nil {
			log.Errorf("启用日志文件失败: %v", err)
		} else {
			defer fileLogger.Close()
		}
	}

	if err := run(cfg); err != nil {
		log.Errorf("服务异常退出: %v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	// 获取GORM数据库连接
	gormDB, err := dbPkg.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbPkg.Close(gormDB); err != nil {
			log.Errorf("关闭数据库连接失败: %v", err)
		}
	}()
	if err := dbPkg.EnsureSchema(gormDB); err != nil {
		return err
	}
	log.Info("数据库连接成功")

	priority, err := tag.LoadPriorityTable(cfg.Catalog.PriorityFile)
	if err != nil {
		return err
	}

	credentials, err := auth.NewCredentials(cfg.Session.CredentialMode)
	if err != nil {
		return err
	}
	if cfg.Session.CredentialMode == config.CredentialModePlain {
		log.Warnf("凭据以明文方式比对，生产环境建议设置 CREDENTIAL_MODE=bcrypt")
	}

	if cfg.UsesDefaultSecret() {
		log.Warnf("SESSION_SECRET 未设置，正在使用公开的默认密钥，任何人都可伪造会话令牌")
	}

	// 通知中心需先于路由创建
	hub := events.NewHub()
	defer hub.Close()

	handler := router.SetupRouter(router.Options{
		DB:           gormDB,
		Sessions:     auth.NewSessions(cfg.Session.Secret, cfg.Session.TTL),
		Credentials:  credentials,
		Priority:     priority,
		Hub:          hub,
		CookieSecure: cfg.Session.CookieSecure || cfg.TLSEnabled(),

		BlockPrivateImageHosts: cfg.Catalog.BlockPrivateImageHosts,
		CatalogCacheTTL:        cfg.Catalog.CacheTTL,
	})

	// 创建HTTP服务器
	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)

	// 启动HTTP/HTTPS服务器
	go func() {
		if cfg.TLSEnabled() {
			log.Infof("MoriTags[%s] 启动在 https://localhost:%s (TLS)", Version, cfg.Server.Port)
			serverErr <- server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile)
			return
		}

		log.Infof("MoriTags[%s] 启动在 http://localhost:%s", Version, cfg.Server.Port)
		serverErr <- server.ListenAndServe()
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP 服务器错误: %w", err)
		}
		return nil
	case <-quit:
	}

	log.Infof("正在关闭服务器...")

	// 先断开 SSE 长连接，否则 Shutdown 会一直等待
	hub.Close()

	// 优雅关闭HTTP服务器
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("服务器关闭错误: %v", err)
	}

	log.Infof("服务器已关闭")
	return nil
}
