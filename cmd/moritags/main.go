package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"MoriTags/internal/auth"
	"MoriTags/internal/config"
	dbPkg "MoriTags/internal/db"
	"MoriTags/internal/device"
	"MoriTags/internal/guest"
	log "MoriTags/internal/log"
	"MoriTags/internal/tag"
)

// Version 会在构建时通过 -ldflags "-X main.Version=xxx" 注入
var Version = "dev"

// 存储后端
const (
	backendFile   = "file"
	backendBadger = "badger"
)

var (
	dbPath       string
	statePath    string
	stateBackend string
	logLevel     string
	offline      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "moritags",
		Short:         "Browse tags, build prompts and keep collections",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return log.SetLogLevel(logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite 数据库路径 (默认读取 DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&statePath, "state", "", "本设备状态路径 (默认 ~/.moritags/state.json，badger 后端为 ~/.moritags/state.badger)")
	rootCmd.PersistentFlags().StringVar(&stateBackend, "state-backend", backendFile, "本设备状态存储 (file, badger)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "WARN", "日志级别 (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "不连接数据库，只使用本设备数据")

	rootCmd.AddCommand(tagsCmd())
	rootCmd.AddCommand(categoriesCmd())
	rootCmd.AddCommand(toggleCmd())
	rootCmd.AddCommand(removeCmd())
	rootCmd.AddCommand(clearCmd())
	rootCmd.AddCommand(promptCmd())
	rootCmd.AddCommand(saveCmd())
	rootCmd.AddCommand(collectionsCmd())
	rootCmd.AddCommand(loadCmd())
	rootCmd.AddCommand(deleteCollectionCmd())
	rootCmd.AddCommand(customCmd())
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(settingsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// session 一次命令执行期间打开的资源
type session struct {
	*device.Device
	closers []func() error
}

func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Warnf("释放资源失败: %v", err)
		}
	}
}

// openSession 打开本设备存储与数据库
func openSession() (*session, error) {
	cfg, err := config.Load(nil)
	if err != nil {
		return nil, err
	}

	s := &session{}
	local, err := openLocal()
	if err != nil {
		return nil, err
	}
	if closer, ok := local.(interface{ Close() error }); ok {
		s.closers = append(s.closers, closer.Close)
	}

	opts := device.Options{
		Local:    local,
		Sessions: auth.NewSessions(cfg.Session.Secret, cfg.Session.TTL),
	}

	opts.Priority, err = tag.LoadPriorityTable(cfg.Catalog.PriorityFile)
	if err != nil {
		s.Close()
		return nil, err
	}
	opts.Credentials, err = auth.NewCredentials(cfg.Session.CredentialMode)
	if err != nil {
		s.Close()
		return nil, err
	}

	if !offline {
		dbConfig := cfg.DB
		if dbPath != "" {
			dbConfig.Database = dbPath
		}
		gormDB, err := dbPkg.Open(dbConfig)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, func() error { return dbPkg.Close(gormDB) })
		if err := dbPkg.EnsureSchema(gormDB); err != nil {
			s.Close()
			return nil, err
		}
		opts.DB = gormDB
	}

	s.Device = device.New(opts)
	return s, nil
}

func openLocal() (guest.KV, error) {
	path := statePath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".moritags", "state.json")
		if stateBackend == backendBadger {
			path = filepath.Join(home, ".moritags", "state.badger")
		}
	}

	switch stateBackend {
	case backendFile:
		return guest.NewFileKV(path), nil
	case backendBadger:
		return guest.OpenBadgerKV(path)
	default:
		return nil, fmt.Errorf("unknown state backend: %s", stateBackend)
	}
}
