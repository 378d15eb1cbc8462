package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const dayLayout = "2006-01-02"

// FileLogger 按天切分的日志文件：<baseDir>/<日期>.log，超过保留天数的文件每天清理一次
type FileLogger struct {
	baseDir       string
	retentionDays int
	now           func() time.Time

	mu   sync.Mutex
	file *os.File
	day  string

	stop chan struct{}
	once sync.Once
}

// NewFileLogger 创建文件日志，retentionDays <= 0 时不清理
func NewFileLogger(baseDir string, retentionDays int) (*FileLogger, error) {
	return newFileLogger(baseDir, retentionDays, time.Now)
}

func newFileLogger(baseDir string, retentionDays int, now func() time.Time) (*FileLogger, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("创建日志目录失败: %w", err)
	}

	fl := &FileLogger{
		baseDir:       baseDir,
		retentionDays: retentionDays,
		now:           now,
		stop:          make(chan struct{}),
	}
	go fl.startPeriodicTasks()
	return fl, nil
}

// EnableFileOutput 日志同时写到标准输出与按天切分的文件
func EnableFileOutput(baseDir string, retentionDays int) (*FileLogger, error) {
	fl, err := NewFileLogger(baseDir, retentionDays)
	if err != nil {
		return nil, err
	}
	SetOutput(io.MultiWriter(os.Stdout, fl))
	Infof("日志文件目录: %s，保留 %d 天", baseDir, retentionDays)
	return fl, nil
}

// Write 实现 io.Writer，跨天时切换到新文件
func (fl *FileLogger) Write(p []byte) (int, error) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	day := fl.now().Format(dayLayout)
	if fl.file == nil || fl.day != day {
		if fl.file != nil {
			fl.file.Close()
		}
		file, err := os.OpenFile(filepath.Join(fl.baseDir, day+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fl.file = nil
			return 0, err
		}
		fl.file = file
		fl.day = day
	}
	return fl.file.Write(p)
}

// startPeriodicTasks 启动定期任务
func (fl *FileLogger) startPeriodicTasks() {
	fl.Cleanup()

	cleanupTicker := time.NewTicker(24 * time.Hour)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-cleanupTicker.C:
			fl.Cleanup()
		case <-fl.stop:
			return
		}
	}
}

// Cleanup 删除过期日志文件，返回删除数量
func (fl *FileLogger) Cleanup() int {
	if fl.retentionDays <= 0 {
		return 0
	}

	cutoff := fl.now().AddDate(0, 0, -fl.retentionDays).Format(dayLayout)
	entries, err := os.ReadDir(fl.baseDir)
	if err != nil {
		// 这里不能写日志，否则可能递归回到 Write
		return 0
	}

	deleted := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".log") {
			continue
		}
		day := strings.TrimSuffix(name, ".log")
		if _, err := time.Parse(dayLayout, day); err != nil {
			continue
		}
		// 日期格式固定，字符串比较即时间先后
		if day < cutoff {
			if os.Remove(filepath.Join(fl.baseDir, name)) == nil {
				deleted++
			}
		}
	}
	return deleted
}

// Close 关闭当前文件并停止清理任务
func (fl *FileLogger) Close() error {
	fl.once.Do(func() { close(fl.stop) })

	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.file == nil {
		return nil
	}
	err := fl.file.Close()
	fl.file = nil
	return err
}
