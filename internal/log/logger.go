package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Fields 结构化日志字段
type Fields = logrus.Fields

var std = newLogger(os.Stdout)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return l
}

// SetLogLevel 设置日志级别 (DEBUG, INFO, WARN, ERROR)，大小写不敏感
func SetLogLevel(level string) error {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		std.SetLevel(logrus.DebugLevel)
	case "INFO", "":
		std.SetLevel(logrus.InfoLevel)
	case "WARN", "WARNING":
		std.SetLevel(logrus.WarnLevel)
	case "ERROR":
		std.SetLevel(logrus.ErrorLevel)
	default:
		return fmt.Errorf("未知的日志级别: %s", level)
	}
	return nil
}

// GetLogLevel 返回当前日志级别
func GetLogLevel() string {
	return strings.ToUpper(std.GetLevel().String())
}

// SetOutput 修改日志输出目标
func SetOutput(out io.Writer) {
	std.SetOutput(out)
}

// SetJSONFormat 切换为 JSON 格式输出（生产环境便于采集）
func SetJSONFormat() {
	std.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
}

// Logger 返回底层 logrus 实例
func Logger() *logrus.Logger {
	return std
}

// WithFields 携带结构化字段
func WithFields(fields Fields) *logrus.Entry {
	return std.WithFields(fields)
}

func Debug(args ...interface{}) { std.Debug(args...) }
func Info(args ...interface{})  { std.Info(args...) }
func Warn(args ...interface{})  { std.Warn(args...) }
func Error(args ...interface{}) { std.Error(args...) }

func Debugf(format string, args ...interface{}) { std.Debugf(format, args...) }
func Infof(format string, args ...interface{})  { std.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { std.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { std.Errorf(format, args...) }
