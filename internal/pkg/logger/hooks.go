package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"neovuln/internal/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// typedLogFiles 日志类型与文件名的对应关系，未列出的类型写入主日志文件
var typedLogFiles = map[LogType]string{
	AccessLog:   "access.log",
	BusinessLog: "business.log",
	ErrorLog:    "error.log",
	SystemLog:   "system.log",
	AuditLog:    "audit.log",
	DebugLog:    "debug.log",
}

// FileHook 按日志条目的 type 字段把日志分发到不同文件
type FileHook struct {
	logConfig *config.LogConfig
	writers   map[string]io.Writer
	formatter logrus.Formatter
	mutex     sync.Mutex
}

// NewFileHook 创建FileHook，主日志文件立即打开，分类文件在首次写入时创建
func NewFileHook(logConfig *config.LogConfig) *FileHook {
	hook := &FileHook{
		logConfig: logConfig,
		writers:   make(map[string]io.Writer),
		formatter: &logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05.000",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
				logrus.FieldKeyFunc:  "function",
				logrus.FieldKeyFile:  "file",
			},
		},
	}

	if logConfig.FilePath != "" {
		hook.writers["default"] = hook.newRotatingWriter(logConfig.FilePath)
	}

	return hook
}

// newRotatingWriter 创建按大小滚动的文件writer
func (hook *FileHook) newRotatingWriter(filename string) io.Writer {
	_ = os.MkdirAll(filepath.Dir(filename), 0755)
	return &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    hook.logConfig.MaxSize,
		MaxBackups: hook.logConfig.MaxBackups,
		MaxAge:     hook.logConfig.MaxAge,
		Compress:   hook.logConfig.Compress,
	}
}

// Levels 返回此Hook关心的所有日志级别
func (hook *FileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire 在日志触发时执行
func (hook *FileHook) Fire(entry *logrus.Entry) error {
	logType := "default"
	switch t := entry.Data["type"].(type) {
	case LogType:
		logType = string(t)
	case string:
		logType = t
	}

	formatted, err := hook.formatter.Format(entry)
	if err != nil {
		return err
	}

	hook.mutex.Lock()
	defer hook.mutex.Unlock()

	writer := hook.writerFor(logType)
	if writer == nil {
		return nil
	}
	_, err = writer.Write(formatted)
	return err
}

// writerFor 获取指定类型的writer，调用方需持有锁
func (hook *FileHook) writerFor(logType string) io.Writer {
	if writer, exists := hook.writers[logType]; exists {
		return writer
	}

	name, ok := typedLogFiles[LogType(logType)]
	if !ok || hook.logConfig.FilePath == "" {
		return hook.writers["default"]
	}

	writer := hook.newRotatingWriter(filepath.Join(filepath.Dir(hook.logConfig.FilePath), name))
	hook.writers[logType] = writer
	return writer
}
