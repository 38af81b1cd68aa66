// Package logger 全局 zap logger：stdout JSON 输出，可选 lumberjack 轮转文件。
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	globalLogger *zap.Logger
	helperLogger *zap.Logger // 给 Debug/Info 等包级函数用，跳过一层调用栈
	once         sync.Once
)

// Config 日志配置，Level 取 debug/info/warn/error，为空按 info
type Config struct {
	Level      string
	OutputPath string // 为空时只写 stdout
	MaxSize    int    // MB
	MaxBackups int
	MaxAge     int // 天
	Compress   bool
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// Build 按配置构建 logger，不修改全局状态
func Build(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	enc := zapcore.NewJSONEncoder(encoderConfig())
	cores := []zapcore.Core{zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), level)}

	if cfg.OutputPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		rotating := &lumberjack.Logger{
			Filename:   cfg.OutputPath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(enc.Clone(), zapcore.AddSync(rotating), level))
	}

	return zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	), nil
}

// InitLogger 初始化全局 logger，只生效一次
func InitLogger(cfg Config) error {
	var err error
	once.Do(func() {
		var l *zap.Logger
		if l, err = Build(cfg); err == nil {
			ReplaceGlobal(l)
		}
	})
	return err
}

// ReplaceGlobal 测试里换成 zaptest/observer
func ReplaceGlobal(l *zap.Logger) {
	globalLogger = l
	helperLogger = nil
	if l != nil {
		helperLogger = l.WithOptions(zap.AddCallerSkip(1))
	}
}

func helper() *zap.Logger {
	if helperLogger == nil {
		return zap.NewNop()
	}
	return helperLogger
}

// L 未初始化时返回 no-op logger
func L() *zap.Logger {
	if globalLogger == nil {
		return zap.NewNop()
	}
	return globalLogger
}

// With 带固定字段的子 logger，调用时绑定当前全局 logger
func With(fields ...zap.Field) *zap.Logger {
	return L().With(fields...)
}

func Sync() error {
	if globalLogger == nil {
		return nil
	}
	return globalLogger.Sync()
}

func Debug(msg string, fields ...zap.Field) { helper().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { helper().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { helper().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { helper().Error(msg, fields...) }

// Fatal 记录后 os.Exit(1)
func Fatal(msg string, fields ...zap.Field) { helper().Fatal(msg, fields...) }

func String(key, val string) zap.Field                 { return zap.String(key, val) }
func Int(key string, val int) zap.Field                { return zap.Int(key, val) }
func Int64(key string, val int64) zap.Field            { return zap.Int64(key, val) }
func Duration(key string, val time.Duration) zap.Field { return zap.Duration(key, val) }
func ErrorField(err error) zap.Field                   { return zap.Error(err) }
