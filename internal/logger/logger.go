// internal/logger/logger.go
package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	File       string
	MaxSize    int  // мегабайты
	MaxAge     int  // дни
	MaxBackups int  // количество файлов
	Compress   bool // сжимать ротированные файлы
	Debug      bool
	// Console – куда писать человекочитаемый вывод; nil отключает консоль.
	Console io.Writer
	// Ring получает JSON-записи для дашборда.
	Ring *Ring
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() Config {
	return Config{
		File:       "wallet.log",
		MaxSize:    10,
		MaxAge:     7,
		MaxBackups: 3,
		Compress:   true,
		Console:    os.Stderr,
	}
}

// Logger расширяет zap.Logger операциями кошелька.
type Logger struct {
	*zap.Logger
	rotator *lumberjack.Logger
}

// New строит tee: красивый вывод в консоль, JSON в файл с ротацией и,
// при наличии, JSON в кольцевой буфер дашборда.
func New(cfg Config) (*Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Debug {
		level = zapcore.DebugLevel
	}

	var cores []zapcore.Core
	if cfg.Console != nil {
		cores = append(cores, newPrettyCore(zapcore.AddSync(cfg.Console), level))
	}

	l := &Logger{}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, err
		}
		l.rotator = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig()), zapcore.AddSync(l.rotator), level))
	}
	if cfg.Ring != nil {
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig()), zapcore.AddSync(cfg.Ring), level))
	}

	l.Logger = zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	return l, nil
}

func fileEncoderConfig() zapcore.EncoderConfig {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "timestamp"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	ec.EncodeDuration = zapcore.StringDurationEncoder
	ec.EncodeCaller = zapcore.ShortCallerEncoder
	return ec
}

// WithTransaction добавляет контекст транзакции к логам
func (l *Logger) WithTransaction(signature string) *zap.Logger {
	return l.With(
		zap.String("signature", signature),
		zap.Time("tx_time", time.Now().UTC()),
	)
}

// WithOperation создает логгер для конкретной операции
func (l *Logger) WithOperation(operation string) *zap.Logger {
	return l.With(
		zap.String("operation", operation),
		zap.String("correlation_id", uuid.New().String()),
	)
}

// TrackPerformance отслеживает длительность операции
func (l *Logger) TrackPerformance(operation string) (end func()) {
	start := time.Now()
	opLogger := l.WithOperation(operation)
	opLogger.Debug("Starting operation")

	return func() {
		duration := time.Since(start)
		opLogger.Debug("Operation completed",
			zap.Duration("duration", duration),
			zap.Float64("duration_ms", float64(duration.Microseconds())/1000),
		)
	}
}

// Sync сбрасывает буферы; ошибки sync для терминала игнорируются.
func (l *Logger) Sync() error {
	err := l.Logger.Sync()
	if err != nil && (err.Error() == "sync /dev/stdout: invalid argument" ||
		err.Error() == "sync /dev/stderr: invalid argument" ||
		err.Error() == "sync /dev/stderr: inappropriate ioctl for device" ||
		err.Error() == "sync /dev/stdout: inappropriate ioctl for device") {
		err = nil
	}
	if l.rotator != nil {
		if cerr := l.rotator.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
