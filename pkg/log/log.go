// Package log wraps logrus behind package-level helpers so callers do
// not have to thread a logger through every constructor.
package log

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger *logrus.Logger

// Config controls level, format and destination of the shared logger.
type Config struct {
	Level      string `json:"level"`       // debug, info, warn, error
	Format     string `json:"format"`      // json or text
	Output     string `json:"output"`      // stdout or file
	Filename   string `json:"filename"`    // log file path when output is file
	MaxSize    int    `json:"max_size"`    // MB per file before rotation
	MaxAge     int    `json:"max_age"`     // days to retain rotated files
	MaxBackups int    `json:"max_backups"` // rotated files to retain
	Compress   bool   `json:"compress"`    // gzip rotated files
}

// Init builds the shared logger. An unknown level falls back to info
// rather than failing startup.
func Init(cfg Config) error {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	l.SetFormatter(newFormatter(cfg.Format))

	out, err := newOutput(cfg)
	if err != nil {
		return err
	}
	l.SetOutput(out)

	logger = l
	return nil
}

func newFormatter(format string) logrus.Formatter {
	if format == "json" {
		return &logrus.JSONFormatter{TimestampFormat: time.RFC3339}
	}
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	}
}

func newOutput(cfg Config) (io.Writer, error) {
	if cfg.Output != "file" || cfg.Filename == "" {
		return os.Stdout, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Filename), 0o755); err != nil {
		return nil, err
	}
	return &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxAge,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	}, nil
}

// GetLogger returns the shared logger, creating a default one if Init
// has not run yet. Tests rely on the lazy path.
func GetLogger() *logrus.Logger {
	if logger == nil {
		logger = logrus.New()
	}
	return logger
}

func Debug(args ...interface{}) { GetLogger().Debug(args...) }

func Debugf(format string, args ...interface{}) { GetLogger().Debugf(format, args...) }

func Info(args ...interface{}) { GetLogger().Info(args...) }

func Infof(format string, args ...interface{}) { GetLogger().Infof(format, args...) }

func Warn(args ...interface{}) { GetLogger().Warn(args...) }

func Warnf(format string, args ...interface{}) { GetLogger().Warnf(format, args...) }

func Error(args ...interface{}) { GetLogger().Error(args...) }

func Errorf(format string, args ...interface{}) { GetLogger().Errorf(format, args...) }

// Fatal logs and then exits the process.
func Fatal(args ...interface{}) { GetLogger().Fatal(args...) }

// Fatalf logs and then exits the process.
func Fatalf(format string, args ...interface{}) { GetLogger().Fatalf(format, args...) }

// WithField returns an entry carrying one structured field.
func WithField(key string, value interface{}) *logrus.Entry {
	return GetLogger().WithField(key, value)
}

// WithFields returns an entry carrying the given structured fields.
func WithFields(fields map[string]interface{}) *logrus.Entry {
	return GetLogger().WithFields(fields)
}

// WithError returns an entry carrying the error under the "error" key.
func WithError(err error) *logrus.Entry {
	return GetLogger().WithError(err)
}
