// Логгер приложения: zap (production/development) и, если задан LOG_DIR, копия в файл с ротацией.
package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/parceltrack/backend/internal/config"
)

const fileName = "parceltrack.log"

// New строит логгер по APP_ENV; при cfg.Log.Dir пишет ещё и JSON в ротируемый файл.
func New(appEnv string, cfg config.Log) (*zap.Logger, error) {
	var (
		base *zap.Logger
		err  error
	)
	if appEnv == "local" {
		base, err = zap.NewDevelopment()
	} else {
		base, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	if cfg.Dir == "" {
		return base, nil
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}
	return base.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore(cfg))
	})), nil
}

func fileCore(cfg config.Log) zapcore.Core {
	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, fileName),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	})
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return zapcore.NewCore(enc, w, zap.InfoLevel)
}
