package postgres

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/bafnalights-dot/stock/platform/logger"
	tcconst "github.com/bafnalights-dot/stock/platform/testcontainers"
)

type Logger interface {
	Info(ctx context.Context, msg string, fields ...zap.Field)
	Error(ctx context.Context, msg string, fields ...zap.Field)
}

type Config struct {
	ImageName      string
	Database       string
	Username       string
	Password       string
	StartupTimeout time.Duration
	Logger         Logger

	DSN string
}

func buildConfig(opts ...Option) *Config {
	cfg := &Config{
		ImageName:      tcconst.PostgresImageName,
		Database:       tcconst.PostgresDatabase,
		Username:       tcconst.PostgresUser,
		Password:       tcconst.PostgresPassword,
		StartupTimeout: time.Minute,
		Logger:         &logger.NoopLogger{},
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}
