package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	envconfig "github.com/bafnalights-dot/stock/internal/config/env"
)

var cfg *config

type config struct {
	Server   Server
	Logger   Logger
	Storage  Storage
	Postgres Database
	Kafka    Kafka
	Redis    Redis
	SMTP     SMTP
	GRPC     GRPC
}

func Load(path ...string) error {
	const op = "config.Load"

	if shouldLoadDotenv() {
		if err := godotenv.Load(path...); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: load .env: %w", op, err)
		}
	}

	serverCfg, err := envconfig.NewHTTPServerConfig()
	if err != nil {
		return fmt.Errorf("%s Server: %w", op, err)
	}

	loggerCfg, err := envconfig.NewLoggerConfig()
	if err != nil {
		return fmt.Errorf("%s Logger: %w", op, err)
	}

	storageCfg, err := envconfig.NewStorageConfig()
	if err != nil {
		return fmt.Errorf("%s Storage: %w", op, err)
	}

	var postgresCfg Database
	if storageCfg.Driver() == envconfig.DriverPostgres {
		pg, err := envconfig.NewPostgresConfig()
		if err != nil {
			return fmt.Errorf("%s Postgres: %w", op, err)
		}
		postgresCfg = pg
	}

	kafkaCfg, err := envconfig.NewKafkaConfig()
	if err != nil {
		return fmt.Errorf("%s Kafka: %w", op, err)
	}

	redisCfg, err := envconfig.NewRedisConfig()
	if err != nil {
		return fmt.Errorf("%s Redis: %w", op, err)
	}

	smtpCfg, err := envconfig.NewSMTPConfig()
	if err != nil {
		return fmt.Errorf("%s SMTP: %w", op, err)
	}

	grpcCfg, err := envconfig.NewGRPCConfig()
	if err != nil {
		return fmt.Errorf("%s GRPC: %w", op, err)
	}

	cfg = &config{
		Server:   serverCfg,
		Logger:   loggerCfg,
		Storage:  storageCfg,
		Postgres: postgresCfg,
		Kafka:    kafkaCfg,
		Redis:    redisCfg,
		SMTP:     smtpCfg,
		GRPC:     grpcCfg,
	}

	return nil
}

func C() *config { return cfg }

func shouldLoadDotenv() bool {
	return os.Getenv("APP_ENV") == "local"
}
