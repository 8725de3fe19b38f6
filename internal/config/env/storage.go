package envconfig

import (
	"fmt"
	"net/url"

	"github.com/caarlos0/env/v11"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type storageEnv struct {
	Driver string `env:"STORAGE_DRIVER" envDefault:"postgres"`
}

type storage struct {
	raw storageEnv
}

func NewStorageConfig() (*storage, error) {
	var raw storageEnv
	if err := env.Parse(&raw); err != nil {
		return nil, err
	}
	switch raw.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return nil, fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, raw.Driver)
	}
	return &storage{raw: raw}, nil
}

func (cfg *storage) Driver() string { return cfg.raw.Driver }

// Postgres settings are only required with the postgres driver.
type postgresEnv struct {
	Host          string `env:"POSTGRES_HOST,required,notEmpty"`
	Port          int    `env:"POSTGRES_PORT" envDefault:"5432"`
	User          string `env:"POSTGRES_USER,required,notEmpty"`
	Password      string `env:"POSTGRES_PASSWORD,required"`
	DBName        string `env:"POSTGRES_DB,required,notEmpty"`
	SSLMode       string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	MigrationsDir string `env:"MIGRATION_DIRECTORY" envDefault:"migrations"`
}

type postgres struct {
	raw postgresEnv
}

func NewPostgresConfig() (*postgres, error) {
	var raw postgresEnv
	if err := env.Parse(&raw); err != nil {
		return nil, err
	}
	return &postgres{raw: raw}, nil
}

func (cfg *postgres) MigrationDirectory() string {
	return cfg.raw.MigrationsDir
}

func (cfg *postgres) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.raw.User, cfg.raw.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.raw.Host, cfg.raw.Port),
		Path:     cfg.raw.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(cfg.raw.SSLMode),
	}
	return u.String()
}
