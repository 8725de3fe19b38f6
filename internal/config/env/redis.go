package envconfig

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type redisEnv struct {
	Enabled  bool          `env:"REDIS_ENABLED" envDefault:"false"`
	Addr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	PoolSize int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	LockTTL  time.Duration `env:"REPORT_LOCK_TTL" envDefault:"2m"`
}

type redis struct {
	raw redisEnv
}

func NewRedisConfig() (*redis, error) {
	var raw redisEnv
	if err := env.Parse(&raw); err != nil {
		return nil, err
	}
	return &redis{raw: raw}, nil
}

func (cfg *redis) Enabled() bool          { return cfg.raw.Enabled }
func (cfg *redis) Addr() string           { return cfg.raw.Addr }
func (cfg *redis) Password() string       { return cfg.raw.Password }
func (cfg *redis) DB() int                { return cfg.raw.DB }
func (cfg *redis) PoolSize() int          { return cfg.raw.PoolSize }
func (cfg *redis) LockTTL() time.Duration { return cfg.raw.LockTTL }
