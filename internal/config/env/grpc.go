package envconfig

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type grpcEnv struct {
	Enabled        bool          `env:"GRPC_ENABLED" envDefault:"false"`
	Host           string        `env:"GRPC_HOST" envDefault:"0.0.0.0"`
	Port           int           `env:"GRPC_PORT" envDefault:"50051"`
	HealthInterval time.Duration `env:"GRPC_HEALTH_INTERVAL" envDefault:"5s"`
}

type grpcServer struct {
	raw grpcEnv
}

func NewGRPCConfig() (*grpcServer, error) {
	var raw grpcEnv
	if err := env.Parse(&raw); err != nil {
		return nil, err
	}
	return &grpcServer{raw: raw}, nil
}

func (cfg *grpcServer) Enabled() bool { return cfg.raw.Enabled }
func (cfg *grpcServer) Host() string  { return cfg.raw.Host }
func (cfg *grpcServer) Port() int     { return cfg.raw.Port }
func (cfg *grpcServer) Address() string {
	return fmt.Sprintf("%s:%d", cfg.Host(), cfg.Port())
}
func (cfg *grpcServer) HealthInterval() time.Duration { return cfg.raw.HealthInterval }
