package redis

import (
	"context"
	"net"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	tcconst "github.com/bafnalights-dot/stock/platform/testcontainers"
)

type Container struct {
	container testcontainers.Container
	client    *goredis.Client
	cfg       *Config
}

func NewContainer(ctx context.Context, opts ...Option) (*Container, error) {
	cfg := buildConfig(opts...)

	req := testcontainers.ContainerRequest{
		Name:               cfg.ContainerName,
		Image:              cfg.ImageName,
		ExposedPorts:       []string{tcconst.RedisPort + "/tcp"},
		WaitingFor:         wait.ForListeningPort(tcconst.RedisPort + "/tcp").WithStartupTimeout(cfg.StartupTimeout),
		HostConfigModifier: defaultHostConfig(),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, errors.Errorf("failed to start redis container: %v", err)
	}

	success := false
	defer func() {
		if !success {
			if err = container.Terminate(ctx); err != nil {
				cfg.Logger.Error(ctx, "failed to terminate redis container", zap.Error(err))
			}
		}
	}()

	cfg.Host, err = container.Host(ctx)
	if err != nil {
		return nil, errors.Errorf("failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, tcconst.RedisPort+"/tcp")
	if err != nil {
		return nil, errors.Errorf("failed to get mapped port: %v", err)
	}
	cfg.Port = port.Port()

	client := goredis.NewClient(&goredis.Options{Addr: cfg.Addr()})
	if err = client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Errorf("failed to ping redis: %v", err)
	}

	cfg.Logger.Info(ctx, "Redis container started", zap.String("addr", cfg.Addr()))
	success = true

	return &Container{
		container: container,
		client:    client,
		cfg:       cfg,
	}, nil
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c *Container) Client() *goredis.Client {
	return c.client
}

func (c *Container) Config() *Config {
	return c.cfg
}

func (c *Container) Terminate(ctx context.Context) error {
	if err := c.client.Close(); err != nil {
		c.cfg.Logger.Error(ctx, "failed to close redis client", zap.Error(err))
	}

	if err := c.container.Terminate(ctx); err != nil {
		c.cfg.Logger.Error(ctx, "failed to terminate redis container", zap.Error(err))
	}

	c.cfg.Logger.Info(ctx, "Redis container terminated")

	return nil
}
