package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/reflection"

	"github.com/bafnalights-dot/stock/internal/config"
	healthhttp "github.com/bafnalights-dot/stock/internal/transport/http/health"
	"github.com/bafnalights-dot/stock/platform/closer"
	healthgrpc "github.com/bafnalights-dot/stock/platform/grpc/health"
	"github.com/bafnalights-dot/stock/platform/grpc/interceptors"
	"github.com/bafnalights-dot/stock/platform/logger"
)

type app struct {
	di *di

	server *http.Server

	grpcServer   *grpc.Server
	grpcListener net.Listener
	grpcHealth   *health.Server
}

func New(ctx context.Context) (*app, error) {
	a := &app{}

	if err := a.init(ctx,
		a.initTables,
		a.initServer,
		a.initGRPCServer,
	); err != nil {
		return nil, err
	}

	return a, nil
}

func (a *app) Run(ctx context.Context) error { return a.run(ctx) }

// Migrate applies pending migrations and exits. It is a no-op for the memory store.
func Migrate(ctx context.Context) error {
	a := &app{}
	if err := a.init(ctx); err != nil {
		return err
	}
	defer gracefulShutdown()

	if !a.di.usesPostgres() {
		logger.Info(ctx, "memory storage has no migrations")
		return nil
	}
	return a.initTables(ctx)
}

// Export writes the stock workbook into dir and returns the file path.
func Export(ctx context.Context, dir string) (string, error) {
	a := &app{}
	if err := a.init(ctx); err != nil {
		return "", err
	}
	defer gracefulShutdown()

	wb, err := a.di.Export(ctx)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, wb.Filename)
	if err := os.WriteFile(path, wb.Content, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	logger.Info(ctx, "workbook exported", logger.String("path", path))
	return path, nil
}

func (a *app) init(ctx context.Context, extra ...func(context.Context) error) error {
	inits := []func(context.Context) error{
		a.initConfig,
		a.initLogger,
		a.initCloser,
		a.initDecimal,
		a.initDI,
	}
	inits = append(inits, extra...)

	for _, initFn := range inits {
		if err := initFn(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) initConfig(_ context.Context) error {
	return config.Load()
}

func (a *app) initLogger(_ context.Context) error {
	return logger.Init(
		config.C().Logger.Level(),
		config.C().Logger.AsJSON(),
	)
}

func (a *app) initCloser(_ context.Context) error {
	closer.SetLogger(logger.L())
	return nil
}

// Quantities and prices go out as JSON numbers.
func (a *app) initDecimal(_ context.Context) error {
	decimal.MarshalJSONWithoutQuotes = true
	return nil
}

func (a *app) initDI(_ context.Context) error {
	a.di = NewDI()
	return nil
}

func (a *app) initTables(ctx context.Context) error {
	if !a.di.usesPostgres() {
		return nil
	}

	if err := a.di.Migrator(ctx).Up(); err != nil {
		logger.Error(ctx, "failed to apply migrations", logger.ErrorF(err))
		return err
	}
	return nil
}

// mountRoutes installs the middleware stack, the API under /api and the health check.
// Logger wraps Recoverer so recovered panics are logged with their 500.
func mountRoutes(r chi.Router, api APIHandler, health http.HandlerFunc) {
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
	)
	r.Route("/api", api.Routes)
	r.HandleFunc("/health", health)
}

func (a *app) initServer(ctx context.Context) error {
	cfg := config.C()

	r := a.di.Router(ctx)
	mountRoutes(r, a.di.Handler(ctx), healthhttp.Handler(a.di.Pinger(ctx)))

	a.server = &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           r,
		ReadHeaderTimeout: cfg.Server.ReadTimeout(),
	}
	closer.AddNamed("HTTP server", a.server.Shutdown)
	return nil
}

func (a *app) initGRPCServer(ctx context.Context) error {
	cfg := config.C().GRPC
	if !cfg.Enabled() {
		return nil
	}

	lis, err := net.Listen("tcp", cfg.Address())
	if err != nil {
		logger.Error(ctx, "failed to listen", logger.String("address", cfg.Address()), logger.ErrorF(err))
		return err
	}

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(interceptors.UnaryLogging(logger.L())),
	)
	a.grpcHealth = healthgrpc.RegisterService(s)
	reflection.Register(s)

	closer.AddNamed("gRPC server", func(ctx context.Context) error {
		s.GracefulStop()
		return nil
	})

	a.grpcServer = s
	a.grpcListener = lis
	return nil
}

func (a *app) run(ctx context.Context) error {
	defer gracefulShutdown()

	eg, egCtx := errgroup.WithContext(ctx)

	if config.C().Kafka.Enabled() {
		eg.Go(func() error {
			logger.Info(egCtx,
				"🚀 report consumer running",
				logger.Strings("kafka_brokers", config.C().Kafka.Brokers()),
			)
			err := a.di.ReportConsumer(egCtx).RunReportRequestConsume(egCtx)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if a.grpcServer != nil {
		if pinger := a.di.Pinger(egCtx); pinger != nil {
			eg.Go(func() error {
				healthgrpc.Watch(egCtx, a.grpcHealth, pinger, config.C().GRPC.HealthInterval(),
					func(ctx context.Context, err error) {
						logger.Warn(ctx, "database is not reachable", logger.ErrorF(err))
					})
				return nil
			})
		}

		eg.Go(func() error {
			logger.Info(egCtx,
				"🚀 gRPC server listening",
				logger.String("address", config.C().GRPC.Address()),
			)
			if err := a.grpcServer.Serve(a.grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return err
			}
			return nil
		})
	}

	eg.Go(func() error {
		logger.Info(egCtx,
			"🚀 stock server listening",
			logger.String("address", config.C().Server.Address()),
		)
		err := a.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	eg.Go(func() error {
		<-egCtx.Done()
		gracefulShutdown()
		return nil
	})

	if err := eg.Wait(); err != nil {
		return err
	}
	return nil
}

//nolint:contextcheck
func gracefulShutdown() {
	ctx, cancel := context.WithTimeout(
		context.Background(),
		config.C().Server.ShutdownTimeout(),
	)
	defer cancel()

	err := closer.CloseAll(ctx)
	if err != nil {
		logger.Error(ctx, "❌ Error during server shutdown", logger.ErrorF(err))
		logger.Error(ctx, "❌😵‍💫 Server stopped")
		return
	}
	logger.Info(ctx, "✅ Server stopped")
}
