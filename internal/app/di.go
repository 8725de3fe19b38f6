package app

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	goredis "github.com/redis/go-redis/v9"

	"github.com/bafnalights-dot/stock/internal/client/redis"
	"github.com/bafnalights-dot/stock/internal/client/smtp"
	"github.com/bafnalights-dot/stock/internal/config"
	envconfig "github.com/bafnalights-dot/stock/internal/config/env"
	"github.com/bafnalights-dot/stock/internal/converter"
	"github.com/bafnalights-dot/stock/internal/model"
	memrepository "github.com/bafnalights-dot/stock/internal/repository/memory"
	pgrepository "github.com/bafnalights-dot/stock/internal/repository/postgres"
	assembly "github.com/bafnalights-dot/stock/internal/service/assembly"
	catalog "github.com/bafnalights-dot/stock/internal/service/catalog"
	repconsumer "github.com/bafnalights-dot/stock/internal/service/consumer/report"
	journal "github.com/bafnalights-dot/stock/internal/service/journal"
	ledger "github.com/bafnalights-dot/stock/internal/service/ledger"
	movproducer "github.com/bafnalights-dot/stock/internal/service/producer/movement"
	repproducer "github.com/bafnalights-dot/stock/internal/service/producer/report"
	recipe "github.com/bafnalights-dot/stock/internal/service/recipe"
	report "github.com/bafnalights-dot/stock/internal/service/report"
	thttp "github.com/bafnalights-dot/stock/internal/transport/http/api/v1"
	"github.com/bafnalights-dot/stock/internal/transport/http/health"
	"github.com/bafnalights-dot/stock/platform/closer"
	"github.com/bafnalights-dot/stock/platform/db/migrator"
	"github.com/bafnalights-dot/stock/platform/kafka"
	"github.com/bafnalights-dot/stock/platform/kafka/consumer"
	"github.com/bafnalights-dot/stock/platform/kafka/middleware"
	"github.com/bafnalights-dot/stock/platform/kafka/producer"
	"github.com/bafnalights-dot/stock/platform/logger"
)

const reportLockPrefix = "stock:lock:"

type Repository interface {
	ledger.StockRepository
	recipe.RecipeRepository
	catalog.CatalogRepository
	journal.JournalRepository
	journal.PurchaseRepository
	assembly.AssemblyRepository
	report.ReportRepository
}

type Converter interface {
	movproducer.Converter
	repproducer.Converter
	repconsumer.Converter
}

type APIHandler interface {
	Routes(r chi.Router)
}

type ReportConsumer interface {
	RunReportRequestConsume(ctx context.Context) error
}

type LedgerService interface {
	catalog.Ledger
	thttp.LedgerService
}

type RecipeService interface {
	catalog.RecipeRegistry
	thttp.RecipeService
}

type ReportService interface {
	thttp.ReportService
	repconsumer.Service
}

type di struct {
	dbPool     *pgxpool.Pool
	migrator   *migrator.Migrator
	repository Repository

	conv Converter

	syncProducer        sarama.SyncProducer
	movementProducer    ledger.MovementPublisher
	reportProducer      report.ReportRequestPublisher
	consumerGroup       sarama.ConsumerGroup
	reportKafkaConsumer kafka.Consumer
	reportConsumer      ReportConsumer

	redisClient *goredis.Client
	locker      report.Locker
	mailer      report.Mailer

	ledgerService   LedgerService
	recipeService   RecipeService
	catalogService  thttp.CatalogService
	assemblyService thttp.AssemblyService
	journalService  thttp.JournalService
	reportService   ReportService

	handler APIHandler
	router  *chi.Mux
}

func NewDI() *di { return &di{} }

func (d *di) usesPostgres() bool {
	return config.C().Storage.Driver() == envconfig.DriverPostgres
}

func (d *di) DBPool(ctx context.Context) *pgxpool.Pool {
	if d.dbPool == nil {
		pool, err := pgxpool.New(ctx, config.C().Postgres.DSN())
		if err != nil {
			panic(fmt.Sprintf("failed to create pg pool: %v\n", err))
		}

		closer.AddNamed("PGX Pool",
			func(ctx context.Context) error {
				pool.Close()
				return nil
			})

		if err := pool.Ping(ctx); err != nil {
			panic(fmt.Sprintf("failed to ping db: %v\n", err))
		}

		d.dbPool = pool
	}

	return d.dbPool
}

func (d *di) Migrator(ctx context.Context) *migrator.Migrator {
	if d.migrator == nil {
		d.migrator = migrator.NewMigrator(
			stdlib.OpenDBFromPool(d.DBPool(ctx)),
			config.C().Postgres.MigrationDirectory(),
		)

		closer.AddNamed("Migrator",
			func(ctx context.Context) error {
				return d.migrator.Close()
			})
	}

	return d.migrator
}

// Pinger is nil for the in-memory store.
func (d *di) Pinger(ctx context.Context) health.Pinger {
	if !d.usesPostgres() {
		return nil
	}
	return d.DBPool(ctx)
}

func (d *di) Repository(ctx context.Context) Repository {
	if d.repository == nil {
		if d.usesPostgres() {
			d.repository = pgrepository.NewRepository(d.DBPool(ctx))
		} else {
			logger.Warn(ctx, "using in-memory storage, data is lost on restart")
			d.repository = memrepository.NewRepository()
		}
	}

	return d.repository
}

func (d *di) KafkaConverter(_ context.Context) Converter {
	if d.conv == nil {
		d.conv = converter.NewKafkaConverter()
	}

	return d.conv
}

func (d *di) SyncProducer(_ context.Context) sarama.SyncProducer {
	if d.syncProducer == nil {
		cfg := config.C()

		p, err := sarama.NewSyncProducer(
			cfg.Kafka.Brokers(),
			cfg.Kafka.ProducerConfig(),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create sync producer: %s\n", err.Error()))
		}
		closer.AddNamed("Kafka sync producer", func(ctx context.Context) error {
			return p.Close()
		})

		d.syncProducer = p
	}

	return d.syncProducer
}

// MovementProducer is nil while Kafka is disabled.
func (d *di) MovementProducer(ctx context.Context) ledger.MovementPublisher {
	if !config.C().Kafka.Enabled() {
		return nil
	}

	if d.movementProducer == nil {
		d.movementProducer = movproducer.NewMovementProducer(
			producer.NewProducer(
				d.SyncProducer(ctx),
				config.C().Kafka.StockMovementTopic(),
				logger.L(),
			),
			d.KafkaConverter(ctx),
		)
	}

	return d.movementProducer
}

// ReportProducer is nil while Kafka is disabled, so reports are mailed inline.
func (d *di) ReportProducer(ctx context.Context) report.ReportRequestPublisher {
	if !config.C().Kafka.Enabled() {
		return nil
	}

	if d.reportProducer == nil {
		d.reportProducer = repproducer.NewReportProducer(
			producer.NewProducer(
				d.SyncProducer(ctx),
				config.C().Kafka.ReportRequestTopic(),
				logger.L(),
			),
			d.KafkaConverter(ctx),
		)
	}

	return d.reportProducer
}

func (d *di) ConsumerGroup(_ context.Context) sarama.ConsumerGroup {
	if d.consumerGroup == nil {
		cfg := config.C()

		consumerGroup, err := sarama.NewConsumerGroup(
			cfg.Kafka.Brokers(),
			cfg.Kafka.ReportConsumerGroupID(),
			cfg.Kafka.ReportRequestConsumerConfig(),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create consumer group: %s\n", err.Error()))
		}
		closer.AddNamed("Kafka consumer group", func(ctx context.Context) error {
			return consumerGroup.Close()
		})

		d.consumerGroup = consumerGroup
	}

	return d.consumerGroup
}

func (d *di) ReportKafkaConsumer(ctx context.Context) kafka.Consumer {
	if d.reportKafkaConsumer == nil {
		d.reportKafkaConsumer = consumer.NewConsumer(
			d.ConsumerGroup(ctx),
			[]string{
				config.C().Kafka.ReportRequestTopic(),
			},
			logger.L(),
			middleware.Recovery(logger.L()),
			middleware.Logging(logger.L()),
		)
	}

	return d.reportKafkaConsumer
}

func (d *di) ReportConsumer(ctx context.Context) ReportConsumer {
	if d.reportConsumer == nil {
		d.reportConsumer = repconsumer.NewReportConsumer(
			d.ReportKafkaConsumer(ctx),
			d.KafkaConverter(ctx),
			d.ReportService(ctx),
		)
	}

	return d.reportConsumer
}

func (d *di) RedisClient(ctx context.Context) *goredis.Client {
	if d.redisClient == nil {
		cfg := config.C().Redis

		rdb, err := redis.NewClient(ctx, cfg.Addr(), cfg.Password(), cfg.DB(), cfg.PoolSize())
		if err != nil {
			panic(fmt.Sprintf("failed to connect to redis %s: %v\n", cfg.Addr(), err))
		}
		closer.AddNamed("Redis client", func(ctx context.Context) error {
			return rdb.Close()
		})

		d.redisClient = rdb
	}

	return d.redisClient
}

// Locker is nil while Redis is disabled.
func (d *di) Locker(ctx context.Context) report.Locker {
	if !config.C().Redis.Enabled() {
		return nil
	}

	if d.locker == nil {
		d.locker = redis.NewLocker(d.RedisClient(ctx), reportLockPrefix)
	}

	return d.locker
}

// Mailer is nil while no SMTP host is configured.
func (d *di) Mailer(_ context.Context) report.Mailer {
	cfg := config.C().SMTP
	if !cfg.Enabled() {
		return nil
	}

	if d.mailer == nil {
		d.mailer = smtp.NewMailer(smtp.Config{
			Host:     cfg.Host(),
			Port:     cfg.Port(),
			Username: cfg.Username(),
			Password: cfg.Password(),
			From:     cfg.From(),
			Timeout:  cfg.Timeout(),
		})
	}

	return d.mailer
}

func (d *di) LedgerService(ctx context.Context) LedgerService {
	if d.ledgerService == nil {
		d.ledgerService = ledger.NewLedgerService(
			d.Repository(ctx),
			d.MovementProducer(ctx),
			config.C().Server.DBReadTimeout(),
			config.C().Server.DBWriteTimeout(),
		)
	}

	return d.ledgerService
}

func (d *di) RecipeService(ctx context.Context) RecipeService {
	if d.recipeService == nil {
		d.recipeService = recipe.NewRecipeService(
			d.Repository(ctx),
			config.C().Server.DBReadTimeout(),
			config.C().Server.DBWriteTimeout(),
		)
	}

	return d.recipeService
}

func (d *di) CatalogService(ctx context.Context) thttp.CatalogService {
	if d.catalogService == nil {
		d.catalogService = catalog.NewCatalogService(
			d.Repository(ctx),
			d.LedgerService(ctx),
			d.RecipeService(ctx),
			config.C().Server.DBReadTimeout(),
		)
	}

	return d.catalogService
}

func (d *di) AssemblyService(ctx context.Context) thttp.AssemblyService {
	if d.assemblyService == nil {
		d.assemblyService = assembly.NewAssemblyService(
			d.Repository(ctx),
			d.LedgerService(ctx),
			config.C().Server.DBReadTimeout(),
		)
	}

	return d.assemblyService
}

func (d *di) JournalService(ctx context.Context) thttp.JournalService {
	if d.journalService == nil {
		repo := d.Repository(ctx)
		d.journalService = journal.NewJournalService(
			repo,
			repo,
			d.LedgerService(ctx),
			config.C().Server.DBReadTimeout(),
		)
	}

	return d.journalService
}

func (d *di) ReportService(ctx context.Context) ReportService {
	if d.reportService == nil {
		d.reportService = report.NewReportService(
			d.Repository(ctx),
			d.ReportProducer(ctx),
			d.Mailer(ctx),
			d.Locker(ctx),
			config.C().Server.DBReadTimeout(),
			config.C().Redis.LockTTL(),
		)
	}

	return d.reportService
}

func (d *di) Handler(ctx context.Context) APIHandler {
	if d.handler == nil {
		d.handler = thttp.NewAPIHandler(
			d.CatalogService(ctx),
			d.RecipeService(ctx),
			d.AssemblyService(ctx),
			d.JournalService(ctx),
			d.ReportService(ctx),
			d.LedgerService(ctx),
		)
	}

	return d.handler
}

func (d *di) Router(_ context.Context) *chi.Mux {
	if d.router == nil {
		d.router = chi.NewRouter()
	}

	return d.router
}

// Export renders the workbook without starting any server.
func (d *di) Export(ctx context.Context) (*model.Workbook, error) {
	return d.ReportService(ctx).Export(ctx)
}
