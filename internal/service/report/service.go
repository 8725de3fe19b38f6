package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bafnalights-dot/stock/internal/model"
	"github.com/bafnalights-dot/stock/platform/logger"
)

const dashboardRecentTransactions = 5

type ReportRepository interface {
	ProductByID(ctx context.Context, id uuid.UUID) (*model.FinishedProduct, error)
	ListParts(ctx context.Context) ([]*model.Part, error)
	ListProducts(ctx context.Context) ([]*model.FinishedProduct, error)
	ListRecords(ctx context.Context, f model.RecordFilter) ([]*model.Record, error)
	ListTransactions(ctx context.Context, limit int) ([]*model.Transaction, error)
}

// ReportRequestPublisher queues e-mail report requests for asynchronous delivery.
type ReportRequestPublisher interface {
	PublishReportRequest(ctx context.Context, req model.ReportEmailRequest) error
}

type Mailer interface {
	Send(ctx context.Context, mail model.Mail) error
}

// Locker serialises report deliveries per key.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (unlock func(ctx context.Context) error, err error)
}

type service struct {
	repo          ReportRepository
	queue         ReportRequestPublisher
	mailer        Mailer
	locker        Locker
	readDBTimeout time.Duration
	lockTTL       time.Duration
	now           func() time.Time
}

// NewReportService builds the reporting service. queue and locker are optional:
// without a queue e-mail reports are sent inline, without a locker sends are not deduplicated.
func NewReportService(
	repository ReportRepository,
	queue ReportRequestPublisher,
	mailer Mailer,
	locker Locker,
	readDBTimeout time.Duration,
	lockTTL time.Duration,
) *service {
	return &service{
		repo:          repository,
		queue:         queue,
		mailer:        mailer,
		locker:        locker,
		readDBTimeout: readDBTimeout,
		lockTTL:       lockTTL,
		now:           time.Now,
	}
}

func (svc *service) ItemDetails(ctx context.Context, itemID uuid.UUID) (*model.ItemDetails, error) {
	const op string = "report.service.ItemDetails"
	log := logger.With(logger.String("item_id", itemID.String()))

	ctx, cancel := context.WithTimeout(ctx, svc.readDBTimeout)
	defer cancel()

	item, err := svc.repo.ProductByID(ctx, itemID)
	if err != nil {
		log.Error(ctx, "repository product by id", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	production, err := svc.repo.ListRecords(ctx, model.RecordFilter{Kind: model.KindProduction, ItemID: &itemID})
	if err != nil {
		log.Error(ctx, "repository list production", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sales, err := svc.repo.ListRecords(ctx, model.RecordFilter{Kind: model.KindSale, ItemID: &itemID})
	if err != nil {
		log.Error(ctx, "repository list sales", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &model.ItemDetails{Item: item, Production: production, Sales: sales}, nil
}

func (svc *service) DashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	const op string = "report.service.DashboardStats"

	ctx, cancel := context.WithTimeout(ctx, svc.readDBTimeout)
	defer cancel()

	parts, err := svc.repo.ListParts(ctx)
	if err != nil {
		logger.Error(ctx, "repository list parts", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	products, err := svc.repo.ListProducts(ctx)
	if err != nil {
		logger.Error(ctx, "repository list products", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	recent, err := svc.repo.ListTransactions(ctx, dashboardRecentTransactions)
	if err != nil {
		logger.Error(ctx, "repository list transactions", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	stats := &model.DashboardStats{
		TotalParts:         len(parts),
		TotalProducts:      len(products),
		RecentTransactions: recent,
	}
	for _, p := range parts {
		if p.IsLowStock() {
			stats.LowStockCount++
		}
	}
	return stats, nil
}

// Transactions returns the newest feed entries; limit is clamped to [1, MaxTransactionsLimit].
func (svc *service) Transactions(ctx context.Context, limit int) ([]*model.Transaction, error) {
	const op string = "report.service.Transactions"

	switch {
	case limit <= 0:
		limit = model.DefaultTransactionsLimit
	case limit > model.MaxTransactionsLimit:
		limit = model.MaxTransactionsLimit
	}

	ctx, cancel := context.WithTimeout(ctx, svc.readDBTimeout)
	defer cancel()

	out, err := svc.repo.ListTransactions(ctx, limit)
	if err != nil {
		logger.Error(ctx, "repository list transactions", logger.Int("limit", limit), logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}
