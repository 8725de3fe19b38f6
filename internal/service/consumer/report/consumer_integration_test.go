//go:build integration

package repconsumer_test

import (
	"context"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	redisclient "github.com/bafnalights-dot/stock/internal/client/redis"
	"github.com/bafnalights-dot/stock/internal/converter"
	"github.com/bafnalights-dot/stock/internal/model"
	repository "github.com/bafnalights-dot/stock/internal/repository/memory"
	catalog "github.com/bafnalights-dot/stock/internal/service/catalog"
	repconsumer "github.com/bafnalights-dot/stock/internal/service/consumer/report"
	ledger "github.com/bafnalights-dot/stock/internal/service/ledger"
	movproducer "github.com/bafnalights-dot/stock/internal/service/producer/movement"
	repproducer "github.com/bafnalights-dot/stock/internal/service/producer/report"
	recipe "github.com/bafnalights-dot/stock/internal/service/recipe"
	report "github.com/bafnalights-dot/stock/internal/service/report"
	platformkafka "github.com/bafnalights-dot/stock/platform/kafka"
	"github.com/bafnalights-dot/stock/platform/kafka/producer"
	"github.com/bafnalights-dot/stock/platform/logger"
)

var _ = Describe("Stock movement events", func() {
	It("publishes every ledger movement keyed by its stock entity", func() {
		conv := converter.NewKafkaConverter()
		repo := repository.NewRepository()

		led := ledger.NewLedgerService(repo,
			movproducer.NewMovementProducer(
				producer.NewProducer(syncProducer, topicMovements, logger.L()),
				conv,
			),
			time.Second, time.Second)
		catalogSvc := catalog.NewCatalogService(repo, led, recipe.NewRecipeService(repo, time.Second, time.Second), time.Second)

		part, err := catalogSvc.CreatePart(ctx, model.CreatePartParams{
			Name:     gofakeit.UUID(),
			Quantity: decimal.NewFromInt(5),
		})
		Expect(err).NotTo(HaveOccurred())

		received := make(chan platformkafka.Message, 4)
		consumeCtx, stop := context.WithCancel(ctx)
		DeferCleanup(stop)

		c := newGroupConsumer("stock-movements-it-"+uuid.NewString(), topicMovements)
		go func() {
			defer GinkgoRecover()
			_ = c.Consume(consumeCtx, func(_ context.Context, msg platformkafka.Message) error {
				if string(msg.Key) == part.ID.String() {
					received <- msg
				}
				return nil
			})
		}()

		var msg platformkafka.Message
		Eventually(received, eventuallyTimeout).Should(Receive(&msg))
		Expect(msg.Header("event_type")).To(Equal("stock." + string(model.ReasonOpening)))

		var pb structpb.Struct
		Expect(proto.Unmarshal(msg.Value, &pb)).To(Succeed())
		fields := pb.GetFields()
		Expect(fields["entity_type"].GetStringValue()).To(Equal(string(model.EntityPart)))
		Expect(fields["entity_uuid"].GetStringValue()).To(Equal(part.ID.String()))
		Expect(fields["delta"].GetStringValue()).To(Equal("5"))
		Expect(fields["balance"].GetStringValue()).To(Equal("5"))
	})
})

var _ = Describe("Queued e-mail reports", func() {
	It("mails the workbook once the request is consumed", func() {
		conv := converter.NewKafkaConverter()
		repo := repository.NewRepository()
		mailer := newChanMailer()

		svc := report.NewReportService(repo,
			repproducer.NewReportProducer(
				producer.NewProducer(syncProducer, topicReportRequests, logger.L()),
				conv,
			),
			mailer,
			redisclient.NewLocker(redisC.Client(), "it:lock:"),
			time.Second,
			time.Minute,
		)

		consumeCtx, stop := context.WithCancel(ctx)
		DeferCleanup(stop)

		rc := repconsumer.NewReportConsumer(newGroupConsumer(reportGroupID, topicReportRequests), conv, svc)
		go func() {
			defer GinkgoRecover()
			_ = rc.RunReportRequestConsume(consumeCtx)
		}()

		email := gofakeit.Email()
		req, err := svc.RequestEmailReport(ctx, email)
		Expect(err).NotTo(HaveOccurred())
		Expect(req.RequestID).NotTo(Equal(uuid.Nil))

		var mail model.Mail
		Eventually(mailer.sent, eventuallyTimeout).Should(Receive(&mail))
		Expect(mail.To).To(ConsistOf(email))
		Expect(mail.Attachments).To(HaveLen(1))
		Expect(mail.Attachments[0].Filename).To(HaveSuffix(".xlsx"))
		Expect(mail.Attachments[0].ContentType).To(Equal(model.ExcelContentType))
		Expect(mail.Attachments[0].Content).NotTo(BeEmpty())
	})
})

var _ = Describe("Redis locker", func() {
	It("rejects a second holder until the lock is released", func() {
		l := redisclient.NewLocker(redisC.Client(), "it:lock:")
		key := "report-email:" + gofakeit.Email()

		unlock, err := l.Lock(ctx, key, time.Minute)
		Expect(err).NotTo(HaveOccurred())

		_, err = l.Lock(ctx, key, time.Minute)
		Expect(err).To(MatchError(model.ErrServiceBusy))

		Expect(unlock(ctx)).To(Succeed())
		Expect(unlock(ctx)).To(Succeed())

		again, err := l.Lock(ctx, key, time.Minute)
		Expect(err).NotTo(HaveOccurred())
		Expect(again(ctx)).To(Succeed())
	})

	It("expires a lock after its ttl", func() {
		l := redisclient.NewLocker(redisC.Client(), "it:lock:")
		key := "report-email:" + gofakeit.Email()

		_, err := l.Lock(ctx, key, 200*time.Millisecond)
		Expect(err).NotTo(HaveOccurred())

		Eventually(func() error {
			unlock, err := l.Lock(ctx, key, time.Minute)
			if err != nil {
				return err
			}
			return unlock(ctx)
		}).WithTimeout(5 * time.Second).WithPolling(100 * time.Millisecond).Should(Succeed())
	})
})
