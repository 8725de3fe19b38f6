package kafka

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	"go.uber.org/zap"

	"github.com/bafnalights-dot/stock/platform/logger"
	tcconst "github.com/bafnalights-dot/stock/platform/testcontainers"
)

type Logger interface {
	Info(ctx context.Context, msg string, fields ...zap.Field)
	Error(ctx context.Context, msg string, fields ...zap.Field)
}

type Container struct {
	container *tckafka.KafkaContainer
	brokers   []string
	logger    Logger
}

func NewContainer(ctx context.Context, log Logger) (*Container, error) {
	if log == nil {
		log = &logger.NoopLogger{}
	}

	container, err := tckafka.Run(ctx,
		tcconst.KafkaImageName,
		tckafka.WithClusterID(tcconst.KafkaClusterID),
	)
	if err != nil {
		return nil, errors.Errorf("failed to start kafka container: %v", err)
	}

	brokers, err := container.Brokers(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, errors.Errorf("failed to get kafka brokers: %v", err)
	}

	log.Info(ctx, "Kafka container started", zap.Strings("brokers", brokers))

	return &Container{container: container, brokers: brokers, logger: log}, nil
}

func (c *Container) Brokers() []string {
	return c.brokers
}

// CreateTopics creates single-partition topics, ignoring ones that already exist.
func (c *Container) CreateTopics(topics ...string) error {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V4_0_0_0
	cfg.Admin.Timeout = 10 * time.Second

	admin, err := sarama.NewClusterAdmin(c.brokers, cfg)
	if err != nil {
		return errors.Wrap(err, "cluster admin")
	}
	defer admin.Close()

	for _, t := range topics {
		err := admin.CreateTopic(t, &sarama.TopicDetail{
			NumPartitions:     1,
			ReplicationFactor: 1,
		}, false)
		if err != nil && !errors.Is(err, sarama.ErrTopicAlreadyExists) {
			return errors.Wrapf(err, "create topic %s", t)
		}
	}
	return nil
}

func (c *Container) Terminate(ctx context.Context) error {
	if err := c.container.Terminate(ctx); err != nil {
		c.logger.Error(ctx, "failed to terminate kafka container", zap.Error(err))
	}

	c.logger.Info(ctx, "Kafka container terminated")

	return nil
}
