package envconfig

import (
	"github.com/IBM/sarama"
	"github.com/caarlos0/env/v11"
)

type kafkaEnv struct {
	Enabled                bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	Brokers                []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	StockMovementTopicName string   `env:"STOCK_MOVEMENT_TOPIC_NAME" envDefault:"stock.movements"`
	ReportRequestTopicName string   `env:"REPORT_REQUEST_TOPIC_NAME" envDefault:"report.email_requested"`
	ReportConsumerGroupID  string   `env:"REPORT_CONSUMER_GROUP_ID" envDefault:"stock-report-mailer"`
}

type kafka struct {
	raw kafkaEnv
}

func NewKafkaConfig() (*kafka, error) {
	var raw kafkaEnv
	if err := env.Parse(&raw); err != nil {
		return nil, err
	}
	return &kafka{raw: raw}, nil
}

func (cfg *kafka) Enabled() bool                 { return cfg.raw.Enabled }
func (cfg *kafka) Brokers() []string             { return cfg.raw.Brokers }
func (cfg *kafka) StockMovementTopic() string    { return cfg.raw.StockMovementTopicName }
func (cfg *kafka) ReportRequestTopic() string    { return cfg.raw.ReportRequestTopicName }
func (cfg *kafka) ReportConsumerGroupID() string { return cfg.raw.ReportConsumerGroupID }

func (cfg *kafka) ReportRequestConsumerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Version = sarama.V4_0_0_0
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	return config
}

func (cfg *kafka) ProducerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Version = sarama.V4_0_0_0
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Partitioner = sarama.NewHashPartitioner

	return config
}
