package config

import (
	"time"

	"github.com/IBM/sarama"
)

type Server interface {
	Host() string
	Port() int
	Address() string
	ReadTimeout() time.Duration
	ShutdownTimeout() time.Duration
	DBReadTimeout() time.Duration
	DBWriteTimeout() time.Duration
}

type Logger interface {
	Level() string
	AsJSON() bool
}

type Storage interface {
	Driver() string
}

type Database interface {
	MigrationDirectory() string
	DSN() string
}

type Kafka interface {
	Enabled() bool
	Brokers() []string
	StockMovementTopic() string
	ReportRequestTopic() string
	ReportConsumerGroupID() string
	ReportRequestConsumerConfig() *sarama.Config
	ProducerConfig() *sarama.Config
}

type Redis interface {
	Enabled() bool
	Addr() string
	Password() string
	DB() int
	PoolSize() int
	LockTTL() time.Duration
}

type SMTP interface {
	Enabled() bool
	Host() string
	Port() int
	Username() string
	Password() string
	From() string
	Timeout() time.Duration
}

type GRPC interface {
	Enabled() bool
	Address() string
	HealthInterval() time.Duration
}
