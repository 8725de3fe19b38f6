package testcontainers

// Postgres constants
const (
	PostgresImageName = "postgres:17.0-alpine3.20"
	PostgresPort      = "5432"

	PostgresDatabase = "stock"
	PostgresUser     = "stock-user"
	PostgresPassword = "stock-password" //nolint:gosec
)

// Redis constants
const (
	RedisImageName = "redis:7.4-alpine"
	RedisPort      = "6379"
)

// Kafka constants
const (
	KafkaImageName = "confluentinc/cp-kafka:7.6.1"
	KafkaClusterID = "Mk3OEYBSD34fcwNTJENDM2Qk"
)
