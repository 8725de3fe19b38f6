package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Load mutates the package-level config, so these tests do not run in parallel.

func TestLoadMemoryDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")

	require.NoError(t, Load())

	c := C()
	assert.Equal(t, "memory", c.Storage.Driver())
	assert.Nil(t, c.Postgres)
	assert.Equal(t, "0.0.0.0:8001", c.Server.Address())
	assert.Equal(t, 3*time.Second, c.Server.DBReadTimeout())
	assert.False(t, c.Kafka.Enabled())
	assert.Equal(t, "stock.movements", c.Kafka.StockMovementTopic())
	assert.False(t, c.Redis.Enabled())
	assert.False(t, c.SMTP.Enabled())
	assert.False(t, c.GRPC.Enabled())
}

func TestLoadPostgres(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_USER", "stock")
	t.Setenv("POSTGRES_PASSWORD", "p@ss word")
	t.Setenv("POSTGRES_DB", "stock")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	require.NoError(t, Load())

	c := C()
	require.NotNil(t, c.Postgres)
	assert.Equal(t, "postgres://stock:p%40ss%20word@db:5432/stock?sslmode=disable", c.Postgres.DSN())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers())
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown driver", env: map[string]string{"STORAGE_DRIVER": "sqlite"}},
		{name: "postgres without host", env: map[string]string{"STORAGE_DRIVER": "postgres", "POSTGRES_HOST": ""}},
		{name: "bad timeout", env: map[string]string{"STORAGE_DRIVER": "memory", "DB_READ_TIMEOUT": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			assert.Error(t, Load())
		})
	}
}
