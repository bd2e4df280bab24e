package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "collection-desk", cfg.App.Name)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 4, cfg.Posting.Workers)
	assert.Equal(t, "local", cfg.Lock.Driver)
	assert.Equal(t, 15*time.Second, cfg.Ledger.Timeout)
	assert.Equal(t, uint32(5), cfg.Ledger.BreakerFailures)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("POSTING_WORKERS", "8")
	t.Setenv("LOCK_DRIVER", "redis")
	t.Setenv("REDIS_HOST", "cache")

	cfg := Load()

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 8, cfg.Posting.Workers)
	assert.Equal(t, "redis", cfg.Lock.Driver)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := &DatabaseConfig{
		Host: "db", User: "u", Password: "p", Name: "n",
		Port: "5432", SSLMode: "disable", Timezone: "UTC",
	}

	assert.Equal(t, "host=db user=u password=p dbname=n port=5432 sslmode=disable TimeZone=UTC", c.DSN())
}
