package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Ledger    LedgerConfig
	Posting   PostingConfig
	Lock      LockConfig
	Redis     RedisConfig
	Email     EmailConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
}

type DatabaseConfig struct {
	Driver     string // postgres or sqlite
	Host       string
	Port       string
	Name       string
	User       string
	Password   string
	SSLMode    string
	Timezone   string
	SQLitePath string
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

// LedgerConfig points at the external accounting ledger
type LedgerConfig struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	BreakerFailures   uint32
	BreakerTimeout    time.Duration
}

type PostingConfig struct {
	Workers      int
	BatchTimeout time.Duration
}

type LockConfig struct {
	Driver string // local or redis
	Expiry time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
	Recipients   []string
}

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}

	// Set defaults
	viper.SetDefault("APP_NAME", "collection-desk")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "collection_desk")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "Asia/Kathmandu")
	viper.SetDefault("DB_SQLITE_PATH", "collection_desk.db")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("LOG_OUTPUT", "stdout")
	viper.SetDefault("LEDGER_BASE_URL", "http://localhost:9000/api")
	viper.SetDefault("LEDGER_TIMEOUT_SECONDS", 15)
	viper.SetDefault("LEDGER_REQUESTS_PER_SECOND", 10)
	viper.SetDefault("LEDGER_BURST", 5)
	viper.SetDefault("LEDGER_BREAKER_FAILURES", 5)
	viper.SetDefault("LEDGER_BREAKER_TIMEOUT_SECONDS", 30)
	viper.SetDefault("POSTING_WORKERS", 4)
	viper.SetDefault("POSTING_BATCH_TIMEOUT_SECONDS", 120)
	viper.SetDefault("LOCK_DRIVER", "local")
	viper.SetDefault("LOCK_EXPIRY_SECONDS", 180)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("FROM_NAME", "Collection Desk")

	return &Config{
		App: AppConfig{
			Name:  viper.GetString("APP_NAME"),
			Env:   viper.GetString("APP_ENV"),
			Port:  viper.GetString("APP_PORT"),
			Debug: viper.GetBool("APP_DEBUG"),
		},
		Database: DatabaseConfig{
			Driver:     viper.GetString("DB_DRIVER"),
			Host:       viper.GetString("DB_HOST"),
			Port:       viper.GetString("DB_PORT"),
			Name:       viper.GetString("DB_NAME"),
			User:       viper.GetString("DB_USER"),
			Password:   viper.GetString("DB_PASSWORD"),
			SSLMode:    viper.GetString("DB_SSL_MODE"),
			Timezone:   viper.GetString("DB_TIMEZONE"),
			SQLitePath: viper.GetString("DB_SQLITE_PATH"),
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
		Log: LogConfig{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: viper.GetString("LOG_FORMAT"),
			Output: viper.GetString("LOG_OUTPUT"),
		},
		Ledger: LedgerConfig{
			BaseURL:           viper.GetString("LEDGER_BASE_URL"),
			APIKey:            viper.GetString("LEDGER_API_KEY"),
			Timeout:           time.Duration(viper.GetInt("LEDGER_TIMEOUT_SECONDS")) * time.Second,
			RequestsPerSecond: viper.GetFloat64("LEDGER_REQUESTS_PER_SECOND"),
			Burst:             viper.GetInt("LEDGER_BURST"),
			BreakerFailures:   viper.GetUint32("LEDGER_BREAKER_FAILURES"),
			BreakerTimeout:    time.Duration(viper.GetInt("LEDGER_BREAKER_TIMEOUT_SECONDS")) * time.Second,
		},
		Posting: PostingConfig{
			Workers:      viper.GetInt("POSTING_WORKERS"),
			BatchTimeout: time.Duration(viper.GetInt("POSTING_BATCH_TIMEOUT_SECONDS")) * time.Second,
		},
		Lock: LockConfig{
			Driver: viper.GetString("LOCK_DRIVER"),
			Expiry: time.Duration(viper.GetInt("LOCK_EXPIRY_SECONDS")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Email: EmailConfig{
			SMTPHost:     viper.GetString("SMTP_HOST"),
			SMTPPort:     viper.GetInt("SMTP_PORT"),
			SMTPUsername: viper.GetString("SMTP_USERNAME"),
			SMTPPassword: viper.GetString("SMTP_PASSWORD"),
			FromEmail:    viper.GetString("FROM_EMAIL"),
			FromName:     viper.GetString("FROM_NAME"),
			Recipients:   viper.GetStringSlice("POSTING_NOTIFY_RECIPIENTS"),
		},
	}
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}

// Addr returns the redis host:port pair
func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// IsProduction reports whether the service runs in production
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}
