package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/yungbote/inkforge-backend/internal/data/db"
	"github.com/yungbote/inkforge-backend/internal/observability"
	"github.com/yungbote/inkforge-backend/internal/platform/neo4jdb"
	"github.com/yungbote/inkforge-backend/internal/platform/openai"
)

type Config struct {
	Port         string   `env:"PORT" envDefault:"8080"`
	LogMode      string   `env:"LOG_MODE" envDefault:"development"`
	JWTSecretKey string   `env:"JWT_SECRET_KEY"`
	CORSOrigins  []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	DBDriver         string `env:"DB_DRIVER" envDefault:"postgres"`
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	PostgresName     string `env:"POSTGRES_NAME" envDefault:"inkforge"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	SQLitePath       string `env:"SQLITE_PATH" envDefault:"inkforge.db"`

	GatewayTimeoutSeconds int    `env:"GATEWAY_TIMEOUT_SECONDS" envDefault:"60"`
	ReconcileConcurrency  int    `env:"RECONCILE_CONCURRENCY" envDefault:"4"`
	AutosaveCoalesceMS    int    `env:"AUTOSAVE_COALESCE_MS" envDefault:"2000"`
	StageVocabularyFile   string `env:"STAGE_VOCABULARY_FILE"`

	RedisAddr      string `env:"REDIS_ADDR"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB" envDefault:"0"`
	LockTTLSeconds int    `env:"LOCK_TTL_SECONDS" envDefault:"30"`

	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`

	OtelEnabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OtelServiceName string  `env:"OTEL_SERVICE_NAME" envDefault:"inkforge"`
	OtelEnvironment string  `env:"OTEL_ENVIRONMENT"`
	OtelVersion     string  `env:"OTEL_SERVICE_VERSION"`
	OtelEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelHeaders     string  `env:"OTEL_EXPORTER_OTLP_HEADERS"`
	OtelInsecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"false"`
	OtelSampleRatio float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"1"`

	OpenAI openai.Config  `envPrefix:"OPENAI_"`
	Neo4j  neo4jdb.Config `envPrefix:"NEO4J_"`
}

// LoadConfig reads the process environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.DBDriver)) {
	case db.DriverPostgres, db.DriverSQLite:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", db.DriverPostgres, db.DriverSQLite, c.DBDriver)
	}
	if strings.TrimSpace(c.JWTSecretKey) == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	return nil
}

func (c Config) DBOptions() db.Options {
	return db.Options{
		Driver:           c.DBDriver,
		PostgresHost:     c.PostgresHost,
		PostgresPort:     c.PostgresPort,
		PostgresUser:     c.PostgresUser,
		PostgresPassword: c.PostgresPassword,
		PostgresName:     c.PostgresName,
		PostgresSSLMode:  c.PostgresSSLMode,
		SQLitePath:       c.SQLitePath,
	}
}

func (c Config) OtelConfig() observability.OtelConfig {
	return observability.OtelConfig{
		Enabled:     c.OtelEnabled,
		ServiceName: c.OtelServiceName,
		Environment: c.OtelEnvironment,
		Version:     c.OtelVersion,
		Endpoint:    c.OtelEndpoint,
		Headers:     c.OtelHeaders,
		Insecure:    c.OtelInsecure,
		SampleRatio: c.OtelSampleRatio,
	}
}

func (c Config) GatewayTimeout() time.Duration {
	return seconds(c.GatewayTimeoutSeconds, 60)
}

func (c Config) LockTTL() time.Duration {
	return seconds(c.LockTTLSeconds, 30)
}

func (c Config) AutosaveInterval() time.Duration {
	if c.AutosaveCoalesceMS <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.AutosaveCoalesceMS) * time.Millisecond
}

func seconds(v, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Second
}
