package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full process configuration, loaded once in main.
type Config struct {
	Server   Server
	Auth     Auth
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Geocoder GeocoderConfig
	Location LocationConfig
	Tracing  TracingConfig
	Log      LogConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"TOURIST_SAFETY_ADDR"             envDefault:":8080"`
	RequestTimeout  time.Duration `env:"TOURIST_SAFETY_REQUEST_TIMEOUT"  envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"TOURIST_SAFETY_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	// ContactPolicy selects how emergency contacts are validated: "first" or "all".
	ContactPolicy string `env:"IDENTITY_CONTACT_POLICY" envDefault:"first"`
}

// Auth configures bearer token verification and the operator token.
type Auth struct {
	JWTSigningKey string        `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer     string        `env:"JWT_ISSUER"      envDefault:"tourist-safety"`
	JWTAudience   string        `env:"JWT_AUDIENCE"    envDefault:"tourist-safety-app"`
	TokenTTL      time.Duration `env:"JWT_TOKEN_TTL"   envDefault:"24h"`
	// AdminToken guards /admin routes; empty disables them.
	AdminToken string `env:"ADMIN_API_TOKEN"`
}

// PostgresConfig selects the durable stores. Empty URL keeps everything in memory.
type PostgresConfig struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS"     envDefault:"20"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS"     envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME"  envDefault:"30m"`
	MigrateOnStart  bool          `env:"DATABASE_MIGRATE_ON_START"   envDefault:"true"`
}

// RedisConfig backs the geocode cache and the location tracker. Empty URL
// disables the cache and keeps tracked locations in memory.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE"      envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT"   envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT"   envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT"  envDefault:"3s"`
}

// KafkaConfig configures the audit sink. No brokers means audit events are logged only.
type KafkaConfig struct {
	Brokers    []string `env:"KAFKA_BROKERS"      envSeparator:","`
	AuditTopic string   `env:"KAFKA_AUDIT_TOPIC"  envDefault:"tourist-safety.audit"`
	Partitions int32    `env:"KAFKA_AUDIT_PARTITIONS" envDefault:"3"`
	// ReplicationFactor -1 uses the broker default.
	ReplicationFactor int16 `env:"KAFKA_AUDIT_REPLICATION" envDefault:"-1"`
}

// GeocoderConfig configures reverse geocoding.
type GeocoderConfig struct {
	APIKey   string        `env:"GOOGLE_MAPS_API_KEY"`
	BaseURL  string        `env:"GEOCODER_BASE_URL"  envDefault:"https://maps.googleapis.com/maps/api/geocode/json"`
	Timeout  time.Duration `env:"GEOCODER_TIMEOUT"   envDefault:"5s"`
	CacheTTL time.Duration `env:"GEOCODE_CACHE_TTL"  envDefault:"10m"`
}

// LocationConfig configures the position watcher and tracker.
type LocationConfig struct {
	// SampleRate is samples per second per owner; 0 disables throttling.
	SampleRate  float64       `env:"LOCATION_SAMPLE_RATE"  envDefault:"1"`
	SampleBurst int           `env:"LOCATION_SAMPLE_BURST" envDefault:"3"`
	TTL         time.Duration `env:"LOCATION_TTL"          envDefault:"30m"`
}

// TracingConfig enables OTLP export when Endpoint is set.
type TracingConfig struct {
	Endpoint    string `env:"OTEL_EXPORTER_ENDPOINT"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"tourist-safety"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL"  envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Server.ContactPolicy != "first" && cfg.Server.ContactPolicy != "all" {
		return Config{}, fmt.Errorf("IDENTITY_CONTACT_POLICY must be first or all, got %q", cfg.Server.ContactPolicy)
	}
	if cfg.Location.SampleRate < 0 {
		return Config{}, fmt.Errorf("LOCATION_SAMPLE_RATE must not be negative")
	}
	return cfg, nil
}
