// Package config loads the process configuration from TOMBOLA_* environment
// variables. Optional backends follow the "empty URL means disabled" rule so
// a bare `go run ./cmd/server` comes up on in-memory implementations.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	pstrings "tombola/pkg/platform/strings"
)

// Config is the full process configuration.
type Config struct {
	Server   Server
	Raffle   Raffle
	Postgres Postgres
	Redis    Redis
	Kafka    Kafka
	Tracing  Tracing
	Auth     Auth
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"TOMBOLA_ADDR" envDefault:":8080"`
	LogLevel        string        `env:"TOMBOLA_LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"TOMBOLA_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Raffle holds the round policy. Fee and split are deployment policy, not
// correctness constants; defaults suit development.
type Raffle struct {
	EntranceFee      int64         `env:"TOMBOLA_ENTRANCE_FEE" envDefault:"100"`
	MinRoundDuration time.Duration `env:"TOMBOLA_MIN_ROUND_DURATION" envDefault:"1m"`
	PrizeShareBps    int64         `env:"TOMBOLA_PRIZE_SHARE_BPS" envDefault:"8000"`
	OperatorAccount  string        `env:"TOMBOLA_OPERATOR_ACCOUNT"`
	EnterRatePerMin  int           `env:"TOMBOLA_ENTER_RATE_PER_MIN" envDefault:"30"`
}

// Postgres configures the settled-epoch archive. Empty URL keeps the
// in-memory archive.
type Postgres struct {
	URL string `env:"TOMBOLA_POSTGRES_URL"`
}

// Redis configures the rate-limit store. Empty URL disables Redis.
type Redis struct {
	URL          string        `env:"TOMBOLA_REDIS_URL"`
	PoolSize     int           `env:"TOMBOLA_REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"TOMBOLA_REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"TOMBOLA_REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"TOMBOLA_REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"TOMBOLA_REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// Kafka configures the event stream publisher. Empty broker list disables it.
type Kafka struct {
	Brokers []string `env:"TOMBOLA_KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"TOMBOLA_KAFKA_TOPIC" envDefault:"tombola.raffle.events"`
}

// Tracing configures the optional OTLP trace exporter.
type Tracing struct {
	OTLPEndpoint string `env:"TOMBOLA_OTLP_ENDPOINT"`
	ServiceName  string `env:"TOMBOLA_SERVICE_NAME" envDefault:"tombola"`
}

// Auth carries token secrets. The admin token guards operator endpoints;
// entrant tokens are HS256 JWTs signed with JWTSigningKey.
type Auth struct {
	JWTSigningKey string        `env:"TOMBOLA_JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	TokenTTL      time.Duration `env:"TOMBOLA_TOKEN_TTL" envDefault:"15m"`
	AdminToken    string        `env:"TOMBOLA_ADMIN_TOKEN" envDefault:"dev-admin-token"`
	DevTokens     bool          `env:"TOMBOLA_DEV_TOKENS" envDefault:"false"`
}

// FromEnv builds the full configuration from environment variables so main
// stays lean.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	// Comma-separated broker lists tend to pick up blanks and repeats.
	cfg.Kafka.Brokers = pstrings.DedupeAndTrim(cfg.Kafka.Brokers)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Raffle.EntranceFee <= 0 {
		return fmt.Errorf("entrance fee must be positive, got %d", c.Raffle.EntranceFee)
	}
	if c.Raffle.PrizeShareBps < 0 || c.Raffle.PrizeShareBps > 10_000 {
		return fmt.Errorf("prize share must be 0..10000 bps, got %d", c.Raffle.PrizeShareBps)
	}
	if c.Raffle.MinRoundDuration < 0 {
		return fmt.Errorf("min round duration must not be negative, got %s", c.Raffle.MinRoundDuration)
	}
	return nil
}
