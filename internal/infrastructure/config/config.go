package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=5000"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth   AuthConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	Sweep  SweepConfig
	Public PublicConfig
}

type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET, required"`
	JWTExpire  time.Duration `env:"JWT_EXPIRE,  default=720h"`
	BcryptCost int           `env:"BCRYPT_COST, default=10"`
}

type MongoConfig struct {
	URI         string `env:"MONGO_URI,       default=mongodb://localhost:27017"`
	Database    string `env:"MONGO_DB,        default=daftlink"`
	MaxPoolSize uint64 `env:"MONGO_POOL_SIZE, default=50"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// SweepConfig drives the periodic expiry of overdue chains.
type SweepConfig struct {
	Schedule string        `env:"SWEEP_SCHEDULE, default=@every 5m"`
	LockTTL  time.Duration `env:"SWEEP_LOCK_TTL, default=1m"`
}

// PublicConfig limits the unauthenticated engagement endpoints per client IP.
type PublicConfig struct {
	EngagementRate  float64 `env:"ENGAGEMENT_RATE,  default=5"`
	EngagementBurst int     `env:"ENGAGEMENT_BURST, default=20"`
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through l. Tests pass envconfig.MapLookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// MustLoad is Load that panics, for use at process start.
func MustLoad(ctx context.Context) *Config {
	cfg, err := Load(ctx)
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) validate() error {
	if c.Auth.JWTExpire <= 0 {
		return errors.New("JWT_EXPIRE must be positive")
	}
	if c.Sweep.LockTTL <= 0 {
		return errors.New("SWEEP_LOCK_TTL must be positive")
	}
	if c.Public.EngagementRate <= 0 || c.Public.EngagementBurst < 1 {
		return errors.New("ENGAGEMENT_RATE and ENGAGEMENT_BURST must be positive")
	}
	return nil
}
