package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	AppName   string `env:"APP_NAME" env-default:"my-todo-api"`
	AppEnv    string `env:"APP_ENV" env-default:"dev"`
	AppPort   string `env:"APP_PORT" env-default:"3000"`
	LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `env:"LOG_FORMAT" env-default:"text"`

	DB        DBConfig
	Redis     RedisConfig
	RabbitMQ  RabbitMQConfig
	RateLimit RateLimitConfig
}

type DBConfig struct {
	Host         string `env:"DB_HOST" env-default:"db"`
	Port         string `env:"DB_PORT" env-default:"5432"`
	User         string `env:"DB_USER" env-default:"postgres"`
	Password     string `env:"DB_PASSWORD" env-default:""`
	Name         string `env:"DB_NAME" env-default:"todo_db"`
	SSLMode      string `env:"DB_SSLMODE" env-default:"disable"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" env-default:"10"`
}

// RedisConfig leaves Host empty to run without the cache and rate limiter.
type RedisConfig struct {
	Host          string        `env:"REDIS_HOST" env-default:""`
	Port          string        `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword string        `env:"REDIS_PASSWORD" env-default:""`
	RedisDB       int           `env:"REDIS_DB" env-default:"0"`
	CacheTTL      time.Duration `env:"REDIS_CACHE_TTL" env-default:"60s"`
}

func (c RedisConfig) Enabled() bool { return c.Host != "" }

// RabbitMQConfig leaves URL empty to run without task events.
type RabbitMQConfig struct {
	URL string `env:"RABBITMQ_URL" env-default:""`
}

func (c RabbitMQConfig) Enabled() bool { return c.URL != "" }

type RateLimitConfig struct {
	Capacity   int     `env:"RATE_LIMIT_CAPACITY" env-default:"5"`
	RefillRate float64 `env:"RATE_LIMIT_REFILL" env-default:"0.5"`
}

// DSN renders the key/value connection string understood by the pgx driver.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if cfg.DB.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", cfg.DB.MaxOpenConns)
	}
	return &cfg, nil
}
