// config предоставляет структуру конфигурации auth-core и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"golang.org/x/crypto/bcrypt"
)

// EnvLocal — окружение разработки, в нём допускаются короткие секреты.
const EnvLocal = "local"

// Бэкенды хранилища отзывов.
const (
	RevocationBackendPostgres = "postgres"
	RevocationBackendRedis    = "redis"
)

// minSecretLen — минимальная длина HMAC-секрета вне local-окружения.
const minSecretLen = 32

// Config — корневая конфигурация сервиса.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env        string           `yaml:"env" env:"ENV" env-default:"local"`
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	Hasher     HasherConfig     `yaml:"hasher"`
	DB         DBConfig         `yaml:"db"`
	Redis      RedisConfig      `yaml:"redis"`
	Revocation RevocationConfig `yaml:"revocation"`
	Timeouts   TimeoutConfig    `yaml:"timeouts"`
}

// HTTPConfig — сетевые настройки HTTP-сервера.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// AuthConfig содержит параметры выпуска и валидации токенов.
type AuthConfig struct {
	JWTSecret       string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"1h"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"168h"`
	Issuer          string        `yaml:"issuer" env:"ISSUER" env-default:"auth-core"`
	Audience        []string      `yaml:"audience" env:"AUDIENCE" env-default:"auth-core-client"`
	Leeway          time.Duration `yaml:"leeway" env:"JWT_LEEWAY" env-default:"5s"`
}

// HasherConfig — параметры bcrypt.
type HasherConfig struct {
	Cost    int `yaml:"cost" env:"BCRYPT_COST" env-default:"12"`
	Workers int `yaml:"workers" env:"HASH_WORKERS" env-default:"0"`
}

// DBConfig — настройки подключения к базе данных.
type DBConfig struct {
	DatabaseURL string `yaml:"db_url" env:"DATABASE_URL" env-required:"true"`
	// SkipMigrations отключает применение миграций при старте.
	SkipMigrations bool `yaml:"skip_migrations" env:"DB_SKIP_MIGRATIONS"`
}

// RedisConfig — подключение к Redis (нужно только для redis-бэкенда отзывов).
type RedisConfig struct {
	RedisURL string `yaml:"redis_url" env:"REDIS_URL"`
	Prefix   string `yaml:"prefix" env:"REDIS_PREFIX" env-default:"auth:revoked:"`
}

// RevocationConfig — выбор хранилища отзывов и период очистки.
type RevocationConfig struct {
	Backend       string        `yaml:"backend" env:"REVOCATION_BACKEND" env-default:"postgres"`
	PurgeInterval time.Duration `yaml:"purge_interval" env:"REVOCATION_PURGE_INTERVAL" env-default:"30m"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	Request time.Duration `yaml:"request" env:"REQUEST_TIMEOUT" env-default:"5s"`
}

// Validate проверяет согласованность значений после загрузки.
func (c *Config) Validate() error {
	var errs []error

	if c.Env != EnvLocal && len(c.Auth.JWTSecret) < minSecretLen {
		errs = append(errs, fmt.Errorf("auth.jwt_secret must be at least %d bytes outside %q env", minSecretLen, EnvLocal))
	}

	if c.Auth.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("auth.access_token_ttl must be positive"))
	}

	if c.Auth.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("auth.refresh_token_ttl must be positive"))
	}

	if c.Auth.Leeway < 0 {
		errs = append(errs, errors.New("auth.leeway must not be negative"))
	}

	if c.Hasher.Cost < bcrypt.MinCost || c.Hasher.Cost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("hasher.cost must be in [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost))
	}

	switch c.Revocation.Backend {
	case RevocationBackendPostgres:
	case RevocationBackendRedis:
		if c.Redis.RedisURL == "" {
			errs = append(errs, errors.New("redis.redis_url is required for redis revocation backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("revocation.backend %q is not supported", c.Revocation.Backend))
	}

	if c.Revocation.PurgeInterval <= 0 {
		errs = append(errs, errors.New("revocation.purge_interval must be positive"))
	}

	if c.Timeouts.Request <= 0 {
		errs = append(errs, errors.New("timeouts.request must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}

	return nil
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// После чтения файла ENV-переменные накладываются поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) error {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("config file %q does not exist: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return fmt.Errorf("failed to overlay env: %w", err)
		}

		return nil
	}

	switch {
	case path != "":
		// 1) Явный путь.
		if err := tryRead(path); err != nil {
			return nil, err
		}
	case os.Getenv("CONFIG_PATH") != "":
		// 2) CONFIG_PATH.
		if err := tryRead(os.Getenv("CONFIG_PATH")); err != nil {
			return nil, err
		}
	default:
		if _, err := os.Stat("local.yaml"); err == nil {
			// 3) ./local.yaml.
			if err := tryRead("local.yaml"); err != nil {
				return nil, err
			}
		} else if err := cleanenv.ReadEnv(&cfg); err != nil {
			// 4) Только ENV.
			return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
