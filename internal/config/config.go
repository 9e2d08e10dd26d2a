// config предоставляет структуру конфигурации сервиса и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config — корневая конфигурация сервиса.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig    `yaml:"http"`
	Auth     AuthConfig    `yaml:"auth"`
	DB       DBConfig      `yaml:"db"`
	Redis    RedisConfig   `yaml:"redis"`
	Verify   VerifyConfig  `yaml:"verify"`
	Limits   LimitsConfig  `yaml:"limits"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"5s"`
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
//
// Секреты access и refresh обязаны быть заданы и различаться: компрометация
// одного секрета не должна позволять подделывать токены другого вида.
// TTL задаются строкой вида "<целое><s|m|h|d>" (например, "15m", "7d") и
// разбираются на старте; некорректный формат — фатальная ошибка конфигурации,
// а не тихий дефолт.
type AuthConfig struct {
	AccessSecret     string `yaml:"access_secret" env:"JWT_ACCESS_SECRET" env-required:"true"`
	RefreshSecret    string `yaml:"refresh_secret" env:"JWT_REFRESH_SECRET" env-required:"true"`
	AccessExpiresIn  string `yaml:"access_expires_in" env:"JWT_ACCESS_EXPIRES_IN" env-default:"15m"`
	RefreshExpiresIn string `yaml:"refresh_expires_in" env:"JWT_REFRESH_EXPIRES_IN" env-default:"7d"`
	Issuer           string `yaml:"issuer" env:"ISSUER" env-default:"auth-service"`
	BcryptCost       int    `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"12"`

	// Разобранные значения TTL; заполняются в Load после валидации.
	AccessTTL  time.Duration `yaml:"-"`
	RefreshTTL time.Duration `yaml:"-"`
}

// DBConfig — настройки подключения к базе данных.
type DBConfig struct {
	DatabaseURL string `yaml:"db_url" env:"DATABASE_URL" env-required:"true"`
}

// RedisConfig — настройки подключения к Redis (коды верификации, rate limit).
type RedisConfig struct {
	RedisURL string `yaml:"redis_url" env:"REDIS_URL" env-required:"true"`
}

// VerifyConfig — параметры кодов подтверждения телефона.
type VerifyConfig struct {
	CodeTTL time.Duration `yaml:"code_ttl" env:"VERIFY_CODE_TTL" env-default:"10m"`
}

// LimitsConfig — лимиты запросов на auth-эндпойнты и глобально.
type LimitsConfig struct {
	AuthLimit    int           `yaml:"auth_limit" env:"RATE_AUTH_LIMIT" env-default:"5"`
	AuthWindow   time.Duration `yaml:"auth_window" env:"RATE_AUTH_WINDOW" env-default:"15m"`
	GlobalLimit  int           `yaml:"global_limit" env:"RATE_GLOBAL_LIMIT" env-default:"100"`
	GlobalWindow time.Duration `yaml:"global_window" env:"RATE_GLOBAL_WINDOW" env-default:"1m"`
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
// ВАЖНО: после чтения файла накладываем ENV-переменные поверх значений из YAML,
// затем валидируем (секреты, формат TTL).
func Load(path string) (*Config, error) {
	var cfg Config

	// чтение файла + overlay ENV.
	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	switch {
	// 1) Явный путь.
	case path != "":
		if _, err := tryRead(path); err != nil {
			return nil, err
		}

	// 2) CONFIG_PATH.
	case os.Getenv("CONFIG_PATH") != "":
		if _, err := tryRead(os.Getenv("CONFIG_PATH")); err != nil {
			return nil, err
		}

	default:
		// 3) ./local.yaml.
		if _, err := os.Stat("local.yaml"); err == nil {
			if _, err := tryRead("local.yaml"); err != nil {
				return nil, err
			}
			break
		}

		// 4) Только ENV.
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate проверяет конфигурацию и разбирает строковые TTL.
// Любая ошибка здесь фатальна на старте — до обработки запросов дело не доходит.
func (c *Config) validate() error {
	if c.Auth.AccessSecret == "" || c.Auth.RefreshSecret == "" {
		return errors.New("config: both access and refresh signing secrets are required")
	}

	if c.Auth.AccessSecret == c.Auth.RefreshSecret {
		return errors.New("config: access and refresh secrets must differ")
	}

	accessTTL, err := ParseExpiry(c.Auth.AccessExpiresIn)
	if err != nil {
		return fmt.Errorf("config: access_expires_in: %w", err)
	}

	refreshTTL, err := ParseExpiry(c.Auth.RefreshExpiresIn)
	if err != nil {
		return fmt.Errorf("config: refresh_expires_in: %w", err)
	}

	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("config: bcrypt_cost out of range: %d", c.Auth.BcryptCost)
	}

	c.Auth.AccessTTL = accessTTL
	c.Auth.RefreshTTL = refreshTTL

	return nil
}
