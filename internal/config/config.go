package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config хранит конфигурацию сервера
type Config struct {
	ServerAddress    string `json:"server_address"`
	BaseURL          string `json:"base_url"`
	DatabaseDSN      string `json:"database_dsn"`
	PgMigrationsPath string `json:"pg_migrations_path"`
	RedisAddr        string `json:"redis_addr"`
	RedisPassword    string `json:"redis_password"`
	RedisDB          int    `json:"redis_db"`
	CacheTTLSeconds  int    `json:"cache_ttl"`
	ClickQueueSize   int    `json:"click_queue_size"`
	ClickWorkers     int    `json:"click_workers"`
	Environment      string `json:"environment"`
	AuthSecret       string `json:"auth_secret"`
	TrustedSubnet    string `json:"trusted_subnet"`
	EnableHTTPS      bool   `json:"enable_https"`
	TLSCertPath      string `json:"tls_cert_path"`
	TLSKeyPath       string `json:"tls_key_path"`
}

// NewConfig инициализирует конфигурацию на основе аргументов командной строки
func NewConfig() *Config {

	viper.SetDefault("SERVER_ADDRESS", "localhost:8080") // Значения по умолчанию
	viper.SetDefault("BASE_URL", "http://localhost:8080")
	viper.SetDefault("DATABASE_DSN", "")
	viper.SetDefault("PG_MIGRATIONS_PATH", "internal/migrations")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_TTL", 3600)
	viper.SetDefault("CLICK_QUEUE_SIZE", 1024)
	viper.SetDefault("CLICK_WORKERS", 2)
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("AUTH_SECRET", "")
	viper.SetDefault("TRUSTED_SUBNET", "")
	viper.SetDefault("ENABLE_HTTPS", false)
	viper.SetDefault("TLS_CERT_PATH", "cert.pem")
	viper.SetDefault("TLS_KEY_PATH", "key.pem")

	viper.AutomaticEnv()

	// Читаем .env, если есть (не переопределяет переменные окружения!)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // Ошибку игнорируем, если файла нет

	// Определяем флаги, но НЕ задаем в них значения по умолчанию
	serverAddress := flag.String("a", "", "server address")
	baseURL := flag.String("b", "", "base URL")
	databaseDSN := flag.String("d", "", "PostgreSQL DSN")
	redisAddr := flag.String("r", "", "Redis address")
	enableHTTPS := flag.Bool("s", false, "enable HTTPS")
	tlsCertPath := flag.String("cert", "", "path to TLS certificate")
	tlsKeyPath := flag.String("key", "", "path to TLS key")
	configPath := flag.String("c", "", "path to JSON config file")
	trustedSubnet := flag.String("t", "", "trusted subnet in CIDR format")
	flag.StringVar(configPath, "config", "", "path to JSON config file")

	flag.Parse()

	// Загружаем JSON-конфигурацию (если указана)
	if *configPath == "" {
		*configPath = os.Getenv("CONFIG")
	}

	cfg := &Config{}
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			log.Printf("Не удалось прочитать JSON-файл конфигурации %q: %v", *configPath, err)
		} else if err := json.Unmarshal(data, cfg); err != nil {
			log.Printf("Ошибка разбора JSON-файла конфигурации: %v", err)
		}
	}

	// Переменные окружения (viper) имеют приоритет над JSON
	cfg.ServerAddress = stringOr(viper.GetString("SERVER_ADDRESS"), cfg.ServerAddress)
	cfg.BaseURL = stringOr(viper.GetString("BASE_URL"), cfg.BaseURL)
	cfg.DatabaseDSN = stringOr(viper.GetString("DATABASE_DSN"), cfg.DatabaseDSN)
	cfg.PgMigrationsPath = stringOr(viper.GetString("PG_MIGRATIONS_PATH"), cfg.PgMigrationsPath)
	cfg.RedisAddr = stringOr(viper.GetString("REDIS_ADDR"), cfg.RedisAddr)
	cfg.RedisPassword = stringOr(viper.GetString("REDIS_PASSWORD"), cfg.RedisPassword)
	cfg.RedisDB = viper.GetInt("REDIS_DB")
	cfg.CacheTTLSeconds = viper.GetInt("CACHE_TTL")
	cfg.ClickQueueSize = viper.GetInt("CLICK_QUEUE_SIZE")
	cfg.ClickWorkers = viper.GetInt("CLICK_WORKERS")
	cfg.Environment = stringOr(viper.GetString("APP_ENV"), cfg.Environment)
	cfg.AuthSecret = stringOr(viper.GetString("AUTH_SECRET"), cfg.AuthSecret)
	cfg.TrustedSubnet = stringOr(viper.GetString("TRUSTED_SUBNET"), cfg.TrustedSubnet)
	cfg.EnableHTTPS = viper.GetBool("ENABLE_HTTPS")
	cfg.TLSCertPath = stringOr(viper.GetString("TLS_CERT_PATH"), cfg.TLSCertPath)
	cfg.TLSKeyPath = stringOr(viper.GetString("TLS_KEY_PATH"), cfg.TLSKeyPath)

	// Если флаг передан — он важнее окружения
	if *serverAddress != "" {
		cfg.ServerAddress = *serverAddress
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *databaseDSN != "" {
		cfg.DatabaseDSN = *databaseDSN
		os.Setenv("DATABASE_DSN", cfg.DatabaseDSN)
	}
	if *redisAddr != "" {
		cfg.RedisAddr = *redisAddr
	}
	if *trustedSubnet != "" {
		cfg.TrustedSubnet = *trustedSubnet
	}

	// Включаем TLS
	if *enableHTTPS {
		cfg.EnableHTTPS = true
	}
	if *tlsCertPath != "" {
		cfg.TLSCertPath = *tlsCertPath
	}
	if *tlsKeyPath != "" {
		cfg.TLSKeyPath = *tlsKeyPath
	}

	log.Printf("Инициализация конфигурации: ServerAddress=%s", cfg.ServerAddress)
	log.Printf("Инициализация конфигурации: BaseURL=%s", cfg.BaseURL)
	log.Printf("Инициализация конфигурации: RedisAddr=%s", cfg.RedisAddr)
	log.Printf("Инициализация конфигурации: CacheTTL=%ds", cfg.CacheTTLSeconds)
	log.Printf("Инициализация конфигурации: Environment=%s", cfg.Environment)
	log.Printf("Инициализация конфигурации: EnableHTTPS=%v", cfg.EnableHTTPS)

	// Проверка корректности конфигурации
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Ошибка конфигурации: %v\n", err)
	}

	return cfg
}

func stringOr(val, fallback string) string {
	if val != "" {
		return val
	}
	return fallback
}

// CacheTTL возвращает срок жизни кеш-записи. Тот же интервал служит
// окном видимости деактивации/истечения ссылки (см. DESIGN.md).
func (cfg *Config) CacheTTL() time.Duration {
	if cfg.CacheTTLSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(cfg.CacheTTLSeconds) * time.Second
}

// IsProduction сообщает, работает ли сервис в production-режиме.
// В нём нормализатор отклоняет localhost и приватные адреса.
func (cfg *Config) IsProduction() bool {
	return cfg.Environment == "production"
}

// Validate проверяет корректность конфигурации
func (cfg *Config) Validate() error {
	if cfg.ServerAddress == "" {
		return fmt.Errorf("адрес сервера не может быть пустым")
	}
	if cfg.BaseURL == "" {
		return fmt.Errorf("базовый URL не может быть пустым")
	}
	if cfg.DatabaseDSN == "" {
		return fmt.Errorf("адрес подключения к БД не может быть пустым")
	}
	return nil
}
