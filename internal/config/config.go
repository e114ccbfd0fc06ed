package config

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Evaluator EvaluatorConfig
	Scoring   ScoringConfig
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	// Пул соединений и логирование SQL-запросов
	MaxOpenConns       int  `mapstructure:"max_open_conns"`
	MaxIdleConns       int  `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMin int  `mapstructure:"conn_max_lifetime_min"`
	LogQueries         bool `mapstructure:"log_queries"`
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт). Используется для всех режимов.
	// Для 'single', если не пуст, используется первый адрес из списка.
	Addrs []string `mapstructure:"addrs"`

	// Addr: Альтернативный адрес для режима 'single' (для обратной совместимости).
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	// MaxRetries: Максимальное количество попыток переподключения (-1 - бесконечно). По умолчанию 0 (без ретраев).
	MaxRetries int `mapstructure:"max_retries"`

	// MinRetryBackoff: Минимальный интервал между попытками (в миллисекундах). По умолчанию 8ms.
	MinRetryBackoff int `mapstructure:"min_retry_backoff"`

	// MaxRetryBackoff: Максимальный интервал между попытками (в миллисекундах). По умолчанию 512ms.
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"`
}

// EvaluatorConfig содержит настройки внешнего оценщика (LLM-сервис)
type EvaluatorConfig struct {
	// Provider: "openai" или "noop" (для локальной разработки без ключа)
	Provider    string  `mapstructure:"provider"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	TimeoutSec  int     `mapstructure:"timeout_sec"`
}

// ScoringConfig содержит именованные константы конвейера оценки.
// Смешивание баллов и пороги — настройка, а не магические числа.
type ScoringConfig struct {
	MCQWeight            float64 `mapstructure:"mcq_weight"`
	ClarifierWeight      float64 `mapstructure:"clarifier_weight"`
	MCQStrengthThreshold float64 `mapstructure:"mcq_strength_threshold"`
	MaturityThreshold    float64 `mapstructure:"maturity_threshold"`
	HighPriorityCutoff   float64 `mapstructure:"high_priority_cutoff"`
	MediumPriorityCutoff float64 `mapstructure:"medium_priority_cutoff"`
}

// RateLimitConfig содержит настройки rate limiting для дорогих
// (обращающихся к оценщику) endpoints
type RateLimitConfig struct {
	MaxRequests int `mapstructure:"max_requests"`
	WindowSec   int `mapstructure:"window_sec"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Load загружает конфигурацию из файла
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Новый экземпляр Viper, чтобы избежать глобального состояния

	// 1. Значения по умолчанию
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.readtimeout", 15)
	vip.SetDefault("server.writetimeout", 30)
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("database.max_open_conns", 25)
	vip.SetDefault("database.max_idle_conns", 10)
	vip.SetDefault("database.conn_max_lifetime_min", 60)
	vip.SetDefault("database.log_queries", false)
	vip.SetDefault("evaluator.provider", "openai")
	vip.SetDefault("evaluator.temperature", 0.0)
	vip.SetDefault("evaluator.timeout_sec", 45)
	vip.SetDefault("scoring.mcq_weight", 0.4)
	vip.SetDefault("scoring.clarifier_weight", 0.6)
	vip.SetDefault("scoring.mcq_strength_threshold", 3.5)
	vip.SetDefault("scoring.maturity_threshold", 3.0)
	vip.SetDefault("scoring.high_priority_cutoff", 1.5)
	vip.SetDefault("scoring.medium_priority_cutoff", 0.5)
	vip.SetDefault("rate_limit.max_requests", 10)
	vip.SetDefault("rate_limit.window_sec", 60)

	// 2. Привязываем переменные окружения ЯВНО
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("evaluator.provider", "EVALUATOR_PROVIDER")
	vip.BindEnv("evaluator.api_key", "OPENAI_API_KEY")
	vip.BindEnv("evaluator.base_url", "OPENAI_BASE_URL")
	vip.BindEnv("evaluator.model", "OPENAI_MODEL")

	vip.BindEnv("server.port", "SERVER_PORT")

	// 3. Путь к файлу конфигурации
	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	// 4. Анмаршалим конфигурацию (файл + env vars)
	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Логирование конфигурации (только в debug режиме)
	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Addr: %s", cfg.Redis.Addr)
		log.Printf("Redis Mode: %s", cfg.Redis.Mode)
		log.Printf("Evaluator Provider: %s", cfg.Evaluator.Provider)
		log.Printf("Evaluator Model: %s", cfg.Evaluator.Model)
		log.Printf("Evaluator API Key Set: %t", cfg.Evaluator.APIKey != "")
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("-----------------------------------------")
	}

	// 6. Проверка обязательных параметров
	if cfg.Evaluator.Provider == "openai" && cfg.Evaluator.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required when evaluator provider is openai")
	}
	if cfg.Scoring.MCQWeight+cfg.Scoring.ClarifierWeight <= 0 {
		return nil, fmt.Errorf("scoring weights must sum to a positive value")
	}

	return &cfg, nil
}
