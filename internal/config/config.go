package config

import (
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Cache    CacheConfig
	Orders   OrdersConfig
	Webhook  WebhookConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

func (d DatabaseConfig) ConnectionString() string {
	return "host=" + d.Host +
		" port=" + strconv.Itoa(d.Port) +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" sslmode=" + d.SSLMode
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers       []string
	OrdersTopic   string
	ConsumerGroup string
}

type CacheConfig struct {
	ProductListTTL time.Duration
	OrderDetailTTL time.Duration
}

type OrdersConfig struct {
	MinOrderAmount decimal.Decimal
}

type WebhookConfig struct {
	BaseURL      string
	Timeout      time.Duration
	MaxAttempts  int
	InitialDelay time.Duration
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnvInt("SERVER_PORT", 8082),
			ReadTimeout:  time.Duration(getEnvInt("SERVER_READ_TIMEOUT", 30)) * time.Second,
			WriteTimeout: time.Duration(getEnvInt("SERVER_WRITE_TIMEOUT", 30)) * time.Second,
		},
		Database: DatabaseConfig{
			Host:         getEnvString("DB_HOST", "localhost"),
			Port:         getEnvInt("DB_PORT", 5432),
			User:         getEnvString("DB_USER", "acme"),
			Password:     getEnvString("DB_PASSWORD", "acme"),
			Name:         getEnvString("DB_NAME", "acme_commerce"),
			SSLMode:      getEnvString("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Redis: RedisConfig{
			Host:     getEnvString("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnvString("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:       []string{getEnvString("KAFKA_BROKERS", "localhost:9092")},
			OrdersTopic:   getEnvString("KAFKA_ORDERS_TOPIC", "commerce.orders"),
			ConsumerGroup: getEnvString("KAFKA_CONSUMER_GROUP", "commerce-notifier"),
		},
		Cache: CacheConfig{
			ProductListTTL: time.Duration(getEnvInt("CACHE_PRODUCT_LIST_TTL", 300)) * time.Second,
			OrderDetailTTL: time.Duration(getEnvInt("CACHE_ORDER_DETAIL_TTL", 60)) * time.Second,
		},
		Orders: OrdersConfig{
			MinOrderAmount: getEnvDecimal("MIN_ORDER_AMOUNT", decimal.NewFromInt(1)),
		},
		Webhook: WebhookConfig{
			BaseURL:      getEnvString("SHIPMENT_WEBHOOK_URL", "https://jsonplaceholder.typicode.com"),
			Timeout:      time.Duration(getEnvInt("SHIPMENT_WEBHOOK_TIMEOUT", 10)) * time.Second,
			MaxAttempts:  getEnvInt("SHIPMENT_WEBHOOK_MAX_ATTEMPTS", 3),
			InitialDelay: time.Duration(getEnvInt("SHIPMENT_WEBHOOK_RETRY_DELAY_MS", 500)) * time.Millisecond,
		},
	}
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}
