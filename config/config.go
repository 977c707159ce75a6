package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Ticket    TicketConfig
	Admission AdmissionConfig
	Notice    NoticeConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	LogLevel       string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type TicketConfig struct {
	SigningKey string
}

type AdmissionConfig struct {
	LockBackend  string // redis | local
	LockTTL      time.Duration
	LockWait     time.Duration
	MaxTxRetries int
}

type NoticeConfig struct {
	QueueBackend      string // redis | memory
	QueueSize         int
	MaxAttempts       int // 暫時性失敗的投遞上限，含第一次
	DiscordWebhookURL string
	AMQPURL           string
}

var AppConfig *Config

// devSigningKey 只供本機開發，release 模式拒絕使用
const devSigningKey = "change-me"

var ErrInsecureSigningKey = errors.New("TICKET_SIGNING_KEY must be set to a non-default value in release mode")

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "postgres")
	v.SetDefault("DB_SSL_MODE", "disable")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("TICKET_SIGNING_KEY", devSigningKey)

	v.SetDefault("ADMISSION_LOCK_BACKEND", "redis")
	v.SetDefault("ADMISSION_LOCK_TTL", 5*time.Second)
	v.SetDefault("ADMISSION_LOCK_WAIT", 3*time.Second)
	v.SetDefault("ADMISSION_MAX_TX_RETRIES", 3)

	v.SetDefault("NOTICE_QUEUE_BACKEND", "redis")
	v.SetDefault("NOTICE_QUEUE_SIZE", 256)
	v.SetDefault("NOTICE_MAX_ATTEMPTS", 3)
	v.SetDefault("DISCORD_WEBHOOK_URL", "")
	v.SetDefault("AMQP_URL", "")
}

// LoadConfig 讀取環境變數（以及 CONFIG_FILE 指定的 yaml），環境變數優先
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	AppConfig = cfg
	return AppConfig, nil
}

func (c *Config) Validate() error {
	if c.Server.GinMode == "release" {
		key := strings.TrimSpace(c.Ticket.SigningKey)
		if key == "" || key == devSigningKey {
			return ErrInsecureSigningKey
		}
	}
	return nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			GinMode:        v.GetString("GIN_MODE"),
			LogLevel:       v.GetString("LOG_LEVEL"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSL_MODE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Ticket: TicketConfig{
			SigningKey: v.GetString("TICKET_SIGNING_KEY"),
		},
		Admission: AdmissionConfig{
			LockBackend:  v.GetString("ADMISSION_LOCK_BACKEND"),
			LockTTL:      v.GetDuration("ADMISSION_LOCK_TTL"),
			LockWait:     v.GetDuration("ADMISSION_LOCK_WAIT"),
			MaxTxRetries: v.GetInt("ADMISSION_MAX_TX_RETRIES"),
		},
		Notice: NoticeConfig{
			QueueBackend:      v.GetString("NOTICE_QUEUE_BACKEND"),
			QueueSize:         v.GetInt("NOTICE_QUEUE_SIZE"),
			MaxAttempts:       v.GetInt("NOTICE_MAX_ATTEMPTS"),
			DiscordWebhookURL: v.GetString("DISCORD_WEBHOOK_URL"),
			AMQPURL:           v.GetString("AMQP_URL"),
		},
	}
}

func LoadTestConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8081",
			GinMode:        "test",
			LogLevel:       "debug",
			AllowedOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5433", // 測試 DB 用 5433 port
			User:     "postgres",
			Password: "postgres",
			DBName:   "test_db",
			SSLMode:  "disable",
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: "6380", // 測試 Redis 用 6380 port
			DB:   1,
		},
		Ticket: TicketConfig{
			SigningKey: "test-signing-key",
		},
		Admission: AdmissionConfig{
			LockBackend:  "local",
			LockTTL:      5 * time.Second,
			LockWait:     3 * time.Second,
			MaxTxRetries: 3,
		},
		Notice: NoticeConfig{
			QueueBackend: "memory",
			QueueSize:    16,
			MaxAttempts:  3,
		},
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
