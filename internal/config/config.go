package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config - структура для хранения конфигурации приложения
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`

	// Postgres pool
	DBMaxConns int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns int32         `env:"DB_MIN_CONNS" envDefault:"1"`
	DBConnTTL  time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"30m"`

	// Redis Config
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Webhook Config
	WebhookURL        string        `env:"WEBHOOK_URL"`
	WebhookSecret     string        `env:"WEBHOOK_SECRET"`
	WebhookTimeout    time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"5s"`
	WebhookMaxRetries int           `env:"WEBHOOK_MAX_RETRIES" envDefault:"3"`
	WebhookBaseDelay  time.Duration `env:"WEBHOOK_BASE_DELAY" envDefault:"1s"`

	// Emergency Config
	PanicGracePeriod time.Duration `env:"PANIC_GRACE_PERIOD" envDefault:"5s"`

	// Scoring Config
	LocationFreshness  time.Duration `env:"LOCATION_FRESHNESS" envDefault:"5m"`
	InitialSafetyScore int           `env:"INITIAL_SAFETY_SCORE" envDefault:"85"`
	ScoreDangerDecay   int           `env:"SCORE_DANGER_DECAY" envDefault:"20"`
	ScoreCautionDecay  int           `env:"SCORE_CAUTION_DECAY" envDefault:"5"`
	ScoreRecoveryRate  int           `env:"SCORE_RECOVERY_RATE" envDefault:"5"`
	ScoreSafeDwell     time.Duration `env:"SCORE_SAFE_DWELL" envDefault:"2m"`
	ScoreStalePenalty  int           `env:"SCORE_STALE_PENALTY" envDefault:"10"`
	ScoreSweepInterval time.Duration `env:"SCORE_SWEEP_INTERVAL" envDefault:"1m"`

	// Ingest Config
	TrailMaxSamples      int           `env:"TRAIL_MAX_SAMPLES" envDefault:"50"`
	TrailMaxAge          time.Duration `env:"TRAIL_MAX_AGE" envDefault:"30m"`
	IngestMaxClockSkew   time.Duration `env:"INGEST_MAX_CLOCK_SKEW" envDefault:"2m"`
	AutoRegisterSubjects bool          `env:"AUTO_REGISTER_SUBJECTS" envDefault:"false"`
	PersistQueueSize     int           `env:"PERSIST_QUEUE_SIZE" envDefault:"1024"`

	// Hub Config
	HubQueueSize int `env:"HUB_QUEUE_SIZE" envDefault:"256"`

	// Zones
	ZonesFile string `env:"ZONES_FILE"`

	// Kafka Config (зеркалирование событий, пусто - выключено)
	KafkaBrokers []string `env:"KAFKA_BROKERS"`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"subject-events"`

	// MQTT Config (приём координат с устройств, пусто - выключено)
	MQTTBroker   string `env:"MQTT_BROKER"`
	MQTTClientID string `env:"MQTT_CLIENT_ID" envDefault:"geo-safety-monitor"`
	MQTTTopic    string `env:"MQTT_TOPIC" envDefault:"safety/subjects/+/location"`
	MQTTUsername string `env:"MQTT_USERNAME"`
	MQTTPassword string `env:"MQTT_PASSWORD"`

	// API Keys for authentication
	APIKeys []string `env:"API_KEYS"`
}

// LoadConfig загружает конфигурацию из переменных окружения и .env файла
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла (если есть)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("ошибка загрузки файла .env: %w", err)
	}

	cfg := &Config{
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		DBMaxConns:           int32(getEnvAsInt("DB_MAX_CONNS", 10)),
		DBMinConns:           int32(getEnvAsInt("DB_MIN_CONNS", 1)),
		DBConnTTL:            getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
		StoreDriver:          getEnv("STORE_DRIVER", StoreDriverPostgres),
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "json"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:            os.Getenv("REDIS_PASSWORD"),
		RedisDB:              getEnvAsInt("REDIS_DB", 0),
		WebhookURL:           os.Getenv("WEBHOOK_URL"),
		WebhookSecret:        os.Getenv("WEBHOOK_SECRET"),
		WebhookTimeout:       getEnvAsDuration("WEBHOOK_TIMEOUT", 5*time.Second),
		WebhookMaxRetries:    getEnvAsInt("WEBHOOK_MAX_RETRIES", 3),
		WebhookBaseDelay:     getEnvAsDuration("WEBHOOK_BASE_DELAY", time.Second),
		PanicGracePeriod:     getEnvAsDuration("PANIC_GRACE_PERIOD", 5*time.Second),
		LocationFreshness:    getEnvAsDuration("LOCATION_FRESHNESS", 5*time.Minute),
		InitialSafetyScore:   getEnvAsInt("INITIAL_SAFETY_SCORE", 85),
		ScoreDangerDecay:     getEnvAsInt("SCORE_DANGER_DECAY", 20),
		ScoreCautionDecay:    getEnvAsInt("SCORE_CAUTION_DECAY", 5),
		ScoreRecoveryRate:    getEnvAsInt("SCORE_RECOVERY_RATE", 5),
		ScoreSafeDwell:       getEnvAsDuration("SCORE_SAFE_DWELL", 2*time.Minute),
		ScoreStalePenalty:    getEnvAsInt("SCORE_STALE_PENALTY", 10),
		ScoreSweepInterval:   getEnvAsDuration("SCORE_SWEEP_INTERVAL", time.Minute),
		TrailMaxSamples:      getEnvAsInt("TRAIL_MAX_SAMPLES", 50),
		TrailMaxAge:          getEnvAsDuration("TRAIL_MAX_AGE", 30*time.Minute),
		IngestMaxClockSkew:   getEnvAsDuration("INGEST_MAX_CLOCK_SKEW", 2*time.Minute),
		AutoRegisterSubjects: getEnvAsBool("AUTO_REGISTER_SUBJECTS", false),
		PersistQueueSize:     getEnvAsInt("PERSIST_QUEUE_SIZE", 1024),
		HubQueueSize:         getEnvAsInt("HUB_QUEUE_SIZE", 256),
		ZonesFile:            os.Getenv("ZONES_FILE"),
		KafkaBrokers:         getEnvAsList("KAFKA_BROKERS"),
		KafkaTopic:           getEnv("KAFKA_TOPIC", "subject-events"),
		MQTTBroker:           os.Getenv("MQTT_BROKER"),
		MQTTClientID:         getEnv("MQTT_CLIENT_ID", "geo-safety-monitor"),
		MQTTTopic:            getEnv("MQTT_TOPIC", "safety/subjects/+/location"),
		MQTTUsername:         os.Getenv("MQTT_USERNAME"),
		MQTTPassword:         os.Getenv("MQTT_PASSWORD"),
		APIKeys:              getEnvAsList("API_KEYS"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is required")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.PanicGracePeriod <= 0 {
		return fmt.Errorf("PANIC_GRACE_PERIOD must be positive")
	}
	if c.LocationFreshness <= 0 {
		return fmt.Errorf("LOCATION_FRESHNESS must be positive")
	}
	if c.InitialSafetyScore < 0 || c.InitialSafetyScore > 100 {
		return fmt.Errorf("INITIAL_SAFETY_SCORE must be within 0..100")
	}
	if c.TrailMaxSamples < 1 {
		return fmt.Errorf("TRAIL_MAX_SAMPLES must be at least 1")
	}
	return nil
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt возвращает значение переменной окружения как int или значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool возвращает значение переменной окружения как bool или значение по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration возвращает значение переменной окружения как time.Duration или значение по умолчанию
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}

// getEnvAsList разбирает список через запятую, пустые элементы отбрасываются
func getEnvAsList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
