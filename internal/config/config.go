package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every setting the server needs at startup.
type Config struct {
	Server    ServerConfig
	Logging   LoggingConfig
	Security  SecurityConfig
	Kafka     KafkaConfig
	Store     StoreConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Websocket WebsocketConfig
}

type ServerConfig struct {
	Port string
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Level     string
	Format    string
	Directory string
}

// SecurityConfig holds the session signing secret and the federated identity key.
type SecurityConfig struct {
	JWTSecret          string
	TokenTTL           time.Duration
	FederatedPublicKey string
	FederatedIssuer    string
}

// KafkaConfig describes the change feed. Topics maps an entity to the topics carrying its events.
type KafkaConfig struct {
	Brokers []string
	GroupID string
	Topics  map[string][]string
}

type StoreConfig struct {
	Driver string
}

type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// RedisConfig mirrors the REDIS_* variables; an empty Addr disables caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Prefix   string
}

type WebsocketConfig struct {
	AllowedActions []string
	SendBuffer     int
}

var (
	ErrMissingSecret = errors.New("JWT_SECRET is required")
	ErrUnknownDriver = errors.New("unknown STORE_DRIVER")
)

// Load reads the process environment (already populated by godotenv) into a Config.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getenv("PORT", "8080"),
		},
		Logging: LoggingConfig{
			Level:     getenv("LOG_LEVEL", "info"),
			Format:    getenv("LOG_FORMAT", "json"),
			Directory: getenv("LOG_DIR", "./logs"),
		},
		Security: SecurityConfig{
			JWTSecret:          strings.TrimSpace(os.Getenv("JWT_SECRET")),
			TokenTTL:           getDuration("JWT_TTL", 24*time.Hour),
			FederatedPublicKey: strings.ReplaceAll(os.Getenv("FEDERATED_PUBLIC_KEY"), `\n`, "\n"),
			FederatedIssuer:    strings.TrimSpace(os.Getenv("FEDERATED_ISSUER")),
		},
		Kafka: KafkaConfig{
			Brokers: kafkaBrokers(),
			GroupID: getenv("KAFKA_GROUP_ID", "mesaya-booking"),
			Topics:  kafkaTopics(getenv("KAFKA_TOPIC_PREFIX", "mesaya")),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getenv("STORE_DRIVER", "mongo")),
		},
		Mongo: MongoConfig{
			URI:      getenv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getenv("MONGO_DATABASE", "mesaya"),
			Timeout:  getDuration("MONGO_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
			TTL:      getDuration("CACHE_TTL", 2*time.Minute),
			Prefix:   getenv("CACHE_PREFIX", "mesaya:directory"),
		},
		Websocket: WebsocketConfig{
			AllowedActions: splitList(getenv("WS_ALLOWED_ACTIONS", "created,updated,deleted,confirmed,cancelled")),
			SendBuffer:     getInt("WS_SEND_BUFFER", 16),
		},
	}

	if cfg.Security.JWTSecret == "" {
		return nil, ErrMissingSecret
	}
	switch cfg.Store.Driver {
	case "mongo", "memory":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Store.Driver)
	}
	return cfg, nil
}

// TopicList flattens Topics into the list handed to the Kafka consumers.
func (k KafkaConfig) TopicList() []string {
	topics := make([]string, 0, len(k.Topics))
	for _, list := range k.Topics {
		topics = append(topics, list...)
	}
	return topics
}

// TopicFor returns the first topic configured for entity.
func (k KafkaConfig) TopicFor(entity string) string {
	if list := k.Topics[entity]; len(list) > 0 {
		return list[0]
	}
	return ""
}

func kafkaBrokers() []string {
	raw := os.Getenv("KAFKA_BROKERS")
	if strings.TrimSpace(raw) == "" {
		raw = os.Getenv("KAFKA_BROKER")
	}
	return splitList(raw)
}

func kafkaTopics(prefix string) map[string][]string {
	entities := []string{"restaurants", "bookings", "reviews", "users"}
	topics := make(map[string][]string, len(entities))
	for _, entity := range entities {
		key := "KAFKA_TOPIC_" + strings.ToUpper(entity)
		if override := splitList(os.Getenv(key)); len(override) > 0 {
			topics[entity] = override
			continue
		}
		topics[entity] = []string{prefix + "." + entity}
	}
	return topics
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
