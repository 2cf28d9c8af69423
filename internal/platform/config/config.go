package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr      string
	LogLevel  string
	LogFormat string

	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Onboarding OnboardingConfig
}

// DatabaseConfig points at the onboarding records. An empty URL selects the
// in-memory stores.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the evaluation snapshot cache. An empty URL keeps
// snapshots in memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit stream. No brokers means audit events go to
// the outbox (with a database) or memory.
type KafkaConfig struct {
	Brokers           []string
	AuditTopic        string
	TopicPartitions   int32
	ReplicationFactor int16
}

// OnboardingConfig tunes the evaluation service. SeedPath optionally names a
// YAML file of sample records loaded at startup.
type OnboardingConfig struct {
	CatalogPath        string
	SeedPath           string
	SnapshotTTL        time.Duration
	RescoreInterval    time.Duration
	RescoreConcurrency int
	AuditBuffer        int
	AuditSampleRate    float64
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var errs []string
	cfg := Server{
		Addr:      getEnv("ONBOARD_ADDR", ":8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 10, &errs),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5, &errs),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute, &errs),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10, &errs),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2, &errs),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second, &errs),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second, &errs),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second, &errs),
		},
		Kafka: KafkaConfig{
			Brokers:           splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic:        getEnv("KAFKA_AUDIT_TOPIC", "onboarding.audit"),
			TopicPartitions:   int32(getInt("KAFKA_AUDIT_PARTITIONS", 3, &errs)),
			ReplicationFactor: int16(getInt("KAFKA_AUDIT_REPLICATION", 1, &errs)),
		},
		Onboarding: OnboardingConfig{
			CatalogPath:        getEnv("ONBOARD_CATALOG_PATH", "config/catalog.yaml"),
			SeedPath:           os.Getenv("ONBOARD_SEED_PATH"),
			SnapshotTTL:        getDuration("ONBOARD_SNAPSHOT_TTL", 24*time.Hour, &errs),
			RescoreInterval:    getDuration("ONBOARD_RESCORE_INTERVAL", 0, &errs),
			RescoreConcurrency: getInt("ONBOARD_RESCORE_CONCURRENCY", 8, &errs),
			AuditBuffer:        getInt("ONBOARD_AUDIT_BUFFER", 1024, &errs),
			AuditSampleRate:    getFloat("ONBOARD_AUDIT_SAMPLE_RATE", 1, &errs),
		},
	}

	if cfg.Onboarding.RescoreConcurrency <= 0 {
		errs = append(errs, "ONBOARD_RESCORE_CONCURRENCY must be positive")
	}
	if len(errs) > 0 {
		return Server{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int, errs *[]string) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return v
}

func getFloat(key string, def float64, errs *[]string) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return v
}

func getDuration(key string, def time.Duration, errs *[]string) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
