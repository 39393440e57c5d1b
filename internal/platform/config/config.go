package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration. Built once in main and threaded
// through constructors so no component reads the environment at call time.
type Config struct {
	Addr          string
	PostgresDSN   string
	JWTSigningKey string

	Redis RedisConfig
	Kafka KafkaConfig

	// ScanHour is the local hour (0-23) at which the daily detection scan is
	// enqueued.
	ScanHour int
}

// RedisConfig holds connection settings for the key/value configuration store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds broker and topic settings for the job/notification queue.
// Empty Brokers means no queue backend is configured.
type KafkaConfig struct {
	Brokers           []string
	ScanJobTopic      string
	NotificationTopic string
	ConsumerGroup     string
}

// Capabilities describes which optional backends are present. Components that
// need the queue take this as an explicit dependency instead of probing global
// state, so tests can flip it freely.
type Capabilities struct {
	QueueAvailable bool
}

// Capabilities derives the capability set from the configuration.
func (c Config) Capabilities() Capabilities {
	return Capabilities{QueueAvailable: len(c.Kafka.Brokers) > 0}
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("VIGIL_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("VIGIL_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default; must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	scanHour := 2
	if v := os.Getenv("VIGIL_SCAN_HOUR"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h >= 0 && h <= 23 {
			scanHour = h
		}
	}

	var brokers []string
	if v := os.Getenv("VIGIL_KAFKA_BROKERS"); v != "" {
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Config{
		Addr:          addr,
		PostgresDSN:   os.Getenv("VIGIL_POSTGRES_DSN"),
		JWTSigningKey: jwtSigningKey,
		ScanHour:      scanHour,
		Redis: RedisConfig{
			URL:          os.Getenv("VIGIL_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:           brokers,
			ScanJobTopic:      "vigil.scan-jobs",
			NotificationTopic: "vigil.notifications",
			ConsumerGroup:     "vigil-workers",
		},
	}
}
