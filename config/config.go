package config

import (
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/joho/godotenv"

	"github.com/Ramsey-B/clover/pkg/dedupe"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/routes"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/tracing/exporters"
)

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"clover-api"`
	Version                       string   `env:"APP_VERSION" env-default:"dev"`
	Port                          int      `env:"PORT" env-default:"3004"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"60"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	ReadHeaderTimeoutSeconds      int      `env:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST,PUT"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// Tracing
	TracingEnabled bool   `env:"TRACING_ENABLED" env-default:"false"`
	OTLPEndpoint   string `env:"OTLP_ENDPOINT" env-default:""`
	OTLPProtocol   string `env:"OTLP_PROTOCOL" env-default:"grpc"`
	OTLPInsecure   bool   `env:"OTLP_INSECURE" env-default:"true"`

	// Kafka Producer settings
	KafkaEnabled      bool   `env:"KAFKA_ENABLED" env-default:"false"`
	KafkaBrokers      string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaOutputTopic  string `env:"KAFKA_OUTPUT_TOPIC" env-default:"dedupe-events"`
	KafkaBatchSize    int    `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout int    `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks int    `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression  string `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Dedupe
	DefaultThreshold   float64 `env:"DEDUPE_DEFAULT_THRESHOLD" env-default:"70"`
	BulkWorkerCount    int     `env:"DEDUPE_BULK_WORKER_COUNT" env-default:"4"`
	BulkChunkSize      int     `env:"DEDUPE_BULK_CHUNK_SIZE" env-default:"256"`
	BulkTimeoutSeconds int     `env:"DEDUPE_BULK_TIMEOUT_SECONDS" env-default:"0"`
	DefaultMergedBy    string  `env:"DEDUPE_DEFAULT_MERGED_BY" env-default:"system"`
}

// Load reads an optional .env file and binds the environment onto Config
func Load() (*Config, error) {
	// A missing .env is fine; the process environment still applies
	_ = godotenv.Load()

	var cfg Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FinderConfig returns the pair-scoring worker pool settings
func (c *Config) FinderConfig() matching.FinderConfig {
	return matching.FinderConfig{
		Workers:   c.BulkWorkerCount,
		ChunkSize: c.BulkChunkSize,
	}
}

// DedupeConfig returns the dedupe service settings
func (c *Config) DedupeConfig() dedupe.Config {
	return dedupe.Config{
		DefaultThreshold: c.DefaultThreshold,
		BulkTimeout:      time.Duration(c.BulkTimeoutSeconds) * time.Second,
		DefaultMergedBy:  c.DefaultMergedBy,
		Finder:           c.FinderConfig(),
	}
}

// KafkaConfig returns the event producer settings
func (c *Config) KafkaConfig() kafka.ProducerConfig {
	return kafka.ProducerConfig{
		Brokers:      kafka.ParseBrokers(c.KafkaBrokers),
		Topic:        c.KafkaOutputTopic,
		BatchSize:    c.KafkaBatchSize,
		BatchTimeout: time.Duration(c.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: c.KafkaRequiredAcks,
		Compression:  c.KafkaCompression,
	}
}

// TracingConfig returns the tracer provider settings
func (c *Config) TracingConfig() tracing.ProviderConfig {
	return tracing.ProviderConfig{
		ServiceName: c.AppName,
		OTLP: exporters.OTLPConfig{
			Endpoint: c.OTLPEndpoint,
			Protocol: c.OTLPProtocol,
			Insecure: c.OTLPInsecure,
		},
	}
}

// RouterConfig returns the HTTP API settings
func (c *Config) RouterConfig() routes.RouterConfig {
	return routes.RouterConfig{
		ServiceName:  c.AppName,
		AllowOrigins: c.AllowOrigins,
		AllowMethods: c.AllowMethods,
		Tracing:      c.TracingEnabled,
	}
}

// ServerConfig returns the HTTP server settings
func (c *Config) ServerConfig() routes.ServerConfig {
	return routes.ServerConfig{
		Port:              c.Port,
		ReadTimeout:       time.Duration(c.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(c.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(c.HttpServerIdleTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(c.ReadHeaderTimeoutSeconds) * time.Second,
		MaxHeaderBytes:    c.MaxHeaderBytes,
	}
}
