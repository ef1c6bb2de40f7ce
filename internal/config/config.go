package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/couchcryptid/walkable-stations/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	KafkaEnabled     bool
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration
	LookupConcurrency  int

	// HeartRails API configuration.
	GeoAPIURL     string
	ExpressAPIURL string
	APITimeout    time.Duration
	APIRetries    int
	APIBackoff    time.Duration
	APIRateLimit  time.Duration

	// Lookup defaults.
	LineProfile          string
	DefaultMaxWalkMin    int
	DefaultMaxCandidates int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	apiTimeout, err := parseDuration("API_TIMEOUT", "10s", false)
	if err != nil {
		return nil, err
	}
	apiBackoff, err := parseDuration("API_BACKOFF", "500ms", true)
	if err != nil {
		return nil, err
	}
	apiRateLimit, err := parseDuration("API_RATE_LIMIT", "100ms", true)
	if err != nil {
		return nil, err
	}
	apiRetries, err := parseInt("API_RETRIES", 2, 0, maxAPIRetries)
	if err != nil {
		return nil, err
	}
	concurrency, err := parseInt("LOOKUP_CONCURRENCY", 4, 1, maxLookupConcurrency)
	if err != nil {
		return nil, err
	}
	maxWalk, err := parseInt("DEFAULT_MAX_WALK_MIN", domain.DefaultMaxWalkMin, 1, domain.MaxWalkMinLimit)
	if err != nil {
		return nil, err
	}
	maxCandidates, err := parseInt("DEFAULT_MAX_CANDIDATES", domain.DefaultMaxCandidates, 1, domain.MaxCandidatesLimit)
	if err != nil {
		return nil, err
	}

	kafkaEnabled := true
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "station-lookup-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "station-lookup-results"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "walkable-stations"),
		KafkaEnabled:       kafkaEnabled,
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
		LookupConcurrency:  concurrency,

		GeoAPIURL:     sharedcfg.EnvOrDefault("GEO_API_URL", "https://geoapi.heartrails.com/api/json"),
		ExpressAPIURL: sharedcfg.EnvOrDefault("EXPRESS_API_URL", "https://express.heartrails.com/api/json"),
		APITimeout:    apiTimeout,
		APIRetries:    apiRetries,
		APIBackoff:    apiBackoff,
		APIRateLimit:  apiRateLimit,

		LineProfile:          sharedcfg.EnvOrDefault("LINE_PROFILE", domain.ProfileBranded),
		DefaultMaxWalkMin:    maxWalk,
		DefaultMaxCandidates: maxCandidates,
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}
	if cfg.GeoAPIURL == "" || cfg.ExpressAPIURL == "" {
		return nil, errors.New("GEO_API_URL and EXPRESS_API_URL must not be empty")
	}
	switch cfg.LineProfile {
	case domain.ProfileBranded, domain.ProfileGeneric:
	default:
		return nil, fmt.Errorf("invalid LINE_PROFILE %q: want %s or %s", cfg.LineProfile, domain.ProfileBranded, domain.ProfileGeneric)
	}

	return cfg, nil
}

// DefaultBounds returns the configured bounds for requests that omit them.
func (c *Config) DefaultBounds() domain.Bounds {
	return domain.Bounds{MaxWalkMin: c.DefaultMaxWalkMin, MaxCandidates: c.DefaultMaxCandidates}
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

const (
	maxAPIRetries        = 10
	maxLookupConcurrency = 64
)

func parseInt(key string, def, minimum, maximum int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minimum || n > maximum {
		return 0, fmt.Errorf("invalid %s: must be an integer between %d and %d", key, minimum, maximum)
	}
	return n, nil
}
