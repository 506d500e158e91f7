package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures runtime configuration for the storefront API.
type Config struct {
	HTTP      HTTPConfig
	Database  DatabaseConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Mail      MailConfig
	Auth      AuthConfig
	Rewards   RewardsConfig
	Outbox    OutboxConfig
	Payment   PaymentConfig
	Telemetry TelemetryConfig
	Service   ServiceConfig
}

type HTTPConfig struct {
	Port           int
	MetricsPath    string
	ShutdownGrace  int
	RequestTimeout time.Duration
	CORSOrigins    []string
}

type DatabaseConfig struct {
	URL            string
	AutoMigrate    bool
	MigrationsPath string
}

// MongoConfig points at the document store for CMS content and settings.
// An empty URI selects the in-memory store.
type MongoConfig struct {
	URI      string
	Database string
}

// RedisConfig points at the cache and one-time code store. An empty Addr
// disables the catalog cache and keeps codes in memory.
type RedisConfig struct {
	Addr            string
	Password        string
	DB              int
	CatalogCacheTTL time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type MailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type AuthConfig struct {
	TokenSecret string
	TokenTTL    time.Duration
	CodeTTL     time.Duration
}

type RewardsConfig struct {
	PointsPerHundred int
}

type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
}

type PaymentConfig struct {
	GatewayBaseURL string
	Timeout        time.Duration
}

type TelemetryConfig struct {
	LogLevel       string
	OTelEndpoint   string
	OTelInsecure   bool
	EnableTracing  bool
	EnableMetrics  bool
	SampleRate     float64
	MetricInterval time.Duration
}

type ServiceConfig struct {
	Name        string
	Version     string
	Environment string
}

const (
	defaultHTTPPort         = 8080
	defaultMetricsPath      = "/metrics"
	defaultShutdownGrace    = 15
	defaultRequestTimeout   = 30 * time.Second
	defaultMigrationsPath   = ""
	defaultAutoMigrate      = true
	defaultMongoDatabase    = "cafe"
	defaultCatalogCacheTTL  = 10 * time.Minute
	defaultKafkaTopic       = "cafe.events"
	defaultSMTPPort         = 587
	defaultMailFrom         = "Cafe <orders@cafe.local>"
	defaultTokenTTL         = 24 * time.Hour
	defaultCodeTTL          = 15 * time.Minute
	defaultPointsPerHundred = 10
	defaultOutboxInterval   = 2 * time.Second
	defaultOutboxBatchSize  = 50
	defaultOutboxAttempts   = 5
	defaultGatewayBaseURL   = "https://api.razorpay.com/v1"
	defaultGatewayTimeout   = 10 * time.Second
	defaultServiceName      = "cafe-api"
	defaultServiceVersion   = "0.1.0"
	defaultEnvironment      = "development"
	defaultLogLevel         = "info"
	defaultOTelSampleRate   = 1.0
	defaultMetricInterval   = 30 * time.Second
)

// Load reads configuration from environment variables, applying defaults when needed.
func Load() (*Config, error) {
	httpCfg, err := loadHTTPConfig()
	if err != nil {
		return nil, fmt.Errorf("loading HTTP config: %w", err)
	}

	redisCfg, err := loadRedisConfig()
	if err != nil {
		return nil, fmt.Errorf("loading redis config: %w", err)
	}

	mailCfg, err := loadMailConfig()
	if err != nil {
		return nil, fmt.Errorf("loading mail config: %w", err)
	}

	authCfg, err := loadAuthConfig()
	if err != nil {
		return nil, fmt.Errorf("loading auth config: %w", err)
	}

	rewardsCfg, err := loadRewardsConfig()
	if err != nil {
		return nil, fmt.Errorf("loading rewards config: %w", err)
	}

	outboxCfg, err := loadOutboxConfig()
	if err != nil {
		return nil, fmt.Errorf("loading outbox config: %w", err)
	}

	paymentCfg, err := loadPaymentConfig()
	if err != nil {
		return nil, fmt.Errorf("loading payment config: %w", err)
	}

	telCfg, err := loadTelemetryConfig()
	if err != nil {
		return nil, fmt.Errorf("loading telemetry config: %w", err)
	}

	return &Config{
		HTTP:      httpCfg,
		Database:  loadDatabaseConfig(),
		Mongo:     loadMongoConfig(),
		Redis:     redisCfg,
		Kafka:     loadKafkaConfig(),
		Mail:      mailCfg,
		Auth:      authCfg,
		Rewards:   rewardsCfg,
		Outbox:    outboxCfg,
		Payment:   paymentCfg,
		Telemetry: telCfg,
		Service:   loadServiceConfig(),
	}, nil
}

func loadHTTPConfig() (HTTPConfig, error) {
	port, err := getIntEnv("API_HTTP_PORT", defaultHTTPPort)
	if err != nil {
		return HTTPConfig{}, err
	}

	shutdownGrace, err := getIntEnv("API_SHUTDOWN_GRACE_SECONDS", defaultShutdownGrace)
	if err != nil {
		return HTTPConfig{}, err
	}

	requestTimeout, err := getDurationEnv("API_REQUEST_TIMEOUT", defaultRequestTimeout)
	if err != nil {
		return HTTPConfig{}, err
	}

	return HTTPConfig{
		Port:           port,
		MetricsPath:    getEnvOrDefault("API_METRICS_PATH", defaultMetricsPath),
		ShutdownGrace:  shutdownGrace,
		RequestTimeout: requestTimeout,
		CORSOrigins:    getListEnv("API_CORS_ORIGINS"),
	}, nil
}

func loadDatabaseConfig() DatabaseConfig {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		databaseURL = buildDatabaseURL()
	}

	return DatabaseConfig{
		URL:            databaseURL,
		AutoMigrate:    getBoolEnv("AUTO_MIGRATE", defaultAutoMigrate),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", defaultMigrationsPath),
	}
}

func loadMongoConfig() MongoConfig {
	return MongoConfig{
		URI:      os.Getenv("MONGO_URI"),
		Database: getEnvOrDefault("MONGO_DATABASE", defaultMongoDatabase),
	}
}

func loadRedisConfig() (RedisConfig, error) {
	db, err := getIntEnv("REDIS_DB", 0)
	if err != nil {
		return RedisConfig{}, err
	}

	ttl, err := getDurationEnv("CATALOG_CACHE_TTL", defaultCatalogCacheTTL)
	if err != nil {
		return RedisConfig{}, err
	}

	return RedisConfig{
		Addr:            os.Getenv("REDIS_ADDR"),
		Password:        os.Getenv("REDIS_PASSWORD"),
		DB:              db,
		CatalogCacheTTL: ttl,
	}, nil
}

func loadKafkaConfig() KafkaConfig {
	return KafkaConfig{
		Brokers: getListEnv("KAFKA_BROKERS"),
		Topic:   getEnvOrDefault("KAFKA_TOPIC", defaultKafkaTopic),
	}
}

func loadMailConfig() (MailConfig, error) {
	port, err := getIntEnv("SMTP_PORT", defaultSMTPPort)
	if err != nil {
		return MailConfig{}, err
	}

	host := os.Getenv("SMTP_HOST")

	return MailConfig{
		Enabled:  getBoolEnv("MAIL_ENABLED", host != ""),
		Host:     host,
		Port:     port,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     getEnvOrDefault("MAIL_FROM", defaultMailFrom),
	}, nil
}

func loadAuthConfig() (AuthConfig, error) {
	secret := os.Getenv("AUTH_TOKEN_SECRET")
	if secret == "" {
		return AuthConfig{}, fmt.Errorf("AUTH_TOKEN_SECRET is required")
	}

	tokenTTL, err := getDurationEnv("AUTH_TOKEN_TTL", defaultTokenTTL)
	if err != nil {
		return AuthConfig{}, err
	}

	codeTTL, err := getDurationEnv("AUTH_CODE_TTL", defaultCodeTTL)
	if err != nil {
		return AuthConfig{}, err
	}

	return AuthConfig{
		TokenSecret: secret,
		TokenTTL:    tokenTTL,
		CodeTTL:     codeTTL,
	}, nil
}

func loadRewardsConfig() (RewardsConfig, error) {
	points, err := getIntEnv("REWARD_POINTS_PER_HUNDRED", defaultPointsPerHundred)
	if err != nil {
		return RewardsConfig{}, err
	}
	if points < 0 {
		return RewardsConfig{}, fmt.Errorf("invalid REWARD_POINTS_PER_HUNDRED: must not be negative")
	}
	return RewardsConfig{PointsPerHundred: points}, nil
}

func loadOutboxConfig() (OutboxConfig, error) {
	interval, err := getDurationEnv("OUTBOX_POLL_INTERVAL", defaultOutboxInterval)
	if err != nil {
		return OutboxConfig{}, err
	}

	batchSize, err := getIntEnv("OUTBOX_BATCH_SIZE", defaultOutboxBatchSize)
	if err != nil {
		return OutboxConfig{}, err
	}

	maxAttempts, err := getIntEnv("OUTBOX_MAX_ATTEMPTS", defaultOutboxAttempts)
	if err != nil {
		return OutboxConfig{}, err
	}

	return OutboxConfig{
		PollInterval: interval,
		BatchSize:    batchSize,
		MaxAttempts:  maxAttempts,
	}, nil
}

func loadPaymentConfig() (PaymentConfig, error) {
	timeout, err := getDurationEnv("PAYMENT_GATEWAY_TIMEOUT", defaultGatewayTimeout)
	if err != nil {
		return PaymentConfig{}, err
	}

	return PaymentConfig{
		GatewayBaseURL: getEnvOrDefault("PAYMENT_GATEWAY_BASE_URL", defaultGatewayBaseURL),
		Timeout:        timeout,
	}, nil
}

func loadTelemetryConfig() (TelemetryConfig, error) {
	sampleRate := defaultOTelSampleRate
	if value, ok := os.LookupEnv("OTEL_SAMPLE_RATE"); ok {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return TelemetryConfig{}, fmt.Errorf("invalid OTEL_SAMPLE_RATE: %w", err)
		}
		sampleRate = parsed
	}

	interval, err := getDurationEnv("OTEL_METRIC_EXPORT_INTERVAL", defaultMetricInterval)
	if err != nil {
		return TelemetryConfig{}, err
	}

	return TelemetryConfig{
		LogLevel:       getEnvOrDefault("LOG_LEVEL", defaultLogLevel),
		OTelEndpoint:   getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTelInsecure:   getBoolEnv("OTEL_EXPORTER_OTLP_INSECURE", true),
		EnableTracing:  getBoolEnv("OTEL_ENABLE_TRACING", true),
		EnableMetrics:  getBoolEnv("OTEL_ENABLE_METRICS", true),
		SampleRate:     sampleRate,
		MetricInterval: interval,
	}, nil
}

func loadServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:        getEnvOrDefault("API_SERVICE_NAME", defaultServiceName),
		Version:     getEnvOrDefault("SERVICE_VERSION", defaultServiceVersion),
		Environment: getEnvOrDefault("ENVIRONMENT", defaultEnvironment),
	}
}

func buildDatabaseURL() string {
	host := getEnvOrDefault("DB_HOST", "localhost")
	port := getEnvOrDefault("DB_PORT", "5432")
	user := getEnvOrDefault("DB_USER", "postgres")
	password := getEnvOrDefault("DB_PASSWORD", "postgres")
	dbName := getEnvOrDefault("DB_NAME", "cafe")
	sslMode := getEnvOrDefault("DB_SSLMODE", "disable")

	maxConns := getEnvOrDefault("DB_MAX_CONNS", "25")
	minConns := getEnvOrDefault("DB_MIN_CONNS", "5")
	maxLifetime := getEnvOrDefault("DB_MAX_CONN_LIFETIME", "5m")

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&pool_max_conns=%s&pool_min_conns=%s&pool_max_conn_lifetime=%s",
		user, password, host, port, dbName, sslMode, maxConns, minConns, maxLifetime,
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		return value == "true"
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getListEnv(key string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
