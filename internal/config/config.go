package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Store        StoreConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Kafka        KafkaConfig
	Commerce     CommerceConfig
	Payment      PaymentConfig
	RateLimit    RateLimitConfig
	Renewal      RenewalConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// Store backends.
const (
	StoreBackendFile     = "file"
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
)

// StoreConfig selects where named collections live.
type StoreConfig struct {
	Backend         string
	DataDir         string
	CacheEnabled    bool
	CacheTTLSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// NotificationConfig controls where domain events are forwarded.
type NotificationConfig struct {
	LogOnly bool
}

// KafkaConfig configures the event publisher. An empty broker list disables it.
type KafkaConfig struct {
	Brokers    []string
	Topic      string
	BufferSize int
}

// RoleDiscount grants a percentage off to holders of a platform role.
type RoleDiscount struct {
	RoleID  string
	Percent float64
}

// LoyaltyReward is a discount that can be bought with points.
type LoyaltyReward struct {
	Points   int
	Discount float64
}

// CommerceConfig holds the options consumed by cart, discount and fulfilment logic.
type CommerceConfig struct {
	ReferralNewUserDiscount float64
	ReferrerRewardDiscount  float64
	RoleDiscounts           []RoleDiscount
	OrderCounterName        string
	OrderIDPrefix           string
	PointsPerOrder          int
	LoyaltyRewards          []LoyaltyReward
}

// PaymentConfig holds the store's payment destinations.
type PaymentConfig struct {
	UPIID       string
	PayeeName   string
	Currency    string
	LTCAddress  string
	USDTAddress string
	BTCAddress  string
}

// RateLimitConfig bounds interactions per actor.
type RateLimitConfig struct {
	Enabled       bool
	Limit         int
	WindowSeconds int
}

// RenewalConfig schedules renewal reminders.
type RenewalConfig struct {
	ReminderDays    int
	IntervalMinutes int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	roleDiscounts, err := parseRoleDiscounts(os.Getenv("ROLE_DISCOUNTS"))
	if err != nil {
		return nil, fmt.Errorf("invalid ROLE_DISCOUNTS: %w", err)
	}
	rewards, err := parseLoyaltyRewards(getEnv("LOYALTY_REWARDS", "100:50,250:150"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOYALTY_REWARDS: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "storefront-tickets"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Store: StoreConfig{
			Backend:         strings.ToLower(getEnv("STORE_BACKEND", StoreBackendFile)),
			DataDir:         getEnv("STORE_DATA_DIR", "data"),
			CacheEnabled:    getEnvAsBool("STORE_CACHE_ENABLED", false),
			CacheTTLSeconds: getEnvAsInt("STORE_CACHE_TTL_SECONDS", 60),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Notification: NotificationConfig{
			LogOnly: getEnvAsBool("NOTIFY_LOG_ONLY", false),
		},
		Kafka: KafkaConfig{
			Brokers:    getEnvAsList("KAFKA_BROKERS"),
			Topic:      getEnv("KAFKA_TOPIC", "storefront.events"),
			BufferSize: getEnvAsInt("KAFKA_BUFFER_SIZE", 256),
		},
		Commerce: CommerceConfig{
			ReferralNewUserDiscount: getEnvAsFloat("REFERRAL_NEW_USER_DISCOUNT", 0),
			ReferrerRewardDiscount:  getEnvAsFloat("REFERRER_REWARD_DISCOUNT", 0),
			RoleDiscounts:           roleDiscounts,
			OrderCounterName:        getEnv("ORDER_COUNTER_NAME", "last_order_number"),
			OrderIDPrefix:           getEnv("ORDER_ID_PREFIX", "ORD"),
			PointsPerOrder:          getEnvAsInt("LOYALTY_POINTS_PER_ORDER", 10),
			LoyaltyRewards:          rewards,
		},
		Payment: PaymentConfig{
			UPIID:       os.Getenv("PAYMENT_UPI_ID"),
			PayeeName:   getEnv("PAYMENT_PAYEE_NAME", "YourStore"),
			Currency:    getEnv("PAYMENT_CURRENCY", "INR"),
			LTCAddress:  os.Getenv("PAYMENT_LTC_ADDRESS"),
			USDTAddress: os.Getenv("PAYMENT_USDT_TRC20_ADDRESS"),
			BTCAddress:  os.Getenv("PAYMENT_BTC_ADDRESS"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvAsBool("RATE_LIMIT_ENABLED", true),
			Limit:         getEnvAsInt("RATE_LIMIT_REQUESTS", 30),
			WindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 10),
		},
		Renewal: RenewalConfig{
			ReminderDays:    getEnvAsInt("RENEWAL_REMINDER_DAYS", 3),
			IntervalMinutes: getEnvAsInt("RENEWAL_CHECK_INTERVAL_MINUTES", 24*60),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func (s StoreConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

func (r RenewalConfig) Interval() time.Duration {
	if r.IntervalMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(r.IntervalMinutes) * time.Minute
}

// Enabled reports whether any broker is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// parseRoleDiscounts reads "role:percent,role:percent".
func parseRoleDiscounts(raw string) ([]RoleDiscount, error) {
	var out []RoleDiscount
	for _, pair := range splitList(raw) {
		role, pct, err := splitPair(pair)
		if err != nil {
			return nil, err
		}
		percent, err := strconv.ParseFloat(pct, 64)
		if err != nil || percent < 0 || percent > 100 {
			return nil, fmt.Errorf("percent %q out of range", pct)
		}
		out = append(out, RoleDiscount{RoleID: role, Percent: percent})
	}
	return out, nil
}

// parseLoyaltyRewards reads "points:amount,points:amount".
func parseLoyaltyRewards(raw string) ([]LoyaltyReward, error) {
	var out []LoyaltyReward
	for _, pair := range splitList(raw) {
		pts, amt, err := splitPair(pair)
		if err != nil {
			return nil, err
		}
		points, err := strconv.Atoi(pts)
		if err != nil || points <= 0 {
			return nil, fmt.Errorf("points %q must be a positive integer", pts)
		}
		amount, err := strconv.ParseFloat(amt, 64)
		if err != nil || amount <= 0 {
			return nil, fmt.Errorf("discount %q must be positive", amt)
		}
		out = append(out, LoyaltyReward{Points: points, Discount: amount})
	}
	return out, nil
}

func splitPair(pair string) (string, string, error) {
	key, val, ok := strings.Cut(pair, ":")
	key, val = strings.TrimSpace(key), strings.TrimSpace(val)
	if !ok || key == "" || val == "" {
		return "", "", fmt.Errorf("malformed entry %q", pair)
	}
	return key, val, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string) []string {
	return splitList(os.Getenv(key))
}
