package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Domenick1991/surgefare/internal/domain"
	"github.com/Domenick1991/surgefare/internal/pricing"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Booking  BookingConfig  `yaml:"booking"`
	Pricing  PricingConfig  `yaml:"pricing"`
	Worker   WorkerConfig   `yaml:"worker"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
	// RateLimit is the number of booking requests per second allowed per client.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
	// CORSOrigin is sent as Access-Control-Allow-Origin.
	CORSOrigin string `yaml:"cors_origin"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	// URL takes precedence over the individual postgres fields.
	URL        string `yaml:"url"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Name       string `yaml:"name"`
	SSLMode    string `yaml:"ssl_mode"`
	SQLitePath string `yaml:"sqlite_path"`
}

func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// Disabled skips the search cache entirely.
	Disabled bool `yaml:"disabled"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingTopic       string   `yaml:"booking_topic"`
	PricingTopic       string   `yaml:"pricing_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type BookingConfig struct {
	WalletID              string `yaml:"wallet_id"`
	InitialWalletBalance  int64  `yaml:"initial_wallet_balance"`
	MaxReferenceAttempts  int    `yaml:"max_reference_attempts"`
	FlightsCacheTTLSecond int    `yaml:"flights_cache_ttl_seconds"`
}

func (b BookingConfig) Wallet() domain.WalletHandle {
	return domain.WalletHandle{ID: b.WalletID, DefaultBalance: b.InitialWalletBalance}
}

func (b BookingConfig) FlightsCacheTTL() time.Duration {
	return time.Duration(b.FlightsCacheTTLSecond) * time.Second
}

type PricingConfig struct {
	SurgeWindowMinutes int   `yaml:"surge_window_minutes"`
	SurgeThreshold     int   `yaml:"surge_threshold"`
	SurgePercent       int64 `yaml:"surge_percent"`
	ResetAfterMinutes  int   `yaml:"reset_after_minutes"`
}

func (p PricingConfig) Policy() pricing.Policy {
	return pricing.Policy{
		SurgeWindow:    time.Duration(p.SurgeWindowMinutes) * time.Minute,
		SurgeThreshold: p.SurgeThreshold,
		SurgePercent:   p.SurgePercent,
		ResetAfter:     time.Duration(p.ResetAfterMinutes) * time.Minute,
	}
}

type WorkerConfig struct {
	SurgeSweepSeconds int `yaml:"surge_sweep_seconds"`
}

func (w WorkerConfig) SurgeSweepInterval() time.Duration {
	return time.Duration(w.SurgeSweepSeconds) * time.Second
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadConfig reads the YAML file at path, applies .env and environment
// overrides and fills defaults. A missing file is not an error: defaults and
// the environment are enough to run locally.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		c.HTTP.Address = v
	}
	if v := os.Getenv("GRPC_ADDRESS"); v != "" {
		c.GRPC.Address = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) applyDefaults() {
	def := pricing.DefaultPolicy()

	setDefault(&c.HTTP.Address, ":8080")
	setDefault(&c.HTTP.CORSOrigin, "*")
	if c.HTTP.RateLimit == 0 {
		c.HTTP.RateLimit = 10
	}
	if c.HTTP.RateBurst == 0 {
		c.HTTP.RateBurst = 20
	}
	setDefault(&c.GRPC.Address, ":9090")

	setDefault(&c.Database.Driver, DriverPostgres)
	setDefault(&c.Database.SSLMode, "disable")
	setDefault(&c.Database.SQLitePath, "surgefare.db")
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}

	setDefault(&c.Redis.Addr, "localhost:6379")

	setDefault(&c.Kafka.BookingTopic, "bookings")
	setDefault(&c.Kafka.PricingTopic, "pricing")
	setDefault(&c.Kafka.NotificationsTopic, "notifications")
	setDefault(&c.Kafka.GroupID, "surgefare-worker")

	setDefault(&c.Booking.WalletID, domain.DefaultWalletID)
	if c.Booking.InitialWalletBalance == 0 {
		c.Booking.InitialWalletBalance = 50000
	}
	if c.Booking.MaxReferenceAttempts == 0 {
		c.Booking.MaxReferenceAttempts = 3
	}
	if c.Booking.FlightsCacheTTLSecond == 0 {
		c.Booking.FlightsCacheTTLSecond = 60
	}

	if c.Pricing.SurgeWindowMinutes == 0 {
		c.Pricing.SurgeWindowMinutes = int(def.SurgeWindow / time.Minute)
	}
	if c.Pricing.SurgeThreshold == 0 {
		c.Pricing.SurgeThreshold = def.SurgeThreshold
	}
	if c.Pricing.SurgePercent == 0 {
		c.Pricing.SurgePercent = def.SurgePercent
	}
	if c.Pricing.ResetAfterMinutes == 0 {
		c.Pricing.ResetAfterMinutes = int(def.ResetAfter / time.Minute)
	}

	if c.Worker.SurgeSweepSeconds == 0 {
		c.Worker.SurgeSweepSeconds = 60
	}

	setDefault(&c.Log.Level, "info")
	setDefault(&c.Log.Format, "text")
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("database.driver: unknown driver %q", c.Database.Driver))
	}
	if c.Booking.InitialWalletBalance < 0 {
		errs = append(errs, errors.New("booking.initial_wallet_balance must not be negative"))
	}
	if c.Booking.MaxReferenceAttempts < 1 {
		errs = append(errs, errors.New("booking.max_reference_attempts must be at least 1"))
	}
	if c.Pricing.SurgeThreshold < 1 {
		errs = append(errs, errors.New("pricing.surge_threshold must be at least 1"))
	}
	if c.Pricing.SurgePercent < 0 {
		errs = append(errs, errors.New("pricing.surge_percent must not be negative"))
	}
	if c.Pricing.SurgeWindowMinutes < 0 || c.Pricing.ResetAfterMinutes < 0 {
		errs = append(errs, errors.New("pricing windows must not be negative"))
	}
	if c.HTTP.RateLimit < 0 || c.HTTP.RateBurst < 0 {
		errs = append(errs, errors.New("http rate limit must not be negative"))
	}
	if c.Worker.SurgeSweepSeconds <= 0 {
		errs = append(errs, errors.New("worker.surge_sweep_seconds must be at least 1"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
