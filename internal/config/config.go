package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"carrental/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Storage    StorageConfig    `yaml:"storage"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Booking    BookingConfig    `yaml:"booking"`
	Cars       []models.Car     `yaml:"cars"`
	Places     []models.Place   `yaml:"places"`
	Admins     []AdminAccount   `yaml:"admins"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

type StorageConfig struct {
	Driver           string        `yaml:"driver"`
	Key              string        `yaml:"key"`
	Path             string        `yaml:"path"`
	RedisPrefix      string        `yaml:"redis_prefix"`
	AutosaveInterval time.Duration `yaml:"autosave_interval"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIAuthConfig struct {
	HeaderUser     string `yaml:"header_user"`
	HeaderPassword string `yaml:"header_password"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type BookingConfig struct {
	// SurchargeRate is nil when unset; an explicit 0 disables the surcharge.
	SurchargeRate   *float64      `yaml:"surcharge_rate"`
	SessionTTL      time.Duration `yaml:"session_ttl"`
	RestockOnCancel bool          `yaml:"restock_on_cancel"`
}

// Surcharge returns the configured rate, or the default when unset.
func (b BookingConfig) Surcharge() float64 {
	if b.SurchargeRate == nil {
		return models.DefaultSurchargeRate
	}
	return *b.SurchargeRate
}

type AdminAccount struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Expand environment variables before parsing YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Storage.Path == "" {
			return errors.New("storage.path is required for sqlite")
		}
	case DriverRedis:
		if c.Redis.Address == "" {
			return errors.New("redis.address is required for redis storage")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Booking.SurchargeRate != nil && *c.Booking.SurchargeRate < 0 {
		return errors.New("booking.surcharge_rate must not be negative")
	}

	for _, a := range c.Admins {
		if a.Username == "" || a.Password == "" {
			return errors.New("admin accounts need username and password")
		}
	}

	if err := ValidatePlaces(c.Places); err != nil {
		return err
	}
	return ValidateCars(c.Cars)
}

func ValidateCars(cars []models.Car) error {
	if len(cars) == 0 {
		return errors.New("at least one car is required")
	}
	ids := make(map[int64]bool)
	for _, car := range cars {
		if car.ID < 0 {
			return fmt.Errorf("car '%s' has negative ID %d", car.DisplayName(), car.ID)
		}
		if ids[car.ID] {
			return fmt.Errorf("duplicate car ID found: %d", car.ID)
		}
		if car.Price < 0 {
			return fmt.Errorf("car %d has negative price", car.ID)
		}
		if car.Quantity < 0 {
			return fmt.Errorf("car %d has negative quantity", car.ID)
		}
		ids[car.ID] = true
	}
	return nil
}

func ValidatePlaces(places []models.Place) error {
	ids := make(map[string]bool)
	for _, p := range places {
		if p.ID == "" {
			return fmt.Errorf("place '%s' has empty ID", p.Name)
		}
		if ids[p.ID] {
			return fmt.Errorf("duplicate place ID found: %s", p.ID)
		}
		ids[p.ID] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "carrental"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverMemory
	}
	if c.Storage.Key == "" {
		c.Storage.Key = models.SnapshotKey
	}
	if c.Storage.AutosaveInterval <= 0 {
		c.Storage.AutosaveInterval = models.DefaultAutosaveInterval
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.Auth.HeaderUser == "" {
		c.API.Auth.HeaderUser = "x-admin-user"
	}
	if c.API.Auth.HeaderPassword == "" {
		c.API.Auth.HeaderPassword = "x-admin-password"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Booking.SurchargeRate == nil {
		rate := models.DefaultSurchargeRate
		c.Booking.SurchargeRate = &rate
	}
	if c.Booking.SessionTTL <= 0 {
		c.Booking.SessionTTL = models.DefaultSessionTTL
	}
}
