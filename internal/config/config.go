// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Shop     ShopConfig
	Mail     MailConfig
	Session  SessionConfig
	AMQP     AMQPConfig
	Media    MediaConfig
	Seller   SellerConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Path     string // sqlite file
	Debug    bool
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev           bool
	Migrations    bool
	SQLMigrations bool
	MigrationsDir string
	Seed          bool
}

// ShopConfig holds the business settings of the shop.
type ShopConfig struct {
	Name         string
	SellerEmail  string
	ContactPhone string
	Timezone     string
	CutoffHour   int
	CutoffMinute int
	Lang         string
}

// MailConfig holds the SMTP relay settings. An empty Host disables delivery.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  int // seconds
}

// SessionConfig holds cookie signing and checkout lifetime settings.
type SessionConfig struct {
	Secret      string
	CheckoutTTL time.Duration
}

// AMQPConfig enables order events when URL is set.
type AMQPConfig struct {
	URL      string
	Exchange string
}

// MediaConfig controls where product photos are stored and served from.
type MediaConfig struct {
	Dir       string
	URLPrefix string
}

// SellerConfig is the account created on startup when missing.
type SellerConfig struct {
	Username string
	Password string
}

// DSN returns the gorm connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	switch d.Driver {
	case DriverMySQL:
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			d.User, d.Password, d.Host, d.Port, d.DBName,
		)
	case DriverSQLite:
		return d.Path
	default:
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
		)
	}
}

// URL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Location resolves the shop timezone, falling back to UTC.
func (s ShopConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Enabled reports whether an SMTP relay is configured.
func (m MailConfig) Enabled() bool { return m.Host != "" }

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	driver := strings.ToLower(getEnv("DB_DRIVER", DriverPostgres))
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Driver:   driver,
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", defaultPort(driver)),
			User:     getEnv("DB_USER", "shop"),
			Password: getEnvFromFile("DB_PASSWORD_FILE", "DB_PASSWORD", "shop123"),
			DBName:   getEnv("DB_NAME", "shop"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Path:     getEnv("DB_PATH", "shop.db"),
			Debug:    getEnvBool("DB_DEBUG", false),
		},
		App: AppConfig{
			Dev:           getEnvBool("DEV", true),
			Migrations:    getEnvBool("MIGRATIONS", true),
			SQLMigrations: getEnvBool("SQL_MIGRATIONS", false),
			MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),
			Seed:          getEnvBool("DB_SEED", false),
		},
		Shop: ShopConfig{
			Name:         getEnv("SHOP_NAME", "Sklep"),
			SellerEmail:  getEnv("SELLER_EMAIL", ""),
			ContactPhone: getEnv("SHOP_CONTACT_PHONE", ""),
			Timezone:     getEnv("SHOP_TIMEZONE", "Europe/Warsaw"),
			CutoffHour:   getEnvInt("SHOP_CUTOFF_HOUR", 15),
			CutoffMinute: getEnvInt("SHOP_CUTOFF_MINUTE", 30),
			Lang:         getEnv("SHOP_LANG", "pl"),
		},
		Mail: MailConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnvFromFile("SMTP_PASSWORD_FILE", "SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "sklep@localhost"),
			Timeout:  getEnvInt("SMTP_TIMEOUT", 10),
		},
		Session: SessionConfig{
			Secret:      getEnvFromFile("SESSION_SECRET_FILE", "SESSION_SECRET", "devsessionsecret"),
			CheckoutTTL: time.Duration(getEnvInt("CHECKOUT_TTL_MINUTES", 60)) * time.Minute,
		},
		AMQP: AMQPConfig{
			URL:      getEnvFromFile("AMQP_URL_FILE", "AMQP_URL", ""),
			Exchange: getEnv("AMQP_EXCHANGE", "shop.orders"),
		},
		Media: MediaConfig{
			Dir:       getEnv("MEDIA_DIR", "media"),
			URLPrefix: getEnv("MEDIA_URL", "/media/"),
		},
		Seller: SellerConfig{
			Username: getEnv("SELLER_USERNAME", "sprzedawca"),
			Password: getEnvFromFile("SELLER_PASSWORD_FILE", "SELLER_PASSWORD", ""),
		},
	}
}

func defaultPort(driver string) int {
	switch driver {
	case DriverMySQL:
		return 3306
	case DriverSQLite:
		return 0
	default:
		return 5432
	}
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvFromFile prefers the trimmed contents of the file named by fileKey
// (docker secrets) over envKey.
func getEnvFromFile(fileKey, envKey, defaultValue string) string {
	if filePath := os.Getenv(fileKey); filePath != "" {
		if content, err := os.ReadFile(filePath); err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return getEnv(envKey, defaultValue)
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}
