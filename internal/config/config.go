// internal/config/config.go
package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Storage  StorageConfig
	Sheets   SheetsConfig
	Report   ReportConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Driver   string
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	Schema   string
	Table    string
	MaxConns int
}

type CacheConfig struct {
	Enabled       bool
	Backend       string
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	TTLSeconds    int
	MaxEntries    int
}

// StorageConfig points at an S3-compatible bucket for CSV exports
type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	Prefix    string
}

type SheetsConfig struct {
	Enabled         bool
	CredentialsJSON string
	SpreadsheetID   string
	SheetName       string
}

// ReportConfig drives the scheduled export job
type ReportConfig struct {
	Enabled  bool
	Schedule string
	FileName string
}

type LogConfig struct {
	Level string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults()

		// Read from environment variables
		viper.AutomaticEnv()

		instance = fromViper()
	})

	return instance
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_MODE", "debug")
	viper.SetDefault("SERVER_READ_TIMEOUT", 15)
	viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})

	viper.SetDefault("DB_DRIVER", "pgx")
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "stock_health")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_SCHEMA", "analytics")
	viper.SetDefault("DB_METRICS_TABLE", "stock_metrics")
	viper.SetDefault("DB_MAX_CONCURRENT_QUERIES", 10)

	viper.SetDefault("CACHE_ENABLED", true)
	viper.SetDefault("CACHE_BACKEND", "memory")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_HOST", "127.0.0.1")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_TTL_SECONDS", 300)
	viper.SetDefault("CACHE_MAX_ENTRIES", 64)

	viper.SetDefault("STORAGE_ENABLED", false)
	viper.SetDefault("STORAGE_REGION", "us-east-1")
	viper.SetDefault("STORAGE_USE_SSL", true)
	viper.SetDefault("STORAGE_PREFIX", "reorder_recommendations")

	viper.SetDefault("SHEETS_ENABLED", false)
	viper.SetDefault("SHEETS_SHEET_NAME", "Alerts")

	viper.SetDefault("REPORT_ENABLED", false)
	viper.SetDefault("REPORT_SCHEDULE", "0 6 * * *")
	viper.SetDefault("REPORT_FILE_NAME", "reorder_recommendations.csv")

	viper.SetDefault("LOG_LEVEL", "info")
}

func fromViper() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Mode:           viper.GetString("SERVER_MODE"),
			ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Driver:   viper.GetString("DB_DRIVER"),
			URL:      viper.GetString("DATABASE_URL"),
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			DBName:   viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
			Schema:   viper.GetString("DB_SCHEMA"),
			Table:    viper.GetString("DB_METRICS_TABLE"),
			MaxConns: viper.GetInt("DB_MAX_CONCURRENT_QUERIES"),
		},
		Cache: CacheConfig{
			Enabled:       viper.GetBool("CACHE_ENABLED"),
			Backend:       viper.GetString("CACHE_BACKEND"),
			RedisURL:      viper.GetString("REDIS_URL"),
			RedisHost:     viper.GetString("REDIS_HOST"),
			RedisPort:     viper.GetString("REDIS_PORT"),
			RedisPassword: viper.GetString("REDIS_PASSWORD"),
			RedisDB:       viper.GetInt("REDIS_DB"),
			TTLSeconds:    viper.GetInt("CACHE_TTL_SECONDS"),
			MaxEntries:    viper.GetInt("CACHE_MAX_ENTRIES"),
		},
		Storage: StorageConfig{
			Enabled:   viper.GetBool("STORAGE_ENABLED"),
			Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
			AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
			Bucket:    viper.GetString("STORAGE_BUCKET"),
			Region:    viper.GetString("STORAGE_REGION"),
			UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			Prefix:    viper.GetString("STORAGE_PREFIX"),
		},
		Sheets: SheetsConfig{
			Enabled:         viper.GetBool("SHEETS_ENABLED"),
			CredentialsJSON: viper.GetString("GOOGLE_SHEETS_CREDENTIALS_JSON"),
			SpreadsheetID:   viper.GetString("SHEETS_SPREADSHEET_ID"),
			SheetName:       viper.GetString("SHEETS_SHEET_NAME"),
		},
		Report: ReportConfig{
			Enabled:  viper.GetBool("REPORT_ENABLED"),
			Schedule: viper.GetString("REPORT_SCHEDULE"),
			FileName: viper.GetString("REPORT_FILE_NAME"),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
	}
}
