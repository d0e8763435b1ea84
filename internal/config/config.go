// backend-go/internal/config/config.go
package config

import (
	"log"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Cache    CacheConfig
	Kafka    KafkaConfig
	Storage  StorageConfig
	Drive    DriveConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	LogLevel       string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

// DatabaseConfig selects the report store backend. Driver is one of
// "postgres", "sqlite" or "pebble".
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
	PebbleDir  string
}

type AppConfig struct {
	ExportDir string
	ImportDir string
}

type CacheConfig struct {
	Enabled       bool
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	TTLSeconds    int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type StorageConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	UseSSL       bool
	ExportPrefix string
	ImportPrefix string
}

type DriveConfig struct {
	CredentialsJSON string
	FolderID        string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("LOG_LEVEL", "")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 60)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_DRIVER", "postgres")
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "inspection_reports")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("SQLITE_PATH", "./data/reports.db")
		viper.SetDefault("PEBBLE_DIR", "./data/pebble")
		viper.SetDefault("APP_EXPORT_DIR", "./data/exports")
		viper.SetDefault("APP_IMPORT_DIR", "./data/imports")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_TTL_SECONDS", 60)
		viper.SetDefault("KAFKA_BROKERS", "")
		viper.SetDefault("KAFKA_TOPIC", "report-events")
		viper.SetDefault("STORAGE_ENDPOINT", "")
		viper.SetDefault("STORAGE_ACCESS_KEY", "")
		viper.SetDefault("STORAGE_SECRET_KEY", "")
		viper.SetDefault("STORAGE_BUCKET", "")
		viper.SetDefault("STORAGE_REGION", "us-east-1")
		viper.SetDefault("STORAGE_USE_SSL", true)
		viper.SetDefault("STORAGE_EXPORT_PREFIX", "exports")
		viper.SetDefault("STORAGE_IMPORT_PREFIX", "imports")
		viper.SetDefault("GOOGLE_DRIVE_CREDENTIALS_JSON", "")
		viper.SetDefault("GOOGLE_DRIVE_FOLDER_ID", "")

		// Read from environment variables
		viper.AutomaticEnv()

		// Ensure export and import directories exist
		ensureDir(viper.GetString("APP_EXPORT_DIR"))
		ensureDir(viper.GetString("APP_IMPORT_DIR"))

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				LogLevel:       viper.GetString("LOG_LEVEL"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Driver:     strings.ToLower(viper.GetString("DB_DRIVER")),
				Host:       viper.GetString("DB_HOST"),
				Port:       viper.GetString("DB_PORT"),
				User:       viper.GetString("DB_USER"),
				Password:   viper.GetString("DB_PASSWORD"),
				DBName:     viper.GetString("DB_NAME"),
				SSLMode:    viper.GetString("DB_SSLMODE"),
				SQLitePath: viper.GetString("SQLITE_PATH"),
				PebbleDir:  viper.GetString("PEBBLE_DIR"),
			},
			App: AppConfig{
				ExportDir: viper.GetString("APP_EXPORT_DIR"),
				ImportDir: viper.GetString("APP_IMPORT_DIR"),
			},
			Cache: CacheConfig{
				Enabled:       viper.GetBool("CACHE_ENABLED"),
				RedisURL:      viper.GetString("REDIS_URL"),
				RedisHost:     viper.GetString("REDIS_HOST"),
				RedisPort:     viper.GetString("REDIS_PORT"),
				RedisPassword: viper.GetString("REDIS_PASSWORD"),
				RedisDB:       viper.GetInt("REDIS_DB"),
				TTLSeconds:    viper.GetInt("CACHE_TTL_SECONDS"),
			},
			Kafka: KafkaConfig{
				Brokers: SplitList(viper.GetString("KAFKA_BROKERS")),
				Topic:   viper.GetString("KAFKA_TOPIC"),
			},
			Storage: StorageConfig{
				Endpoint:     viper.GetString("STORAGE_ENDPOINT"),
				AccessKey:    viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey:    viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:       viper.GetString("STORAGE_BUCKET"),
				Region:       viper.GetString("STORAGE_REGION"),
				UseSSL:       viper.GetBool("STORAGE_USE_SSL"),
				ExportPrefix: viper.GetString("STORAGE_EXPORT_PREFIX"),
				ImportPrefix: viper.GetString("STORAGE_IMPORT_PREFIX"),
			},
			Drive: DriveConfig{
				CredentialsJSON: viper.GetString("GOOGLE_DRIVE_CREDENTIALS_JSON"),
				FolderID:        viper.GetString("GOOGLE_DRIVE_FOLDER_ID"),
			},
		}
	})

	return instance
}

// StorageEnabled reports whether enough object storage settings are present
// to build a client.
func (c StorageConfig) StorageEnabled() bool {
	return c.Endpoint != "" && c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// SplitList splits a comma-separated setting, dropping blanks.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func ensureDir(dir string) {
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
