package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	Storage     StorageConfig
	Database    DatabaseConfig
	Mongo       MongoConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Recognition RecognitionConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

// StorageConfig selects the repository backend. Postgres is the default;
// mongo keeps the document-store deployment option and memory backs local
// development without any infrastructure.
type StorageConfig struct {
	Driver string
}

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMongo    = "mongo"
	StorageDriverMemory   = "memory"
)

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret      string
	AllowAnonymous bool
}

// RecognitionConfig drives the Gemini-backed product recognition endpoint.
// Timeout bounds each call; there is no unlimited wait on the inference
// service.
type RecognitionConfig struct {
	Enabled           bool
	APIKey            string
	Model             string
	Timeout           time.Duration
	RequestsPerMinute int
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("SERVER_ALLOWED_ORIGINS", "http://localhost:5173")
	viper.SetDefault("STORAGE_DRIVER", StorageDriverPostgres)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "shelflife")
	viper.SetDefault("MONGO_COLLECTION", "products")
	viper.SetDefault("MONGO_TIMEOUT_SECONDS", 10)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("AUTH_ALLOW_ANONYMOUS", true)
	viper.SetDefault("RECOGNITION_ENABLED", true)
	viper.SetDefault("RECOGNITION_MODEL", "gemini-2.0-flash")
	viper.SetDefault("RECOGNITION_TIMEOUT_SECONDS", 30)
	viper.SetDefault("RECOGNITION_REQUESTS_PER_MINUTE", 10)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Env:            viper.GetString("SERVER_ENV"),
			AllowedOrigins: strings.Split(viper.GetString("SERVER_ALLOWED_ORIGINS"), ","),
		},
		Storage: StorageConfig{
			Driver: viper.GetString("STORAGE_DRIVER"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Mongo: MongoConfig{
			URI:        viper.GetString("MONGO_URI"),
			Database:   viper.GetString("MONGO_DATABASE"),
			Collection: viper.GetString("MONGO_COLLECTION"),
			Timeout:    time.Duration(viper.GetInt("MONGO_TIMEOUT_SECONDS")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Auth: AuthConfig{
			JWTSecret:      viper.GetString("JWT_SECRET"),
			AllowAnonymous: viper.GetBool("AUTH_ALLOW_ANONYMOUS"),
		},
		Recognition: RecognitionConfig{
			Enabled:           viper.GetBool("RECOGNITION_ENABLED"),
			APIKey:            viper.GetString("GEMINI_API_KEY"),
			Model:             viper.GetString("RECOGNITION_MODEL"),
			Timeout:           time.Duration(viper.GetInt("RECOGNITION_TIMEOUT_SECONDS")) * time.Second,
			RequestsPerMinute: viper.GetInt("RECOGNITION_REQUESTS_PER_MINUTE"),
		},
	}
}

// Validate checks that every setting the enabled features depend on is
// present. It reports all missing keys at once so a misconfigured deployment
// fails fast with one actionable message instead of dying key by key.
func (c *Config) Validate() error {
	var missing []string

	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if c.Database.User == "" {
			missing = append(missing, "DB_USER")
		}
		if c.Database.Password == "" {
			missing = append(missing, "DB_PASSWORD")
		}
		if c.Database.Database == "" {
			missing = append(missing, "DB_DATABASE")
		}
	case StorageDriverMongo:
		if c.Mongo.URI == "" {
			missing = append(missing, "MONGO_URI")
		}
		if c.Mongo.Database == "" {
			missing = append(missing, "MONGO_DATABASE")
		}
	case StorageDriverMemory:
		// nothing to check
	default:
		return fmt.Errorf("invalid STORAGE_DRIVER %q: must be one of %s, %s, %s",
			c.Storage.Driver, StorageDriverPostgres, StorageDriverMongo, StorageDriverMemory)
	}

	if c.Recognition.Enabled && c.Recognition.APIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}

	if !c.Auth.AllowAnonymous && c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return nil
}

// ConnString builds the postgres connection string for the configured
// database.
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.Schema)
}
