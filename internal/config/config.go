package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	Database DatabaseConfig
	JWT      JWTConfig
	Cookie   CookieConfig
	Storage  StorageConfig
	Search   SearchConfig
	Cron     CronConfig
	SeedDemo bool

	// EnvFileLoaded is false when no .env file was found
	EnvFileLoaded bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string // mysql or postgres
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// JWTConfig holds token signing configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
}

func (j JWTConfig) AccessTTL() time.Duration {
	return time.Duration(j.AccessTokenMins) * time.Minute
}

func (j JWTConfig) RefreshTTL() time.Duration {
	return time.Duration(j.RefreshTokenDays) * 24 * time.Hour
}

// CookieConfig holds auth cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// StorageConfig selects the blob store for lecture videos and syllabus files
type StorageConfig struct {
	Driver              string // local or firebase
	LocalDir            string
	PublicURL           string
	FirebaseCredentials string
	FirebaseBucket      string
	MaxUploadMB         int
}

// SearchConfig configures the Elasticsearch ticket index. An empty URL
// disables search sync.
type SearchConfig struct {
	ElasticURL string
	Index      string
}

func (s SearchConfig) Enabled() bool {
	return s.ElasticURL != ""
}

// CronConfig holds cron specs for background jobs
type CronConfig struct {
	TokenCleanup string
	NoticeExpiry string
	OverdueSweep string
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	envLoaded := godotenv.Load() == nil

	// Trim spaces for Windows-edited .env files
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	db := loadDatabaseConfig(appMode)
	if db.Driver != "mysql" && db.Driver != "postgres" {
		return nil, fmt.Errorf("invalid DB_DRIVER: '%s' (must be 'mysql' or 'postgres')", db.Driver)
	}

	storage := loadStorageConfig()
	if storage.Driver != "local" && storage.Driver != "firebase" {
		return nil, fmt.Errorf("invalid STORAGE_DRIVER: '%s' (must be 'local' or 'firebase')", storage.Driver)
	}

	config := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "3000"),
		Database: db,
		JWT:      loadJWTConfig(appMode),
		Cookie:   loadCookieConfig(appMode),
		Storage:  storage,
		Search: SearchConfig{
			ElasticURL: getEnv("ELASTIC_URL", ""),
			Index:      getEnv("ELASTIC_TICKET_INDEX", "tickets_v1"),
		},
		Cron: CronConfig{
			TokenCleanup: getEnv("CRON_TOKEN_CLEANUP", "0 3 * * *"),
			NoticeExpiry: getEnv("CRON_NOTICE_EXPIRY", "*/15 * * * *"),
			OverdueSweep: getEnv("CRON_OVERDUE_SWEEP", "0 * * * *"),
		},
		SeedDemo:      getBool("SEED_DEMO_DATA", appMode == "dev"),
		EnvFileLoaded: envLoaded,
	}

	if config.IsProd() && (config.JWT.Secret == defaultSecret || config.JWT.RefreshSecret == defaultRefreshSecret) {
		return nil, fmt.Errorf("PROD_JWT_SECRET and PROD_JWT_REFRESH_SECRET must be set in prod mode")
	}

	AppConfig = config
	return config, nil
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := modePrefix(mode)
	driver := strings.ToLower(getEnv("DB_DRIVER", "mysql"))

	defaultPort, defaultUser := "3306", "root"
	if driver == "postgres" {
		defaultPort, defaultUser = "5432", "postgres"
	}

	return DatabaseConfig{
		Driver:   driver,
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", defaultPort),
		User:     getEnv(prefix+"DB_USER", defaultUser),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "campus_aid_buddy"),
		SSLMode:  getEnv(prefix+"DB_SSLMODE", "disable"),
	}
}

const (
	defaultSecret        = "default_secret"
	defaultRefreshSecret = "default_refresh_secret"
)

func loadJWTConfig(mode string) JWTConfig {
	prefix := modePrefix(mode)
	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", defaultSecret),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", defaultRefreshSecret),
		AccessTokenMins:  getInt("ACCESS_TOKEN_MINUTES", 15),
		RefreshTokenDays: getInt("REFRESH_TOKEN_DAYS", 7),
	}
}

func loadCookieConfig(mode string) CookieConfig {
	return CookieConfig{
		Secure:   getBool(modePrefix(mode)+"COOKIE_SECURE", mode == "prod"),
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		Driver:              strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
		LocalDir:            getEnv("STORAGE_LOCAL_DIR", "./uploads"),
		PublicURL:           strings.TrimRight(getEnv("STORAGE_PUBLIC_URL", "/files"), "/"),
		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		FirebaseBucket:      getEnv("FIREBASE_BUCKET", ""),
		MaxUploadMB:         getInt("MAX_UPLOAD_MB", 512),
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://campus-aid-buddy.app"
	}
	return origins
}
