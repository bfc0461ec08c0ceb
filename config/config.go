package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	App           AppConfig
	Firebase      FirebaseConfig
	Geocoder      GeocoderConfig
	Astro         AstroConfig
	Chart         ChartConfig
	Rectification RectificationConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

type FirebaseConfig struct {
	CredentialsPath string
}

// GeocoderConfig points at a Nominatim-compatible search endpoint.
type GeocoderConfig struct {
	BaseURL       string
	Email         string
	Language      string
	Timeout       time.Duration
	RatePerSecond float64
	Limit         int
	CacheTTL      time.Duration
}

type AstroConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type ChartConfig struct {
	Theme             string
	ZodiacType        string
	HouseSystem       string
	Language          string
	GeonamesUsername  string
	CountryTablePath  string
	ThemeDefaultsPath string
	QueueSize         int
	SweepSpec         string
	LockTTL           time.Duration
}

type RectificationConfig struct {
	SessionTTL time.Duration
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			DSN:      getEnv("DB_DSN", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "natalis"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns: getEnvAsInt("DB_MIN_CONNS", 2),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		},
		Geocoder: GeocoderConfig{
			BaseURL:       getEnv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
			Email:         getEnv("GEOCODER_EMAIL", getEnv("NOMINATIM_EMAIL", "")),
			Language:      getEnv("GEOCODER_LANGUAGE", "ru,en"),
			Timeout:       getEnvAsDuration("GEOCODER_TIMEOUT", 6*time.Second),
			RatePerSecond: getEnvAsFloat("GEOCODER_RATE_PER_SECOND", 1),
			Limit:         getEnvAsInt("GEOCODER_LIMIT", 8),
			CacheTTL:      getEnvAsDuration("GEOCODER_CACHE_TTL", 24*time.Hour),
		},
		Astro: AstroConfig{
			BaseURL: getEnv("ASTRO_API_BASE", "https://astrologer.p.rapidapi.com"),
			APIKey:  getEnv("ASTRO_API_KEY", ""),
			Timeout: getEnvAsDuration("ASTRO_API_TIMEOUT", 60*time.Second),
		},
		Chart: ChartConfig{
			Theme:             getEnv("CHART_THEME", "dark"),
			ZodiacType:        getEnv("CHART_ZODIAC", "Tropic"),
			HouseSystem:       getEnv("CHART_HOUSE_SYSTEM", "P"),
			Language:          getEnv("CHART_LANGUAGE", "RU"),
			GeonamesUsername:  getEnv("GEONAMES_USERNAME", ""),
			CountryTablePath:  getEnv("CHART_COUNTRY_TABLE", ""),
			ThemeDefaultsPath: getEnv("CHART_THEME_DEFAULTS", ""),
			QueueSize:         getEnvAsInt("CHART_QUEUE_SIZE", 256),
			SweepSpec:         getEnv("CHART_SWEEP_SPEC", "@every 15m"),
			LockTTL:           getEnvAsDuration("CHART_LOCK_TTL", 2*time.Minute),
		},
		Rectification: RectificationConfig{
			SessionTTL: getEnvAsDuration("RECTIFICATION_SESSION_TTL", 2*time.Hour),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.DSN == "" && c.Database.Host == "" {
		return fmt.Errorf("DB_DSN or DB_HOST is required")
	}

	if c.Geocoder.Timeout <= 0 {
		return fmt.Errorf("GEOCODER_TIMEOUT must be positive")
	}

	if c.Chart.QueueSize <= 0 {
		return fmt.Errorf("CHART_QUEUE_SIZE must be positive")
	}

	return nil
}

// ConnString returns DB_DSN when set, otherwise a key/value DSN built from the parts.
func (d DatabaseConfig) ConnString() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid number for %s, using default: %g", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
