package config

import (
	"os"
	"strconv"
	"time"
)

type MonitoringServiceConfig struct {
	Port          string
	PostgresCfg   PostgresConfig
	RabbitMQCfg   RabbitMQConfig
	RedisCfg      RedisConfig
	MinioCfg      MinioConfig
	ImageryCfg    ImageryConfig
	WeatherCfg    WeatherConfig
	MonitoringCfg MonitoringConfig
}

type PostgresConfig struct {
	DBname   string
	Username string
	Password string
	Host     string
	Port     string
}

type RabbitMQConfig struct {
	Username string
	Password string
	Host     string
	Port     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type MinioConfig struct {
	MinioURL       string
	MinioAccessKey string
	MinioSecretKey string
	MinioLocation  string
	MinioSecure    string
}

type ImageryConfig struct {
	BaseURL          string
	TokenURL         string
	ClientID         string
	ClientSecret     string
	Timeout          time.Duration
	MaxCloudCoverage float64
}

type WeatherConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// MonitoringConfig carries the sweep and verification knobs.
type MonitoringConfig struct {
	SweepInterval     time.Duration
	SuppressionWindow time.Duration
	AlertValidity     time.Duration
	FieldTimeout      time.Duration
	AlertThreshold    float64
	SweepWorkers      int
	LayerTimeout      time.Duration
	ServiceRegion     RegionConfig
}

// RegionConfig bounds the service region used for coordinate plausibility.
type RegionConfig struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

func New() *MonitoringServiceConfig {
	return &MonitoringServiceConfig{
		Port: getEnvOrDefault("PORT", "8086"),
		PostgresCfg: PostgresConfig{
			DBname:   getEnvOrDefault("POSTGRES_DB", "monitoring"),
			Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
			Password: getEnvOrDefault("POSTGRES_PASSWORD", "postgres"),
			Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
		},
		RabbitMQCfg: RabbitMQConfig{
			Username: getEnvOrDefault("RABBITMQ_USER", "admin"),
			Password: getEnvOrDefault("RABBITMQ_PWD", "admin"),
			Host:     getEnvOrDefault("RABBITMQ_HOST", "localhost"),
			Port:     getEnvOrDefault("RABBITMQ_PORT", "5672"),
		},
		RedisCfg: RedisConfig{
			Host:     getEnvOrDefault("REDIS_HOST", "localhost"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       0,
		},
		MinioCfg: MinioConfig{
			MinioURL:       getEnvOrDefault("MINIO_ENDPOINT", "localhost:9000"),
			MinioAccessKey: getEnvOrDefault("MINIO_ACCESS_KEY", "minio"),
			MinioSecretKey: getEnvOrDefault("MINIO_SECRET_KEY", "minio123"),
			MinioLocation:  getEnvOrDefault("MINIO_LOCATION", "us-east-1"),
			MinioSecure:    getEnvOrDefault("MINIO_SECURE", "false"),
		},
		ImageryCfg: ImageryConfig{
			BaseURL:          getEnvOrDefault("IMAGERY_BASE_URL", "https://services.sentinel-hub.com/api/v1"),
			TokenURL:         getEnvOrDefault("IMAGERY_TOKEN_URL", "https://services.sentinel-hub.com/oauth/token"),
			ClientID:         getEnvOrDefault("IMAGERY_CLIENT_ID", ""),
			ClientSecret:     getEnvOrDefault("IMAGERY_CLIENT_SECRET", ""),
			Timeout:          getDurationOrDefault("IMAGERY_TIMEOUT", 60*time.Second),
			MaxCloudCoverage: getFloatOrDefault("IMAGERY_MAX_CLOUD_COVERAGE", 20),
		},
		WeatherCfg: WeatherConfig{
			BaseURL: getEnvOrDefault("WEATHER_BASE_URL", "https://api.openweathermap.org/data/3.0"),
			APIKey:  getEnvOrDefault("WEATHER_API_KEY", ""),
			Timeout: getDurationOrDefault("WEATHER_TIMEOUT", 30*time.Second),
		},
		MonitoringCfg: MonitoringConfig{
			SweepInterval:     getDurationOrDefault("SWEEP_INTERVAL", 30*time.Minute),
			SuppressionWindow: getDurationOrDefault("ALERT_SUPPRESSION_WINDOW", 6*time.Hour),
			AlertValidity:     getDurationOrDefault("ALERT_VALIDITY", 24*time.Hour),
			FieldTimeout:      getDurationOrDefault("FIELD_TIMEOUT", 60*time.Second),
			AlertThreshold:    getFloatOrDefault("ALERT_THRESHOLD", 5),
			SweepWorkers:      getIntOrDefault("SWEEP_WORKERS", 8),
			LayerTimeout:      getDurationOrDefault("VERIFICATION_LAYER_TIMEOUT", 30*time.Second),
			ServiceRegion: RegionConfig{
				MinLon: getFloatOrDefault("REGION_MIN_LON", 68),
				MinLat: getFloatOrDefault("REGION_MIN_LAT", 6),
				MaxLon: getFloatOrDefault("REGION_MAX_LON", 98),
				MaxLat: getFloatOrDefault("REGION_MAX_LAT", 36),
			},
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
