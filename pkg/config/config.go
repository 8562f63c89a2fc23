package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	Analytics AnalyticsConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AnalyticsConfig carries the tunables of the guarded query pipeline and
// the analyzers that consume its results.
type AnalyticsConfig struct {
	MaxRows            int
	TimeoutSeconds     int
	OutlierIQRMult     float64
	AnomalyZThreshold  float64
	CorrelationThresh  float64
	TrendRThreshold    float64
	TrendPThreshold    float64
	CohortWindowMonths int
	CohortPeriodDays   int
	TopInsights        int
	TopVisualizations  int
	TopRecommendations int
	MetricsCacheTTLSec int
}

type RateLimitConfig struct {
	RequestsPerMinute int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/bankiq")

	viper.SetEnvPrefix("BANKIQ")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 60)
	viper.SetDefault("server.writeTimeout", 60)
	viper.SetDefault("server.bodyLimit", 1048576)

	viper.SetDefault("sqlite.path", "./data/bankiq.db")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("analytics.maxRows", 1000)
	viper.SetDefault("analytics.timeoutSeconds", 30)
	viper.SetDefault("analytics.outlierIQRMult", 1.5)
	viper.SetDefault("analytics.anomalyZThreshold", 3.0)
	viper.SetDefault("analytics.correlationThresh", 0.7)
	viper.SetDefault("analytics.trendRThreshold", 0.3)
	viper.SetDefault("analytics.trendPThreshold", 0.05)
	viper.SetDefault("analytics.cohortWindowMonths", 12)
	viper.SetDefault("analytics.cohortPeriodDays", 30)
	viper.SetDefault("analytics.topInsights", 10)
	viper.SetDefault("analytics.topVisualizations", 8)
	viper.SetDefault("analytics.topRecommendations", 5)
	viper.SetDefault("analytics.metricsCacheTTLSec", 900)

	viper.SetDefault("ratelimit.requestsPerMinute", 60)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
