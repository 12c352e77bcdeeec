package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	SourceFixture = "fixture"
	SourceMongo   = "mongo"
)

type Config struct {
	ServiceName string        `mapstructure:"service_name"`
	HTTP        HTTPConfig    `mapstructure:"http"`
	Catalog     CatalogConfig `mapstructure:"catalog"`
	Mongo       MongoConfig   `mapstructure:"mongo"`
	Redis       RedisConfig   `mapstructure:"redis"`
	NATS        NATSConfig    `mapstructure:"nats"`
	Logger      LoggerConfig  `mapstructure:"logger"`
	Metrics     MetricsConfig `mapstructure:"metrics"`
	Tracing     TracingConfig `mapstructure:"tracing"`
}

type HTTPConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// CatalogConfig selects where snapshots come from.
type CatalogConfig struct {
	Source       string        `mapstructure:"source"` // "fixture" or "mongo"
	FixturePath  string        `mapstructure:"fixture_path"`
	RecentItems  int           `mapstructure:"recent_items"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	Database       string        `mapstructure:"database"`
	Collection     string        `mapstructure:"collection"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// RedisConfig enables the facet cache when Address is set.
type RedisConfig struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	FacetTTL time.Duration `mapstructure:"facet_ttl"`
}

// NATSConfig enables snapshot events when URL is set.
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputFile string `mapstructure:"output_file"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type TracingConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// LoadConfig reads path (a file or a directory holding config.yaml), then applies
// CATALOG_* environment overrides, e.g. CATALOG_HTTP_PORT or CATALOG_MONGO_URI.
// A missing config file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if fi, err := os.Stat(path); path != "" && err == nil {
		if fi.IsDir() {
			v.AddConfigPath(path)
			v.SetConfigName("config")
			v.SetConfigType("yaml")
		} else {
			v.SetConfigFile(path)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("CATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Catalog.Source {
	case SourceFixture:
		if c.Catalog.FixturePath == "" {
			return errors.New("config: catalog.fixture_path is required for the fixture source")
		}
	case SourceMongo:
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			return errors.New("config: mongo.uri and mongo.database are required for the mongo source")
		}
	default:
		return fmt.Errorf("config: unknown catalog.source %q", c.Catalog.Source)
	}
	if c.HTTP.Port == "" {
		return errors.New("config: http.port is required")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "catalog-service")

	v.SetDefault("http.port", "8080")
	v.SetDefault("http.read_timeout", "5s")
	v.SetDefault("http.write_timeout", "10s")
	v.SetDefault("http.shutdown_timeout", "15s")

	v.SetDefault("catalog.source", SourceFixture)
	v.SetDefault("catalog.fixture_path", "testdata/marketplace.yaml")
	v.SetDefault("catalog.recent_items", 2)
	v.SetDefault("catalog.fetch_timeout", "10s")

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.username", "")
	v.SetDefault("mongo.password", "")
	v.SetDefault("mongo.database", "campus_market")
	v.SetDefault("mongo.collection", "listings")
	v.SetDefault("mongo.connect_timeout", "10s")

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.facet_ttl", "10m")

	v.SetDefault("nats.url", "")
	v.SetDefault("nats.connect_timeout", "5s")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output_file", "stdout")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("tracing.otlp_endpoint", "")
}
