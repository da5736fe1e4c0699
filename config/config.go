package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		LogLevel  string `yaml:"log_level"`
		LogFormat string `yaml:"log_format"`
	} `yaml:"server"`

	Market struct {
		CataloguePath string `yaml:"catalogue_path"`
		Provider      string `yaml:"provider"`
	} `yaml:"market"`

	Persist struct {
		SnapshotPath    string        `yaml:"snapshot_path"`
		AutosaveEvery   time.Duration `yaml:"autosave_every"`
		RedisAddr       string        `yaml:"redis_addr"`
		RedisPassword   string        `yaml:"redis_password"`
		RedisDB         int           `yaml:"redis_db"`
		RedisKeyPrefix  string        `yaml:"redis_key_prefix"`
		UseRedisBackend bool          `yaml:"use_redis_backend"`
	} `yaml:"persist"`

	Kafka struct {
		Enabled    bool   `yaml:"enabled"`
		BrokerAddr string `yaml:"broker_addr"`
		Topic      string `yaml:"topic"`
	} `yaml:"kafka"`

	Instability struct {
		Enabled  bool          `yaml:"enabled"`
		FailRate float64       `yaml:"fail_rate"`
		MaxDelay time.Duration `yaml:"max_delay"`
	} `yaml:"instability"`
}

// Default configuration values
var (
	configFile = flag.String("config", "", "Path to config file (YAML)")
	logLevel   = flag.String("log_level", "info", "Log level: debug, info, warn, error")
	logFormat  = flag.String("log_format", "pretty", "Log format: json, pretty")
	catalogue  = flag.String("catalogue", "catalogue.yaml", "Path to the catalogue file")
)

// LoadConfig loads the configuration from command line flags, optionally
// from a config file and finally from STONKS_* environment variables.
func LoadConfig() (*Config, error) {
	flag.Parse()

	config := defaultConfig()
	config.Server.LogLevel = *logLevel
	config.Server.LogFormat = *logFormat
	config.Market.CataloguePath = *catalogue

	// Load configuration from file if specified
	if *configFile != "" {
		yamlFile, err := os.ReadFile(*configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(yamlFile, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(config)
	return config, nil
}

func defaultConfig() *Config {
	config := &Config{}
	config.Server.LogLevel = "info"
	config.Server.LogFormat = "pretty"
	config.Market.CataloguePath = "catalogue.yaml"
	config.Market.Provider = "memory"
	config.Persist.SnapshotPath = "offers.bin"
	config.Persist.AutosaveEvery = time.Minute
	config.Persist.RedisAddr = "localhost:6379"
	config.Persist.RedisKeyPrefix = "stonks"
	config.Kafka.BrokerAddr = "localhost:9092"
	config.Kafka.Topic = "stonks-fills"
	config.Instability.FailRate = 0.1
	config.Instability.MaxDelay = 500 * time.Millisecond
	return config
}

// applyEnvOverrides lets deployments tune runtime knobs without a config
// file: STONKS_AUTOSAVE_EVERY, STONKS_KAFKA_BROKER and friends.
func applyEnvOverrides(config *Config) {
	v := viper.New()
	v.SetEnvPrefix("stonks")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if v.IsSet("log_level") {
		config.Server.LogLevel = v.GetString("log_level")
	}
	if v.IsSet("catalogue_path") {
		config.Market.CataloguePath = v.GetString("catalogue_path")
	}
	if v.IsSet("provider") {
		config.Market.Provider = v.GetString("provider")
	}
	if v.IsSet("snapshot_path") {
		config.Persist.SnapshotPath = v.GetString("snapshot_path")
	}
	if v.IsSet("autosave_every") {
		config.Persist.AutosaveEvery = v.GetDuration("autosave_every")
	}
	if v.IsSet("redis_addr") {
		config.Persist.RedisAddr = v.GetString("redis_addr")
	}
	if v.IsSet("use_redis_backend") {
		config.Persist.UseRedisBackend = v.GetBool("use_redis_backend")
	}
	if v.IsSet("kafka_broker") {
		config.Kafka.BrokerAddr = v.GetString("kafka_broker")
		config.Kafka.Enabled = true
	}
	if v.IsSet("kafka_topic") {
		config.Kafka.Topic = v.GetString("kafka_topic")
	}
	if v.IsSet("fail_rate") {
		config.Instability.FailRate = v.GetFloat64("fail_rate")
		config.Instability.Enabled = config.Instability.FailRate > 0
	}
	if v.IsSet("max_delay") {
		config.Instability.MaxDelay = v.GetDuration("max_delay")
	}
}
