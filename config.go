package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	ConfigEnvPrefix = "LAPI"
	ConfigFile      = "./config.yml"
	ConfigEnvFile   = "./config.env"
	maskedValue     = "********"
)

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverBolt     = "bolt"
	DriverRedis    = "redis"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit               string         `yaml:"git_commit" json:"git_commit" envconfig:"LAPI_GIT_COMMIT"`
	GitTag                  string         `yaml:"git_tag" json:"git_tag" envconfig:"LAPI_GIT_TAG"`
	BuildTime               string         `yaml:"build_time" json:"build_time" envconfig:"LAPI_BUILD_TIME"`
	APIKey                  string         `yaml:"api_key" json:"api_key" envconfig:"LAPI_API_KEY"`
	IsProduction            bool           `yaml:"is_production" json:"is_production" envconfig:"LAPI_IS_PRODUCTION"`
	LogLevel                zapcore.Level  `yaml:"log_level" json:"log_level" envconfig:"LAPI_LOG_LEVEL"`
	LogFolder               string         `yaml:"log_folder" json:"log_folder" envconfig:"LAPI_LOG_FOLDER" validate:"required"`
	LogMaxSize              int            `yaml:"log_max_size" json:"log_max_size" envconfig:"LAPI_LOG_MAX_SIZE" validate:"gt=0"`
	OpsEndpointsEnable      bool           `yaml:"ops_endpoints_enable" json:"ops_endpoints_enable" envconfig:"LAPI_OPS_ENDPOINTS_ENABLE"`
	ProfilerEndpointsEnable bool           `yaml:"profiler_endpoints_enable" json:"profiler_endpoints_enable" envconfig:"LAPI_PROFILER_ENDPOINTS_ENABLE"`
	Server                  ServerConfig   `yaml:"server" json:"server"`
	Storage                 StorageConfig  `yaml:"storage" json:"storage"`
	SQLite                  SQLiteConfig   `yaml:"sqlite" json:"sqlite"`
	Postgres                PostgresConfig `yaml:"postgres" json:"postgres"`
	BoltDB                  BoltDBConfig   `yaml:"boltdb" json:"boltdb"`
	Redis                   RedisConfig    `yaml:"redis" json:"redis"`
	Metadata                MetadataConfig `yaml:"metadata" json:"metadata"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" json:"host" envconfig:"LAPI_SERVER_HOST" validate:"required"`
	Port            string        `yaml:"port" json:"port" envconfig:"LAPI_SERVER_PORT" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout" envconfig:"LAPI_SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout" envconfig:"LAPI_SERVER_WRITE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" json:"request_timeout" envconfig:"LAPI_SERVER_REQUEST_TIMEOUT"` // Time to wait for a request to finish
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" envconfig:"LAPI_SERVER_SHUTDOWN_TIMEOUT"`
	ResolvePublicIP bool          `yaml:"resolve_public_ip" json:"resolve_public_ip" envconfig:"LAPI_SERVER_RESOLVE_PUBLIC_IP"`
}

type StorageConfig struct {
	Driver      string `yaml:"driver" json:"driver" envconfig:"LAPI_STORAGE_DRIVER" validate:"oneof=sqlite postgres bolt redis"`
	SQLLogLevel string `yaml:"sql_log_level" json:"sql_log_level" envconfig:"LAPI_STORAGE_SQL_LOG_LEVEL" validate:"omitempty,oneof=silent error warn info"`
}

type SQLiteConfig struct {
	FilePath string `yaml:"filepath" json:"filepath" envconfig:"LAPI_SQLITE_FILE_PATH"`
}

type PostgresConfig struct {
	DSN             string        `yaml:"dsn" json:"dsn" envconfig:"LAPI_POSTGRES_DSN"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns" envconfig:"LAPI_POSTGRES_MAX_IDLE_CONNS"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns" envconfig:"LAPI_POSTGRES_MAX_OPEN_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime" envconfig:"LAPI_POSTGRES_CONN_MAX_LIFETIME"`
}

type BoltDBConfig struct {
	FilePath   string        `yaml:"filepath" json:"filepath" envconfig:"LAPI_BOLTDB_FILE_PATH"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout" envconfig:"LAPI_BOLTDB_TIMEOUT"`
	BucketName string        `yaml:"bucket_name" json:"bucket_name" envconfig:"LAPI_BOLTDB_BUCKET_NAME"`
}

type RedisConfig struct {
	Host          string        `yaml:"host" json:"host" envconfig:"LAPI_REDIS_HOST"`
	Port          string        `yaml:"port" json:"port" envconfig:"LAPI_REDIS_PORT"`
	DialTimeout   time.Duration `yaml:"dial_timeout" json:"dial_timeout" envconfig:"LAPI_REDIS_DIAL_TIMEOUT"`
	ReadTimeout   time.Duration `yaml:"read_timeout" json:"read_timeout" envconfig:"LAPI_REDIS_READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" json:"write_timeout" envconfig:"LAPI_REDIS_WRITE_TIMEOUT"`
	PoolSize      int           `yaml:"pool_size" json:"pool_size" envconfig:"LAPI_REDIS_POOL_SIZE"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" json:"pool_timeout" envconfig:"LAPI_REDIS_POOL_TIMEOUT"`
	Username      string        `yaml:"username" json:"username" envconfig:"LAPI_REDIS_USERNAME"`
	Password      string        `yaml:"password" json:"password" envconfig:"LAPI_REDIS_PASSWORD"`
	DatabaseIndex int           `yaml:"db_index" json:"db_index" envconfig:"LAPI_REDIS_DATABASE_INDEX"`
}

// MetadataConfig points to the instance metadata service used to find
// the public ip of the host.
type MetadataConfig struct {
	BaseURL  string        `yaml:"base_url" json:"base_url" envconfig:"LAPI_METADATA_BASE_URL"`
	TokenTTL int           `yaml:"token_ttl" json:"token_ttl" envconfig:"LAPI_METADATA_TOKEN_TTL"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout" envconfig:"LAPI_METADATA_TIMEOUT"`
}

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	yd := yaml.NewDecoder(file)
	err = yd.Decode(cfg)

	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables and fills the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig setup defaults values for non provided parameters
// and configures build tags values to be used if provided.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if config.APIKey == "" {
		config.APIKey = DefaultAPIKey
	}

	if config.LogFolder == "" {
		config.LogFolder = "./logs"
	}

	if config.LogMaxSize == 0 {
		config.LogMaxSize = 10
	}

	if config.Storage.Driver == "" {
		config.Storage.Driver = DriverSQLite
	}

	if config.SQLite.FilePath == "" {
		config.SQLite.FilePath = "library.db"
	}

	if config.BoltDB.BucketName == "" {
		config.BoltDB.BucketName = "books"
	}

	if config.Server.RequestTimeout == 0 {
		config.Server.RequestTimeout = 30 * time.Second
	}

	if config.Server.ShutdownTimeout == 0 {
		config.Server.ShutdownTimeout = 30 * time.Second
	}

	if config.Metadata.BaseURL == "" {
		config.Metadata.BaseURL = "http://169.254.169.254/latest"
	}

	if config.Metadata.TokenTTL == 0 {
		config.Metadata.TokenTTL = 21600
	}

	if config.Metadata.Timeout == 0 {
		config.Metadata.Timeout = 5 * time.Second
	}
}

// ValidateConfig ensures required settings are present for the selected storage.
func ValidateConfig(config *Config) error {
	if err := validator.New().Struct(config); err != nil {
		return err
	}

	switch config.Storage.Driver {
	case DriverPostgres:
		if config.Postgres.DSN == "" {
			return errors.New("make sure to set a valid postgres dsn in configuration")
		}
	case DriverBolt:
		if config.BoltDB.FilePath == "" {
			return errors.New("make sure to set a valid boltdb file path in configuration")
		}
	case DriverRedis:
		if len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0 {
			return errors.New("make sure to set valid redis address and port in configuration")
		}
	}
	return nil
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data.
func LoadAndInitConfigs(gitCommit, gitTag, buildTime string) (*Config, error) {
	// Setup the yaml configuration from file.
	config, err := LoadConfigFile(ConfigFile)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	// Set the environment configuration. The file is optional.
	err = godotenv.Load(ConfigEnvFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return config, fmt.Errorf("failed to set environment configurations: %s", err)
	}

	// Use environment variables with prefix `LAPI`.
	err = LoadConfigEnvs(ConfigEnvPrefix, config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	InitConfig(config, gitCommit, gitTag, buildTime)

	err = ValidateConfig(config)
	if err != nil {
		return config, fmt.Errorf("failed to validate configurations: %s", err)
	}
	return config, nil
}

// Masked returns a copy of the configuration safe to be displayed.
func (c Config) Masked() Config {
	if c.APIKey != "" {
		c.APIKey = maskedValue
	}
	if c.Redis.Password != "" {
		c.Redis.Password = maskedValue
	}
	if c.Postgres.DSN != "" {
		c.Postgres.DSN = maskedValue
	}
	return c
}
