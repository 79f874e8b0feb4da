package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const defaultConfigPath = "src/internal/config/cfg.yml"

const (
	ArchiveKeyUnique = "unique"
	ArchiveKeyDaily  = "daily"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type Configuration struct {
	Logs     LogsSettings     `mapstructure:"logs"`
	App      Application      `mapstructure:"app"`
	Database Database         `mapstructure:"database"`
	Queue    QueueConfig      `mapstructure:"queue"`
	Redis    Redis            `mapstructure:"redis"`
	Security SecuritySettings `mapstructure:"security"`
	Server   ServerSettings   `mapstructure:"server"`
	Search   SearchConfig     `mapstructure:"search"`
	Cache    CacheConfig      `mapstructure:"cache"`
	Clock    ClockSettings    `mapstructure:"clock"`
}

type LogsSettings struct {
	Level            string `mapstructure:"level"`
	Path             string `mapstructure:"log-path"`
	EnableJSONOutput bool   `mapstructure:"enable-json-output"`
}

type Application struct {
	Name     string `mapstructure:"name"`
	Timeout  int    `mapstructure:"timeout"`
	Version  string `mapstructure:"version"`
	HostLink string `mapstructure:"host-link"`
}

type Database struct {
	Driver      string      `mapstructure:"driver"`
	Url         string      `mapstructure:"url"`
	DbName      string      `mapstructure:"dbname"`
	Timeout     int         `mapstructure:"timeout"`
	Collections Collections `mapstructure:"collections"`
}

type Collections struct {
	Users             string `mapstructure:"users"`
	AuthSessions      string `mapstructure:"auth-sessions"`
	Vehicles          string `mapstructure:"vehicles"`
	Stations          string `mapstructure:"stations"`
	ClockSessions     string `mapstructure:"clock-sessions"`
	CurrentSessions   string `mapstructure:"current-sessions"`
	CompletedSessions string `mapstructure:"completed-sessions"`
}

type SearchConfig struct {
	MinQueryLimit int `mapstructure:"min-query-limit"`
	MaxQueryLimit int `mapstructure:"max-query-limit"`
}

type QueueConfig struct {
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
}

type RabbitMQConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	Url                string `mapstructure:"url"`
	Exchange           string `mapstructure:"exchange"`
	ExchangeType       string `mapstructure:"exchange-type"`
	ClockRoutingKey    string `mapstructure:"clock-routing-key"`
	ActivityRoutingKey string `mapstructure:"activity-routing-key"`
	ReconnectDelay     int    `mapstructure:"reconnect-delay"`
	Timeout            int    `mapstructure:"timeout"`
	Durable            bool   `mapstructure:"durable"`
	AutoDelete         bool   `mapstructure:"auto-delete"`
	Internal           bool   `mapstructure:"internal"`
	NoWait             bool   `mapstructure:"no-wait"`
}

type Redis struct {
	Url      string `mapstructure:"url"`
	Password string `mapstructure:"password"`
	Db       int    `mapstructure:"db"`
}

type SecuritySettings struct {
	JwtKey             string `mapstructure:"jwt-key"`
	Issuer             string `mapstructure:"issuer"`
	AccessTokenMinutes int    `mapstructure:"access-token-minutes"`
	BcryptCost         int    `mapstructure:"bcrypt-cost"`
}

type ServerSettings struct {
	Port         string `mapstructure:"port"`
	Mode         string `mapstructure:"mode"`
	ReadTimeout  int    `mapstructure:"read-timeout"`
	WriteTimeout int    `mapstructure:"write-timeout"`
	IdleTimeout  int    `mapstructure:"idle-timeout"`
}

type CacheConfig struct {
	SessionExpirationMinutes int    `mapstructure:"session-expiration-minutes"`
	CatalogExpirationMinutes int    `mapstructure:"catalog-expiration-minutes"`
	StatsKey                 string `mapstructure:"stats-key"`
	StatsExpirationMinutes   int    `mapstructure:"stats-expiration-minutes"`
}

type ClockSettings struct {
	ArchiveKeyMode string `mapstructure:"archive-key-mode"`
}

func Load() *Configuration {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using process environment")
	}

	path := defaultConfigPath
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		path = p
	}

	cfg, err := Read(path)
	if err != nil {
		logrus.WithError(err).Panic("Error reading configuration")
	}
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Panic("Invalid configuration")
	}

	logrus.Info("Configuration loaded")
	return cfg
}

// Read parses the yaml file at path without applying environment overrides.
func Read(path string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yml")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config file: %w", err)
	}

	return &config, nil
}

func applyEnvOverrides(cfg *Configuration) {
	mongoUri := os.Getenv("MONGODB_URL")
	if mongoUri != "" {
		cfg.Database.Url = mongoUri
	}

	dbName := os.Getenv("DB_NAME")
	if dbName != "" {
		cfg.Database.DbName = dbName
	}

	redisUrl := os.Getenv("REDIS_URL")
	if redisUrl != "" {
		cfg.Redis.Url = redisUrl
	}

	redisDB := os.Getenv("REDIS_DB")
	if redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			cfg.Redis.Db = db
		}
	}

	rabbitmqUrl := os.Getenv("RABBITMQ_URL")
	if rabbitmqUrl != "" {
		cfg.Queue.RabbitMQ.Url = rabbitmqUrl
	}

	jwtKey := os.Getenv("JWT_KEY")
	if jwtKey != "" {
		cfg.Security.JwtKey = jwtKey
	}

	port := os.Getenv("SERVER_PORT")
	if port != "" {
		cfg.Server.Port = port
	}
}

// Validate checks the settings the service cannot start without.
func (c *Configuration) Validate() error {
	if c.Security.JwtKey == "" {
		return fmt.Errorf("security.jwt-key must be set")
	}

	switch c.Clock.ArchiveKeyMode {
	case "", ArchiveKeyUnique, ArchiveKeyDaily:
	default:
		return fmt.Errorf("unknown clock.archive-key-mode %q", c.Clock.ArchiveKeyMode)
	}

	switch c.Database.Driver {
	case "", DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}

	return nil
}
