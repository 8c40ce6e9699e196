package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverRedis  = "redis"
	DriverDynamo = "dynamo"
	DriverMemory = "memory"
)

type Config struct {
	LogLevel   string  `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string  `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string  `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091"`
	Redis      Redis   `yaml:"redis"`
	Storage    Storage `yaml:"storage"`
	Session    Session `yaml:"session"`
	Client     Client  `yaml:"client"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Storage struct {
	Driver         string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"redis"`
	DynamoTable    string `yaml:"dynamo-table" env:"DYNAMO_TABLE" env-default:"tictactoe-sessions"`
	DynamoRegion   string `yaml:"dynamo-region" env:"AWS_REGION" env-default:"eu-central-1"`
	DynamoEndpoint string `yaml:"dynamo-endpoint" env:"DYNAMO_ENDPOINT"`
}

type Session struct {
	TTL time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"24h"`
}

// Client - settings of the networked client binary.
type Client struct {
	ServerURL    string        `yaml:"server-url" env:"SERVER_URL" env-default:"http://localhost:9090"`
	SocketURL    string        `yaml:"socket-url" env:"SOCKET_URL"`
	SessionID    string        `yaml:"session-id" env:"SESSION_ID"`
	PollInterval time.Duration `yaml:"poll-interval" env:"POLL_INTERVAL" env-default:"1s"`
	Plain        bool          `yaml:"plain" env:"PLAIN"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadEnv - reads the configuration from the environment only, for binaries shipped without a config.yml.
func LoadEnv() (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadEnv(config); err != nil {
		return nil, fmt.Errorf("unable to read environment: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (that *Config) validate() error {
	switch that.Storage.Driver {
	case DriverRedis, DriverDynamo, DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", that.Storage.Driver)
	}

	if that.Client.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", that.Client.PollInterval)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
