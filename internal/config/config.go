package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cuongbtq/failure-notifier/internal/notification"
	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Sender kinds for the notifier
const (
	SenderLog      = "log"
	SenderRabbitMQ = "rabbitmq"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Logging  LoggingConfig  `yaml:"logging"`
	App      AppConfig      `yaml:"app"`
	Worker   WorkerConfig   `yaml:"worker"`
	Notifier NotifierConfig `yaml:"notifier"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
// The notifier only connects when Host is set.
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// Enabled reports whether a database is configured
func (d DatabaseConfig) Enabled() bool {
	return strings.TrimSpace(d.Host) != ""
}

// RabbitMQConfig holds RabbitMQ connection and exchange/queue configuration
type RabbitMQConfig struct {
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	User       string           `yaml:"user"`
	Password   string           `yaml:"password"`
	VHost      string           `yaml:"vhost"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Queue      QueueConfig      `yaml:"queue"`
	RoutingKey string           `yaml:"routing_key"`
	Connection ConnectionConfig `yaml:"connection"`
	Publish    PublishConfig    `yaml:"publish"`
	Consumer   ConsumerConfig   `yaml:"consumer"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
}

// QueueConfig holds RabbitMQ queue configuration
type QueueConfig struct {
	Name       string `yaml:"name"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
	Exclusive  bool   `yaml:"exclusive"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	Heartbeat         time.Duration `yaml:"heartbeat"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
}

// PublishConfig holds RabbitMQ publish retry settings
type PublishConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// ConsumerConfig holds RabbitMQ consumer settings
type ConsumerConfig struct {
	PrefetchCount int `yaml:"prefetch_count"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// WorkerConfig holds notifier worker pool configuration
type WorkerConfig struct {
	Concurrency     int           `yaml:"concurrency"`
	SendTimeout     time.Duration `yaml:"send_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// NotifierConfig holds failure notification settings
type NotifierConfig struct {
	// Channel is the destination of notifications; the notifier refuses to
	// start without one.
	Channel string `yaml:"channel"`
	// Level is the default verbosity. Unknown names mean verbose.
	Level notification.Level `yaml:"level"`
	// LevelOverrides maps an exception kind to the level used for it.
	LevelOverrides map[string]notification.Level `yaml:"level_overrides"`
	MaxBlockChars  int                           `yaml:"max_block_chars"`
	Sender         string                        `yaml:"sender"`
	Exchange       string                        `yaml:"exchange"`
	ExchangeType   string                        `yaml:"exchange_type"`
}

// Load reads and parses the configuration file.
// ${VAR} references are expanded from the environment before parsing.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Notifier.MaxBlockChars == 0 {
		c.Notifier.MaxBlockChars = notification.DefaultMaxBlockChars
	}
	if c.Notifier.Sender == "" {
		c.Notifier.Sender = SenderLog
	}
	if c.Notifier.Exchange == "" {
		c.Notifier.Exchange = "notifications"
	}
	if c.Notifier.ExchangeType == "" {
		c.Notifier.ExchangeType = "direct"
	}
	if c.RabbitMQ.Consumer.PrefetchCount <= 0 {
		c.RabbitMQ.Consumer.PrefetchCount = c.Worker.Concurrency
	}
}

// ValidateAPIConfig checks the settings the API service depends on
func (c *Config) ValidateAPIConfig() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if err := c.validateRabbitMQ(); err != nil {
		return err
	}

	if c.Notifier.MaxBlockChars < 0 {
		return fmt.Errorf("notifier max_block_chars must not be negative")
	}

	return nil
}

// ValidateNotifierConfig checks the settings the notifier service depends on
func (c *Config) ValidateNotifierConfig() error {
	if err := c.validateRabbitMQ(); err != nil {
		return err
	}

	if c.Database.Enabled() {
		if c.Database.Port < MinPort || c.Database.Port > MaxPort {
			return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker concurrency must be greater than 0")
	}

	if c.Worker.SendTimeout <= 0 {
		return fmt.Errorf("worker send_timeout must be greater than 0")
	}

	if c.Worker.ShutdownTimeout <= 0 {
		return fmt.Errorf("worker shutdown_timeout must be greater than 0")
	}

	return c.Notifier.Validate()
}

// Validate checks the notifier section on its own; the config watcher uses it
// before applying a reloaded file.
func (n NotifierConfig) Validate() error {
	if strings.TrimSpace(n.Channel) == "" {
		return fmt.Errorf("notifier channel is required")
	}

	if n.MaxBlockChars <= 0 {
		return fmt.Errorf("notifier max_block_chars must be greater than 0")
	}

	switch n.Sender {
	case SenderLog, SenderRabbitMQ:
	default:
		return fmt.Errorf("unknown notifier sender: %q (must be %q or %q)", n.Sender, SenderLog, SenderRabbitMQ)
	}

	return nil
}

// ValidateReload checks next as a replacement for n in a running notifier.
// The sender and its exchange are bound at startup, so changing them is an
// error rather than a silent no-op.
func (n NotifierConfig) ValidateReload(next NotifierConfig) error {
	if err := next.Validate(); err != nil {
		return err
	}

	switch {
	case next.Sender != n.Sender:
		return fmt.Errorf("notifier sender changed from %q to %q: restart required", n.Sender, next.Sender)
	case next.Exchange != n.Exchange:
		return fmt.Errorf("notifier exchange changed from %q to %q: restart required", n.Exchange, next.Exchange)
	case next.ExchangeType != n.ExchangeType:
		return fmt.Errorf("notifier exchange_type changed from %q to %q: restart required", n.ExchangeType, next.ExchangeType)
	}

	return nil
}

func (c *Config) validateRabbitMQ() error {
	if c.RabbitMQ.Host == "" {
		return fmt.Errorf("rabbitmq host is required")
	}

	if c.RabbitMQ.Port < MinPort || c.RabbitMQ.Port > MaxPort {
		return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.RabbitMQ.Port, MinPort, MaxPort)
	}

	if c.RabbitMQ.Exchange.Name == "" {
		return fmt.Errorf("rabbitmq exchange name is required")
	}

	if c.RabbitMQ.Queue.Name == "" {
		return fmt.Errorf("rabbitmq queue name is required")
	}

	return nil
}
