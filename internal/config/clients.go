package config

import (
	"time"

	"github.com/cuongbtq/failure-notifier/internal/failure"
	"github.com/cuongbtq/failure-notifier/shared/logger"
	"github.com/cuongbtq/failure-notifier/shared/postgresql"
	"github.com/cuongbtq/failure-notifier/shared/rabbitmq"
)

// LoggerConfig converts the logging section for shared/logger
func (l LoggingConfig) LoggerConfig() *logger.Config {
	return &logger.Config{
		Level:        l.Level,
		Format:       l.Format,
		Output:       l.Output,
		EnableSource: l.EnableCaller,
		TimeFormat:   time.RFC3339,
	}
}

// ClientConfig converts the database section for shared/postgresql
func (d DatabaseConfig) ClientConfig() *postgresql.Config {
	return &postgresql.Config{
		Host:            d.Host,
		Port:            d.Port,
		User:            d.User,
		Password:        d.Password,
		Database:        d.Database,
		SSLMode:         d.SSLMode,
		MaxOpenConns:    d.MaxOpenConns,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
		ConnMaxIdleTime: d.ConnMaxIdleTime,
	}
}

// ClientConfig converts the rabbitmq section for shared/rabbitmq
func (r RabbitMQConfig) ClientConfig() *rabbitmq.Config {
	return &rabbitmq.Config{
		Host:               r.Host,
		Port:               r.Port,
		User:               r.User,
		Password:           r.Password,
		VHost:              r.VHost,
		ExchangeName:       r.Exchange.Name,
		ExchangeType:       r.Exchange.Type,
		ExchangeDurable:    r.Exchange.Durable,
		ExchangeAutoDelete: r.Exchange.AutoDelete,
		QueueName:          r.Queue.Name,
		QueueDurable:       r.Queue.Durable,
		QueueAutoDelete:    r.Queue.AutoDelete,
		QueueExclusive:     r.Queue.Exclusive,
		RoutingKey:         r.RoutingKey,
		RetryAttempts:      r.Connection.RetryAttempts,
		RetryInterval:      r.Connection.RetryInterval,
		Heartbeat:          r.Connection.Heartbeat,
		ConnectionTimeout:  r.Connection.ConnectionTimeout,
		PublishRetries:     r.Publish.RetryAttempts,
		PublishRetryDelay:  r.Publish.RetryInterval,
		PublishBackoffMult: r.Publish.BackoffMultiplier,
		PrefetchCount:      r.Consumer.PrefetchCount,
	}
}

// BackendConfig converts the notifier section for the failure backend
func (n NotifierConfig) BackendConfig() failure.Config {
	return failure.Config{
		Channel:        n.Channel,
		Level:          n.Level,
		LevelOverrides: n.LevelOverrides,
		MaxBlockChars:  n.MaxBlockChars,
	}
}
