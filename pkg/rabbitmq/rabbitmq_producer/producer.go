package rabbitmq_producer

import (
	"context"
	"fmt"

	"github.com/Robertosoftware/rentify-nl/pkg/rabbitmq/rabbitmq_common"

	amqp "github.com/rabbitmq/amqp091-go"
)

// PublisherConfig configures a publisher and its exchange.
type PublisherConfig struct {
	URL                string
	ExchangeName       string
	ExchangeType       string // direct, fanout, topic, headers
	DurableExchange    bool
	AutoDeleteExchange bool

	// DeclareExchangeIfMissing controls whether the publisher declares
	// the exchange itself or relies on it already existing.
	DeclareExchangeIfMissing bool

	Logger rabbitmq_common.Logger
}

// Publisher owns one connection and channel for outbound messages.
type Publisher struct {
	config     PublisherConfig
	connection *amqp.Connection
	channel    *amqp.Channel

	Logger rabbitmq_common.Logger
}

func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = rabbitmq_common.NewNoopLogger()
	}

	if cfg.URL == "" {
		return nil, fmt.Errorf("producer: RabbitMQ URL is required")
	}
	if cfg.DeclareExchangeIfMissing && (cfg.ExchangeName == "" || cfg.ExchangeType == "") {
		return nil, fmt.Errorf("producer: exchange name and type are required when DeclareExchangeIfMissing is true")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("producer: failed to dial RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("producer: failed to open a channel: %w", err)
	}

	p := &Publisher{
		config:     cfg,
		connection: conn,
		channel:    ch,
		Logger:     logger,
	}

	if cfg.DeclareExchangeIfMissing {
		logger.Debug("Declaring exchange", "name", cfg.ExchangeName, "type", cfg.ExchangeType)
		err = ch.ExchangeDeclare(
			cfg.ExchangeName,
			cfg.ExchangeType,
			cfg.DurableExchange,
			cfg.AutoDeleteExchange,
			false, // internal
			false, // no-wait
			nil,
		)
		if err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("producer: failed to declare exchange '%s': %w", cfg.ExchangeName, err)
		}
	} else if cfg.ExchangeName != "" {
		logger.Debug("Assuming exchange already exists", "name", cfg.ExchangeName)
	}

	logger.Debug("Successfully connected and channel opened")
	return p, nil
}

// Publish publishes a message to the configured exchange.
func (p *Publisher) Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	if p.channel == nil || p.connection == nil || p.connection.IsClosed() {
		return fmt.Errorf("producer: not connected or channel/connection is closed")
	}

	err := p.channel.PublishWithContext(
		ctx,
		p.config.ExchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		msg,
	)
	if err != nil {
		return fmt.Errorf("producer: failed to publish message: %w", err)
	}
	return nil
}

// Close closes the channel and connection.
func (p *Publisher) Close() error {
	p.Logger.Debug("Producer: Closing...")
	var firstErr error

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.Logger.Error(err, "Error closing channel")
			firstErr = err
		}
		p.channel = nil
	}
	if p.connection != nil {
		if err := p.connection.Close(); err != nil {
			p.Logger.Error(err, "Error closing connection")
			if firstErr == nil {
				firstErr = err
			}
		}
		p.connection = nil
	}
	p.Logger.Info("Producer closed.")
	return firstErr
}
