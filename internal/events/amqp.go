package events

import (
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// AMQPPublisher publishes lifecycle events to a RabbitMQ queue named after
// the event. Delivery failures are logged and dropped; the bus carries no
// delivery guarantee.
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  zerolog.Logger
}

// NewAMQPPublisher connects to RabbitMQ and opens a publishing channel
func NewAMQPPublisher(url string, logger zerolog.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	return &AMQPPublisher{
		conn:    conn,
		channel: ch,
		logger:  logger.With().Str("component", "events").Logger(),
	}, nil
}

// Publish sends the payload as JSON to the queue named after the event
func (p *AMQPPublisher) Publish(name string, payload interface{}) {
	_, err := p.channel.QueueDeclare(
		name,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
	if err != nil {
		p.logger.Warn().Err(err).Str("event", name).Msg("failed to declare queue")
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		p.logger.Warn().Err(err).Str("event", name).Msg("failed to marshal event payload")
		return
	}

	err = p.channel.Publish(
		"",    // exchange
		name,  // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		p.logger.Warn().Err(err).Str("event", name).Msg("failed to publish event")
	}
}

// Close closes the channel and connection
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
