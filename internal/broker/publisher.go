package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const CartCheckedOutExchange = "cart_checked_out_exchange"

type Customer struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	City     string `json:"city"`
	Address  string `json:"address"`
}

type CheckedOutItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

// CartCheckedOutEvent carries a materialized cart to the order pipeline.
// Money fields are decimal strings; AmountMinor is the total in cents.
type CartCheckedOutEvent struct {
	CheckoutID   string           `json:"checkout_id"`
	Customer     Customer         `json:"customer"`
	Items        []CheckedOutItem `json:"items"`
	TotalPrice   string           `json:"total_price"`
	AmountMinor  int64            `json:"amount_minor"`
	Currency     string           `json:"currency"`
	CheckedOutAt time.Time        `json:"checked_out_at"`
}

// amqpChannel is the part of *amqp.Channel the publisher uses.
type amqpChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	conn    *amqp.Connection
	channel amqpChannel
	logger  *zap.Logger
}

func NewPublisher(amqpURL string, logger *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(CartCheckedOutExchange, "fanout", true, false, false, false, nil)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{conn: conn, channel: channel, logger: logger}, nil
}

func (p *Publisher) PublishCartCheckedOut(ctx context.Context, event CartCheckedOutEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := encodeEvent(event)
	if err != nil {
		return err
	}
	if err := p.channel.Publish(CartCheckedOutExchange, "", false, false, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.CheckoutID, err)
	}

	p.logger.Info("published CartCheckedOut event", zap.String("checkout_id", event.CheckoutID))
	return nil
}

func encodeEvent(event CartCheckedOutEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.CheckoutID,
		Timestamp:    event.CheckedOutAt,
		Type:         "CartCheckedOut",
		Body:         body,
	}, nil
}

func (p *Publisher) Close() {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Warn("error closing RabbitMQ channel", zap.Error(err))
		} else {
			p.logger.Info("RabbitMQ channel closed successfully")
		}
	}

	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			p.logger.Warn("error closing RabbitMQ connection", zap.Error(err))
		} else {
			p.logger.Info("RabbitMQ connection closed successfully")
		}
	}
}
