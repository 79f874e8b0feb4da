package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"surihub-timeclock-svc/src/internal/config"
	"surihub-timeclock-svc/src/internal/models"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// Channel is the subset of *amqp.Channel the publisher needs.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher sends clock events and admin activity to the configured exchange.
type Publisher struct {
	channel Channel
	cfg     *config.RabbitMQConfig
}

func NewPublisher(cfg *config.RabbitMQConfig, channel Channel) *Publisher {
	return &Publisher{
		channel: channel,
		cfg:     cfg,
	}
}

// PublishClockEvent publishes a clock transition.
func (p *Publisher) PublishClockEvent(ctx context.Context, event models.ClockEvent) error {
	if err := p.publish(ctx, p.cfg.ClockRoutingKey, event); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"type":        event.Type,
		"user_id":     event.UserID,
		"session_id":  event.SessionID,
		"routing_key": p.cfg.ClockRoutingKey,
	}).Debug("Clock event published")
	return nil
}

// PublishActivity publishes an admin or auth activity message.
func (p *Publisher) PublishActivity(ctx context.Context, userID, sessionID, serviceName, action string) error {
	return p.PublishActivityWithDetails(ctx, models.ActivityMessage{
		UserID:      userID,
		SessionID:   sessionID,
		ServiceName: serviceName,
		Action:      action,
	})
}

// PublishActivityWithDetails publishes message, stamping it when the caller did not.
func (p *Publisher) PublishActivityWithDetails(ctx context.Context, message models.ActivityMessage) error {
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now()
	}

	if err := p.publish(ctx, p.cfg.ActivityRoutingKey, message); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":     message.UserID,
		"session_id":  message.SessionID,
		"service":     message.ServiceName,
		"action":      message.Action,
		"exchange":    p.cfg.Exchange,
		"routing_key": p.cfg.ActivityRoutingKey,
	}).Debug("Activity message published")
	return nil
}

func (p *Publisher) publish(ctx context.Context, routingKey string, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = p.channel.Publish(
		p.cfg.Exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		logrus.WithError(err).WithField("routing_key", routingKey).Error("Failed to publish message")
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}

// LogPublisher stands in for Publisher when messaging is disabled.
type LogPublisher struct{}

func (LogPublisher) PublishClockEvent(_ context.Context, event models.ClockEvent) error {
	logrus.WithFields(logrus.Fields{
		"type":       event.Type,
		"user_id":    event.UserID,
		"session_id": event.SessionID,
	}).Debug("Messaging disabled, clock event not published")
	return nil
}

func (LogPublisher) PublishActivity(_ context.Context, userID, _, _, action string) error {
	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"action":  action,
	}).Debug("Messaging disabled, activity not published")
	return nil
}

func (LogPublisher) PublishActivityWithDetails(_ context.Context, message models.ActivityMessage) error {
	logrus.WithFields(logrus.Fields{
		"user_id":  message.UserID,
		"action":   message.Action,
		"metadata": message.Metadata,
	}).Debug("Messaging disabled, activity not published")
	return nil
}
