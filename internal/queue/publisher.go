package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const defaultDialTimeout = 30 * time.Second

// dial connects to url, bounding both the TCP connect and the AMQP
// handshake by ctx's deadline.
func dial(ctx context.Context, url string) (*amqp.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timeout := defaultDialTimeout
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
	}
	return amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
}

// Publisher sends BookingEvents to QueueName.  It dials per publish so a
// broker outage never blocks startup; events are low volume.
type Publisher struct {
	url string
	log logrus.FieldLogger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log logrus.FieldLogger) *Publisher {
	return &Publisher{url: url, log: log}
}

// Publish delivers ev as a persistent JSON message whose MessageId is the
// event ID.  Errors are logged and returned; callers treat them as
// non-fatal.
func (p *Publisher) Publish(ctx context.Context, ev BookingEvent) error {
	l := p.log.WithFields(logrus.Fields{"event_id": ev.EventID, "type": ev.Type, "booking_id": ev.BookingID})

	body, err := json.Marshal(ev)
	if err != nil {
		l.WithError(err).Error("queue: marshal event failed")
		return err
	}
	conn, err := dial(ctx, p.url)
	if err != nil {
		l.WithError(err).Warn("queue: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		l.WithError(err).Warn("queue: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		l.WithError(err).Warn("queue: declare failed")
		return err
	}
	err = ch.PublishWithContext(ctx, "", QueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.EventID,
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		l.WithError(err).Warn("queue: publish failed")
		return err
	}
	l.Debug("queue: event published")
	return nil
}
