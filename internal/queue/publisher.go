// Package queue forwards application events to RabbitMQ and consumes them
// back into a plain-text activity log.
package queue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/job-board/internal/events"
	"github.com/iliyamo/job-board/internal/logger"
)

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type dialFunc func() (channel, func() error, error)

// Dialer returns a dialFunc that opens one connection and one channel on url.
func Dialer(url string) dialFunc {
	return func() (channel, func() error, error) {
		conn, err := amqp.Dial(url)
		if err != nil {
			return nil, nil, errors.Wrap(err, "dial broker")
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return nil, nil, errors.Wrap(err, "open channel")
		}
		return ch, conn.Close, nil
	}
}

// Publisher keeps one channel open and redials after a failed publish.
// Messages are persistent JSON on the default exchange, routed to the
// durable queue named by the config.
type Publisher struct {
	queue string
	dial  dialFunc

	mu      sync.Mutex
	ch      channel
	closeFn func() error
}

func NewPublisher(queue string, dial dialFunc) *Publisher {
	return &Publisher{queue: queue, dial: dial}
}

func (p *Publisher) open() (channel, error) {
	if p.ch != nil {
		return p.ch, nil
	}
	ch, closeFn, err := p.dial()
	if err != nil {
		return nil, err
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		if closeFn != nil {
			_ = closeFn()
		}
		return nil, errors.Wrap(err, "declare queue")
	}
	p.ch, p.closeFn = ch, closeFn
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.closeFn != nil {
		_ = p.closeFn()
	}
	p.ch, p.closeFn = nil, nil
}

// Publish sends ev to the queue.
func (p *Publisher) Publish(ctx context.Context, ev events.ApplicationEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.open()
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	})
	if err != nil {
		p.reset()
		return errors.Wrap(err, "publish")
	}
	return nil
}

// Subscribe forwards both application topics from bus.  Failures are logged
// and never reach the request that raised the event.
func (p *Publisher) Subscribe(bus EventBus.Bus) error {
	forward := func(ev events.ApplicationEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.Publish(ctx, ev); err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeQueue).
				Errorf("publish %s for application %s: %v", ev.Type, ev.ApplicationID, err)
		}
	}
	for _, topic := range []string{events.ApplicationSubmittedTopic, events.ApplicationReviewedTopic} {
		if err := bus.SubscribeAsync(topic, forward, true); err != nil {
			return errors.Wrapf(err, "subscribe %s", topic)
		}
	}
	return nil
}

// Close drops the open channel and connection, if any.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
}
