package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/iliyamo/job-board/internal/events"
	"github.com/iliyamo/job-board/internal/logger"
)

// Consumer reads application events from the queue and appends one line per
// event to LogFile.  Broken messages are rejected without requeue.
type Consumer struct {
	url     string
	queue   string
	logFile string

	// dials at most once every two seconds, bursting to three
	redial *rate.Limiter

	mu sync.Mutex
}

func NewConsumer(url, queue, logFile string) *Consumer {
	return &Consumer{
		url:     url,
		queue:   queue,
		logFile: logFile,
		redial:  rate.NewLimiter(rate.Every(2*time.Second), 3),
	}
}

// Run consumes until ctx is cancelled, reconnecting whenever the broker
// connection drops.  It returns nil on cancellation.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		if err := c.redial.Wait(ctx); err != nil {
			return nil
		}
		err := c.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeQueue).Errorf("application consumer: %v; reconnecting", err)
	}
}

func (c *Consumer) session(ctx context.Context) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return errors.Wrap(err, "dial broker")
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, "open channel")
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warnf("application consumer: set QoS: %v", err)
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return errors.Wrap(err, "declare queue")
	}
	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "consume")
	}
	log.Infof("application consumer: listening on %s", c.queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(d.Body); err != nil {
				log.WithField(logger.ErrorTypeField, logger.ErrorTypeQueue).Errorf("application consumer: %v", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one message body and appends its line to the log file.
func (c *Consumer) Handle(body []byte) error {
	var ev events.ApplicationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return errors.Wrap(err, "unmarshal")
	}
	if ev.ApplicationID == "" {
		return errors.New("event without application id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(c.logFile), 0o755); err != nil {
		return errors.Wrap(err, "mkdir")
	}
	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "open log file")
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return errors.Wrap(err, "write log")
	}
	return nil
}

// FormatLine renders ev as a single pipe separated line.
func FormatLine(ev events.ApplicationEvent) string {
	verb := "Application submitted"
	if ev.Type == events.ApplicationReviewedTopic {
		verb = "Application reviewed"
	}
	parts := []string{
		fmt.Sprintf("[%s] %s", ev.OccurredAt.UTC().Format(time.RFC3339), verb),
		"application_id=" + ev.ApplicationID,
		"job_id=" + ev.JobID,
		fmt.Sprintf("job=%q", ev.JobTitle),
		"applicant_id=" + ev.ApplicantID,
		"employer_id=" + ev.EmployerID,
		"status=" + ev.Status,
	}
	if ev.ReviewedBy != nil {
		parts = append(parts, "reviewed_by="+*ev.ReviewedBy)
	}
	return strings.Join(parts, " | ") + "\n"
}
