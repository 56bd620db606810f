package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const (
	activityLogName = "activity.log"
	maxBackoff      = 30 * time.Second
)

func nextBackoff(d time.Duration) time.Duration {
	return min(d*2, maxBackoff)
}

// StartActivityConsumer connects to RabbitMQ, declares the event queues and
// appends one line per event to {dir}/activity.log.  It reconnects with
// exponential backoff (1s up to 30s) and returns only when ctx is done.
// Malformed messages are rejected without requeue so they cannot loop.
func StartActivityConsumer(ctx context.Context, url, dir string, log logrus.FieldLogger) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.WithError(err).Warnf("activity-consumer: dial failed; retrying in %s", backoff)
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = time.Second // reset after successful connect

		err = consumeLoop(ctx, conn, dir, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warn("activity-consumer: consume loop ended; reconnecting")
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, dir string, log logrus.FieldLogger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.WithError(err).Warn("activity-consumer: set QoS failed")
	}

	queues := []string{QueueDetectionRecorded, QueueContactSubmitted}
	deliveries := make(map[string]<-chan amqp.Delivery, len(queues))
	for _, q := range queues {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", q, err)
		}
		msgs, err := ch.Consume(q, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", q, err)
		}
		deliveries[q] = msgs
	}

	detections, contacts := deliveries[QueueDetectionRecorded], deliveries[QueueContactSubmitted]
	for {
		var (
			d  amqp.Delivery
			ok bool
			q  string
		)
		select {
		case <-ctx.Done():
			return nil
		case d, ok = <-detections:
			q = QueueDetectionRecorded
		case d, ok = <-contacts:
			q = QueueContactSubmitted
		}
		if !ok {
			return errors.New("deliveries channel closed")
		}
		line, err := formatActivity(q, d.Body)
		if err == nil {
			err = appendActivity(dir, line)
		}
		if err != nil {
			log.WithError(err).WithField("queue", q).Error("activity-consumer: handle message failed")
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
}

// formatActivity renders a single human-friendly log line for an event.
func formatActivity(queue string, body []byte) (string, error) {
	switch queue {
	case QueueDetectionRecorded:
		var ev DetectionRecordedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		loc := ev.Location
		if loc == "" {
			loc = "-"
		}
		return fmt.Sprintf("[%s] Detection recorded | detection_id=%s | user_id=%s | disease=%q | confidence=%.1f | location=%q\n",
			ev.RecordedAt, ev.DetectionID, ev.UserID, ev.Disease, ev.Confidence, loc), nil
	case QueueContactSubmitted:
		var ev ContactSubmittedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Contact submitted | contact_id=%s | name=%q | email=%s | length=%d\n",
			ev.SubmittedAt, ev.ContactID, ev.Name, ev.Email, ev.MessageLength), nil
	}
	return "", fmt.Errorf("unknown queue %q", queue)
}

func appendActivity(dir, line string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, activityLogName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
