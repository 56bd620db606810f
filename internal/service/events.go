package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// publishTimeout bounds how long a request waits on the broker.
const publishTimeout = 2 * time.Second

// eventSink publishes best-effort: failures are logged and counted but never
// fail the request that produced the event.
type eventSink struct {
	pub EventPublisher
	rec EventRecorder
	log logrus.FieldLogger
}

func (s eventSink) emit(ctx context.Context, queue string, payload any) {
	if s.pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := s.pub.Publish(ctx, queue, payload)
	if s.rec != nil {
		s.rec.EventPublished(queue, err == nil)
	}
	if err != nil {
		s.log.WithError(err).WithField("queue", queue).Warn("event publish failed")
	}
}
