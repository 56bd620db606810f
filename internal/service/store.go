package service

import (
	"context"

	"github.com/iliyamo/plant-disease-monitor/internal/model"
)

// UserStore is the credential store used by AuthService.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
}

// ContactStore persists contact messages.
type ContactStore interface {
	Create(ctx context.Context, m *model.ContactMessage) error
	List(ctx context.Context) ([]model.ContactMessage, error)
}

// DetectionStore persists detections scoped to their owner.
type DetectionStore interface {
	Create(ctx context.Context, d *model.Detection) error
	ListByUser(ctx context.Context, userID string) ([]model.Detection, error)
}

// EventPublisher hands domain events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, queue string, payload any) error
}

// EventRecorder observes publish outcomes (metrics).  Optional.
type EventRecorder interface {
	EventPublished(queue string, ok bool)
}
