package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/plant-disease-monitor/internal/model"
	"github.com/iliyamo/plant-disease-monitor/internal/queue"
)

// ContactService stores public contact-form submissions and lists them for
// authenticated callers.
type ContactService struct {
	store  ContactStore
	events eventSink
	admins map[string]bool
	log    logrus.FieldLogger

	now   func() time.Time
	newID func() string
}

// NewContactService wires the store and optional publisher.  A non-empty
// admins list restricts List to those emails (case-insensitive); an empty
// list lets any authenticated caller read submissions.
func NewContactService(store ContactStore, pub EventPublisher, rec EventRecorder, admins []string, log logrus.FieldLogger) *ContactService {
	if store == nil {
		panic("nil contact store passed to NewContactService")
	}
	allowed := make(map[string]bool, len(admins))
	for _, a := range admins {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			allowed[a] = true
		}
	}
	return &ContactService{
		store:  store,
		events: eventSink{pub: pub, rec: rec, log: log},
		admins: allowed,
		log:    log,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Create validates and stores a submission.
func (s *ContactService) Create(ctx context.Context, name, email, message string) (model.ContactMessage, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || strings.TrimSpace(message) == "" {
		return model.ContactMessage{}, fmt.Errorf("%w: Please provide all required fields", ErrValidation)
	}

	m := model.ContactMessage{
		ID:        s.newID(),
		Name:      name,
		Email:     email,
		Message:   message,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.store.Create(ctx, &m); err != nil {
		return model.ContactMessage{}, fmt.Errorf("create contact: %w", err)
	}

	s.events.emit(ctx, queue.QueueContactSubmitted, queue.ContactSubmittedEvent{
		ContactID:     m.ID,
		Name:          m.Name,
		Email:         m.Email,
		MessageLength: len(m.Message),
		SubmittedAt:   m.CreatedAt.Format(time.RFC3339),
	})
	return m, nil
}

// List returns all submissions newest first.
func (s *ContactService) List(ctx context.Context, caller Claims) ([]model.ContactMessage, error) {
	if caller.ID == "" {
		return nil, ErrMissingToken
	}
	if len(s.admins) > 0 && !s.admins[strings.ToLower(caller.Email)] {
		return nil, ErrForbidden
	}
	out, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	if out == nil {
		out = []model.ContactMessage{}
	}
	return out, nil
}
