package service

import (
	"context"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/iliyamo/plant-disease-monitor/internal/model"
	"github.com/iliyamo/plant-disease-monitor/internal/repository"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func nullLog() logrus.FieldLogger {
	l, _ := test.NewNullLogger()
	return l
}

// memUsers enforces email uniqueness at write time like the MySQL index.
type memUsers struct {
	mu      sync.Mutex
	byID    map[string]model.User
	byEmail map[string]string

	getErr    error
	createErr error
	// hideOnGet simulates the check-then-write race: lookups miss
	hideOnGet bool
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]model.User{}, byEmail: map[string]string{}}
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.byEmail[u.Email]; ok {
		return repository.ErrEmailExists
	}
	m.byID[u.ID] = *u
	m.byEmail[u.Email] = u.ID
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return model.User{}, m.getErr
	}
	id, ok := m.byEmail[email]
	if !ok || m.hideOnGet {
		return model.User{}, repository.ErrNotFound
	}
	return m.byID[id], nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) countEmail(email string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, u := range m.byID {
		if u.Email == email {
			n++
		}
	}
	return n
}

type memDetections struct {
	mu   sync.Mutex
	rows []model.Detection
	err  error
}

func (m *memDetections) Create(_ context.Context, d *model.Detection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, *d)
	return nil
}

func (m *memDetections) ListByUser(_ context.Context, userID string) ([]model.Detection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []model.Detection
	for _, d := range m.rows {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

type memContacts struct {
	mu   sync.Mutex
	rows []model.ContactMessage
	err  error
}

func (m *memContacts) Create(_ context.Context, c *model.ContactMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, *c)
	return nil
}

func (m *memContacts) List(context.Context) ([]model.ContactMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := append([]model.ContactMessage(nil), m.rows...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type published struct {
	queue   string
	payload any
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, queue string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{queue, payload})
	return nil
}

type fakeRecorder struct{ ok, failed int }

func (r *fakeRecorder) EventPublished(_ string, ok bool) {
	if ok {
		r.ok++
	} else {
		r.failed++
	}
}

