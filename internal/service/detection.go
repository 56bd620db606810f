package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/plant-disease-monitor/internal/model"
	"github.com/iliyamo/plant-disease-monitor/internal/queue"
)

// DetectionInput is what a client may set on a new detection.  The owner
// and timestamp always come from the server.
type DetectionInput struct {
	ImageURL   string
	Disease    string
	Confidence *float64
	Location   *string
	Notes      *string
}

// DetectionService creates and lists detections for the authenticated caller.
type DetectionService struct {
	store  DetectionStore
	events eventSink
	strict bool
	log    logrus.FieldLogger

	now   func() time.Time
	newID func() string
}

// NewDetectionService wires the store and optional event publisher.  When
// strictConfidence is set, confidence outside [0,100] is rejected.
func NewDetectionService(store DetectionStore, pub EventPublisher, rec EventRecorder, strictConfidence bool, log logrus.FieldLogger) *DetectionService {
	if store == nil {
		panic("nil detection store passed to NewDetectionService")
	}
	return &DetectionService{
		store:  store,
		events: eventSink{pub: pub, rec: rec, log: log},
		strict: strictConfidence,
		log:    log,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Create stores a detection owned by callerID.
func (s *DetectionService) Create(ctx context.Context, callerID string, in DetectionInput) (model.Detection, error) {
	if callerID == "" {
		return model.Detection{}, ErrMissingToken
	}
	imageURL := strings.TrimSpace(in.ImageURL)
	disease := strings.TrimSpace(in.Disease)
	if imageURL == "" || disease == "" || in.Confidence == nil {
		return model.Detection{}, fmt.Errorf("%w: imageUrl, disease and confidence are required", ErrValidation)
	}
	conf := *in.Confidence
	if math.IsNaN(conf) || math.IsInf(conf, 0) {
		return model.Detection{}, fmt.Errorf("%w: confidence must be a number", ErrValidation)
	}
	if s.strict && (conf < 0 || conf > 100) {
		return model.Detection{}, fmt.Errorf("%w: confidence must be between 0 and 100", ErrValidation)
	}

	d := model.Detection{
		ID:         s.newID(),
		UserID:     callerID,
		ImageURL:   imageURL,
		Disease:    disease,
		Confidence: conf,
		Location:   optional(in.Location),
		Notes:      optional(in.Notes),
		// MySQL DATETIME(3) keeps milliseconds
		Timestamp: s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.store.Create(ctx, &d); err != nil {
		return model.Detection{}, fmt.Errorf("create detection: %w", err)
	}

	ev := queue.DetectionRecordedEvent{
		DetectionID: d.ID,
		UserID:      d.UserID,
		Disease:     d.Disease,
		Confidence:  d.Confidence,
		ImageURL:    d.ImageURL,
		RecordedAt:  d.Timestamp.Format(time.RFC3339),
	}
	if d.Location != nil {
		ev.Location = *d.Location
	}
	s.events.emit(ctx, queue.QueueDetectionRecorded, ev)
	return d, nil
}

// List returns callerID's detections newest first; empty when none.
func (s *DetectionService) List(ctx context.Context, callerID string) ([]model.Detection, error) {
	if callerID == "" {
		return nil, ErrMissingToken
	}
	out, err := s.store.ListByUser(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("list detections: %w", err)
	}
	if out == nil {
		out = []model.Detection{}
	}
	return out, nil
}

// optional trims s and drops it when blank.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
