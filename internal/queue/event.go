// Package queue defines message payloads exchanged over the message broker
// and the broker plumbing that carries them.
package queue

// Queue names.  Routing keys equal queue names on the default exchange.
const (
	QueueDetectionRecorded = "detection.recorded"
	QueueContactSubmitted  = "contact.submitted"
)

// DetectionRecordedEvent is published after a detection is persisted.  It
// carries enough for downstream consumers (activity log, alerting) without
// querying the primary database.
type DetectionRecordedEvent struct {
	DetectionID string  `json:"detection_id"`
	UserID      string  `json:"user_id"`
	Disease     string  `json:"disease"`
	Confidence  float64 `json:"confidence"`
	Location    string  `json:"location,omitempty"`
	ImageURL    string  `json:"image_url"`
	RecordedAt  string  `json:"recorded_at"`
}

// ContactSubmittedEvent is published after a contact message is stored.
// The message body stays in the database; only its length travels.
type ContactSubmittedEvent struct {
	ContactID     string `json:"contact_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	MessageLength int    `json:"message_length"`
	SubmittedAt   string `json:"submitted_at"`
}
