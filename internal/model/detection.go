package model

import "time"

// Detection is a disease-detection record owned by a single user
// (`detections` table).  Location and Notes are optional.
type Detection struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	ImageURL   string    `json:"imageUrl"`
	Disease    string    `json:"disease"`
	Confidence float64   `json:"confidence"`
	Location   *string   `json:"location,omitempty"`
	Notes      *string   `json:"notes,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
