package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/plant-disease-monitor/internal/model"
)

// DetectionRepo persists disease-detection records.  Every read is scoped
// to a single owner; there is no query across users.
type DetectionRepo struct {
	db *sql.DB
}

func NewDetectionRepo(db *sql.DB) *DetectionRepo {
	return &DetectionRepo{db: db}
}

// Create inserts a detection.  ID, UserID and Timestamp are set by the caller.
func (r *DetectionRepo) Create(ctx context.Context, d *model.Detection) error {
	const q = `INSERT INTO detections
		(id, user_id, image_url, disease, confidence, location, notes, detected_at)
		VALUES (?,?,?,?,?,?,?,?)`
	_, err := r.db.ExecContext(ctx, q,
		d.ID, d.UserID, d.ImageURL, d.Disease, d.Confidence,
		nullString(d.Location), nullString(d.Notes), d.Timestamp)
	return err
}

// ListByUser returns the owner's detections, newest first.  The slice is
// empty (not nil) when the owner has none.
func (r *DetectionRepo) ListByUser(ctx context.Context, userID string) ([]model.Detection, error) {
	const q = `SELECT id, user_id, image_url, disease, confidence, location, notes, detected_at
		FROM detections WHERE user_id = ? ORDER BY detected_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Detection{}
	for rows.Next() {
		var (
			d        model.Detection
			location sql.NullString
			notes    sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.UserID, &d.ImageURL, &d.Disease, &d.Confidence,
			&location, &notes, &d.Timestamp); err != nil {
			return nil, err
		}
		if location.Valid {
			d.Location = &location.String
		}
		if notes.Valid {
			d.Notes = &notes.String
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
