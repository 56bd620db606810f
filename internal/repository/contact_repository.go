package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/plant-disease-monitor/internal/model"
)

// ContactRepo persists contact-form submissions.
type ContactRepo struct {
	db *sql.DB
}

func NewContactRepo(db *sql.DB) *ContactRepo {
	return &ContactRepo{db: db}
}

// Create inserts a contact message.  ID and CreatedAt are set by the caller.
func (r *ContactRepo) Create(ctx context.Context, m *model.ContactMessage) error {
	const q = "INSERT INTO contacts (id, name, email, message, created_at) VALUES (?,?,?,?,?)"
	_, err := r.db.ExecContext(ctx, q, m.ID, m.Name, m.Email, m.Message, m.CreatedAt)
	return err
}

// List returns every contact message, newest first.
func (r *ContactRepo) List(ctx context.Context) ([]model.ContactMessage, error) {
	const q = "SELECT id, name, email, message, created_at FROM contacts ORDER BY created_at DESC, id DESC"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ContactMessage{}
	for rows.Next() {
		var m model.ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Message, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
