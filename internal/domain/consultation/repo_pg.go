package consultation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hospdash/hospdash/internal/platform/db"
)

type repoPG struct{ pool db.Queryable }

func NewRepoPG(pool db.Queryable) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Create(ctx context.Context, c *Consultation) error {
	c.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO consultation (id, patient_username, disease, description, physician)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		c.ID, c.PatientUsername, c.Disease, c.Description, c.Physician,
	).Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert consultation: %w", err)
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, username string, limit, offset int) ([]*Consultation, int, error) {
	conn := db.Conn(ctx, r.pool)

	var total int
	if err := conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM consultation WHERE patient_username = $1`, username,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count consultations: %w", err)
	}

	rows, err := conn.Query(ctx, `
		SELECT id, patient_username, disease, description, physician, created_at
		FROM consultation WHERE patient_username = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, username, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list consultations: %w", err)
	}
	defer rows.Close()

	items := []*Consultation{}
	for rows.Next() {
		var c Consultation
		if err := rows.Scan(&c.ID, &c.PatientUsername, &c.Disease, &c.Description, &c.Physician, &c.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan consultation: %w", err)
		}
		items = append(items, &c)
	}
	return items, total, rows.Err()
}
