package pharmacy

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hospdash/hospdash/internal/platform/db"
)

// -- Medicine --

type medicineRepoPG struct{ pool db.Queryable }

func NewMedicineRepoPG(pool db.Queryable) MedicineRepository {
	return &medicineRepoPG{pool: pool}
}

const medCols = `id, name, price, expiration, stock, created_at`

func scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine
	if err := row.Scan(&m.ID, &m.Name, &m.Price, &m.Expiration, &m.Stock, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *medicineRepoPG) Create(ctx context.Context, m *Medicine) error {
	m.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO medicine (id, name, price, expiration, stock)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		m.ID, m.Name, m.Price, m.Expiration, m.Stock,
	).Scan(&m.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateMedicine
	}
	if err != nil {
		return fmt.Errorf("insert medicine: %w", err)
	}
	return nil
}

func (r *medicineRepoPG) GetByName(ctx context.Context, name string) (*Medicine, error) {
	q := `SELECT ` + medCols + ` FROM medicine WHERE name = $1`
	if db.TxFromContext(ctx) != nil {
		q += ` FOR UPDATE`
	}
	m, err := scanMedicine(db.Conn(ctx, r.pool).QueryRow(ctx, q, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMedicineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get medicine %s: %w", name, err)
	}
	return m, nil
}

func (r *medicineRepoPG) List(ctx context.Context, limit, offset int) ([]*Medicine, int, error) {
	conn := db.Conn(ctx, r.pool)

	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM medicine`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count medicines: %w", err)
	}

	rows, err := conn.Query(ctx,
		`SELECT `+medCols+` FROM medicine ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list medicines: %w", err)
	}
	defer rows.Close()

	items := []*Medicine{}
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan medicine: %w", err)
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}

func (r *medicineRepoPG) DecrementStock(ctx context.Context, m *Medicine) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`UPDATE medicine SET stock = stock - 1 WHERE id = $1 AND stock > 0 RETURNING stock`, m.ID,
	).Scan(&m.Stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrOutOfStock
	}
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	return nil
}

// -- Dispense --

type dispenseRepoPG struct{ pool db.Queryable }

func NewDispenseRepoPG(pool db.Queryable) DispenseRepository {
	return &dispenseRepoPG{pool: pool}
}

func (r *dispenseRepoPG) Create(ctx context.Context, d *Dispense) error {
	d.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO medicine_dispense (id, patient_username, medicine_id, medicine_name, dispensed_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING dispensed_at`,
		d.ID, d.PatientUsername, d.MedicineID, d.MedicineName, d.DispensedBy,
	).Scan(&d.DispensedAt)
	if err != nil {
		return fmt.Errorf("insert dispense: %w", err)
	}
	return nil
}

func (r *dispenseRepoPG) ListByPatient(ctx context.Context, username string, limit, offset int) ([]*Dispense, int, error) {
	conn := db.Conn(ctx, r.pool)

	var total int
	if err := conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM medicine_dispense WHERE patient_username = $1`, username,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count dispenses: %w", err)
	}

	rows, err := conn.Query(ctx, `
		SELECT id, patient_username, medicine_id, medicine_name, dispensed_by, dispensed_at
		FROM medicine_dispense WHERE patient_username = $1
		ORDER BY dispensed_at DESC LIMIT $2 OFFSET $3`, username, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list dispenses: %w", err)
	}
	defer rows.Close()

	items := []*Dispense{}
	for rows.Next() {
		var d Dispense
		if err := rows.Scan(&d.ID, &d.PatientUsername, &d.MedicineID, &d.MedicineName, &d.DispensedBy, &d.DispensedAt); err != nil {
			return nil, 0, fmt.Errorf("scan dispense: %w", err)
		}
		items = append(items, &d)
	}
	return items, total, rows.Err()
}
