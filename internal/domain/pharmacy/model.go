package pharmacy

import (
	"time"

	"github.com/google/uuid"
)

// Medicine maps to the medicine table. JSON names follow the dashboard
// client contract.
type Medicine struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Name       string    `db:"name" json:"medName"`
	Price      float64   `db:"price" json:"medPrice"`
	Expiration time.Time `db:"expiration" json:"medExpiration"`
	Stock      int       `db:"stock" json:"stock"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Expired reports whether the medicine expired before the day of now.
func (m *Medicine) Expired(now time.Time) bool {
	y, mo, d := now.Date()
	return m.Expiration.Before(time.Date(y, mo, d, 0, 0, 0, 0, m.Expiration.Location()))
}

// Dispense records one medicine given to a patient.
type Dispense struct {
	ID              uuid.UUID `db:"id" json:"id"`
	PatientUsername string    `db:"patient_username" json:"patientUsername"`
	MedicineID      uuid.UUID `db:"medicine_id" json:"medicineId"`
	MedicineName    string    `db:"medicine_name" json:"name"`
	DispensedBy     string    `db:"dispensed_by" json:"dispensedBy"`
	DispensedAt     time.Time `db:"dispensed_at" json:"dispensedAt"`
}

type AddMedicineRequest struct {
	Name       string  `json:"medName" validate:"required,max=100"`
	Price      float64 `json:"medPrice" validate:"gte=0"`
	Expiration string  `json:"medExpiration" validate:"required,datetime=2006-01-02"`
	Stock      int     `json:"stock" validate:"gte=0"`
}

type GiveMedicineRequest struct {
	PatientUsername string `json:"patientUsername" validate:"required"`
	Name            string `json:"name" validate:"required"`
}
