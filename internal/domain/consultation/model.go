package consultation

import (
	"time"

	"github.com/google/uuid"
)

type Consultation struct {
	ID              uuid.UUID `db:"id" json:"id"`
	PatientUsername string    `db:"patient_username" json:"patientUsername"`
	Disease         string    `db:"disease" json:"disease"`
	Description     string    `db:"description" json:"description"`
	Physician       string    `db:"physician" json:"physician"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
}

// CreateRequest carries the consult form fields. Limits match the
// dashboard form so both sides reject the same input.
type CreateRequest struct {
	Disease         string `json:"disease" validate:"required,max=50"`
	Description     string `json:"description" validate:"required,max=50"`
	PatientUsername string `json:"patientUsername" validate:"required"`
}
