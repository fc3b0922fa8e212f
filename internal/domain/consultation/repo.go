package consultation

import (
	"context"
	"errors"
)

var ErrPatientNotFound = errors.New("patient not found")

type Repository interface {
	Create(ctx context.Context, c *Consultation) error
	ListByPatient(ctx context.Context, username string, limit, offset int) ([]*Consultation, int, error)
}
