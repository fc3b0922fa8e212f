package pharmacy

import (
	"context"
	"errors"
)

var (
	ErrMedicineNotFound  = errors.New("medicine not found")
	ErrDuplicateMedicine = errors.New("medicine already exists")
	ErrOutOfStock        = errors.New("out of stock")
	ErrExpired           = errors.New("medicine expired")
	ErrPatientNotFound   = errors.New("patient not found")
)

type MedicineRepository interface {
	Create(ctx context.Context, m *Medicine) error
	// GetByName locks the row when called inside a transaction.
	GetByName(ctx context.Context, name string) (*Medicine, error)
	List(ctx context.Context, limit, offset int) ([]*Medicine, int, error)
	DecrementStock(ctx context.Context, m *Medicine) error
}

type DispenseRepository interface {
	Create(ctx context.Context, d *Dispense) error
	ListByPatient(ctx context.Context, username string, limit, offset int) ([]*Dispense, int, error)
}
