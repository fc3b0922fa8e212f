package pharmacy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hospdash/hospdash/internal/platform/db"
	"github.com/hospdash/hospdash/internal/platform/validation"
	"github.com/hospdash/hospdash/internal/platform/websocket"
)

// PatientLookup is satisfied by patient.Service.
type PatientLookup interface {
	Exists(ctx context.Context, username string) (bool, error)
}

type Service struct {
	tx        db.TxRunner
	meds      MedicineRepository
	dispenses DispenseRepository
	patients  PatientLookup
	events    websocket.EventPublisher
	now       func() time.Time
}

func NewService(tx db.TxRunner, meds MedicineRepository, dispenses DispenseRepository, patients PatientLookup) *Service {
	return &Service{tx: tx, meds: meds, dispenses: dispenses, patients: patients, now: time.Now}
}

// SetEventPublisher enables live notifications for dispenses.
func (s *Service) SetEventPublisher(p websocket.EventPublisher) {
	s.events = p
}

func (s *Service) AddMedicine(ctx context.Context, req *AddMedicineRequest) (*Medicine, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	exp, err := time.Parse("2006-01-02", req.Expiration)
	if err != nil {
		return nil, validation.Invalid("medExpiration", "must be a date formatted as YYYY-MM-DD")
	}
	m := &Medicine{Name: req.Name, Price: req.Price, Expiration: exp, Stock: req.Stock}
	if err := s.meds.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) ListMedicines(ctx context.Context, limit, offset int) ([]*Medicine, int, error) {
	return s.meds.List(ctx, limit, offset)
}

// Give dispenses one unit of the named medicine to a patient. The stock
// check, decrement and dispense record happen in one transaction.
func (s *Service) Give(ctx context.Context, req *GiveMedicineRequest, actor string) (*Dispense, error) {
	req.PatientUsername = strings.TrimSpace(req.PatientUsername)
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	ok, err := s.patients.Exists(ctx, req.PatientUsername)
	if err != nil {
		return nil, fmt.Errorf("lookup patient: %w", err)
	}
	if !ok {
		return nil, ErrPatientNotFound
	}

	var d *Dispense
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		m, err := s.meds.GetByName(ctx, req.Name)
		if err != nil {
			return err
		}
		if m.Expired(s.now()) {
			return ErrExpired
		}
		if m.Stock <= 0 {
			return ErrOutOfStock
		}
		if err := s.meds.DecrementStock(ctx, m); err != nil {
			return err
		}
		d = &Dispense{
			PatientUsername: req.PatientUsername,
			MedicineID:      m.ID,
			MedicineName:    m.Name,
			DispensedBy:     actor,
		}
		return s.dispenses.Create(ctx, d)
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		msg := fmt.Sprintf("%s was given %s", d.PatientUsername, d.MedicineName)
		_ = s.events.Publish(ctx, websocket.NewPatientEvent(
			websocket.EventMedicineDispensed, d.PatientUsername, actor, msg, d))
	}
	return d, nil
}

func (s *Service) ListDispenses(ctx context.Context, username string, limit, offset int) ([]*Dispense, int, error) {
	if strings.TrimSpace(username) == "" {
		return nil, 0, validation.Invalid("patient", "is required")
	}
	return s.dispenses.ListByPatient(ctx, username, limit, offset)
}
