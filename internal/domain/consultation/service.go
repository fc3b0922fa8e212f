package consultation

import (
	"context"
	"fmt"
	"strings"

	"github.com/hospdash/hospdash/internal/platform/validation"
	"github.com/hospdash/hospdash/internal/platform/websocket"
)

// PatientLookup is satisfied by patient.Service.
type PatientLookup interface {
	Exists(ctx context.Context, username string) (bool, error)
}

type Service struct {
	repo     Repository
	patients PatientLookup
	events   websocket.EventPublisher
}

func NewService(repo Repository, patients PatientLookup) *Service {
	return &Service{repo: repo, patients: patients}
}

func (s *Service) SetEventPublisher(p websocket.EventPublisher) {
	s.events = p
}

// Add records a consultation by physician for the patient named in req.
func (s *Service) Add(ctx context.Context, req *CreateRequest, physician string) (*Consultation, error) {
	req.Disease = strings.TrimSpace(req.Disease)
	req.Description = strings.TrimSpace(req.Description)
	req.PatientUsername = strings.TrimSpace(req.PatientUsername)
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

	c := &Consultation{
		PatientUsername: req.PatientUsername,
		Disease:         req.Disease,
		Description:     req.Description,
		Physician:       physician,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	if s.events != nil {
		msg := fmt.Sprintf("%s was diagnosed with %s", c.PatientUsername, c.Disease)
		_ = s.events.Publish(ctx, websocket.NewPatientEvent(
			websocket.EventConsultationAdded, c.PatientUsername, physician, msg, c))
	}
	return c, nil
}

func (s *Service) ListByPatient(ctx context.Context, username string, limit, offset int) ([]*Consultation, int, error) {
	if strings.TrimSpace(username) == "" {
		return nil, 0, validation.Invalid("patient", "is required")
	}
	return s.repo.ListByPatient(ctx, username, limit, offset)
}
