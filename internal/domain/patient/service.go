package patient

import (
	"context"
	"errors"
	"strings"

	"github.com/hospdash/hospdash/internal/platform/validation"
)

const DefaultRole = "PATIENT"

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, p *Patient) error {
	p.Username = strings.TrimSpace(p.Username)
	p.Name = strings.TrimSpace(p.Name)
	p.Gender = strings.ToLower(strings.TrimSpace(p.Gender))
	if p.Role == "" {
		p.Role = DefaultRole
	}
	p.Role = strings.ToUpper(p.Role)
	if err := validation.Struct(p); err != nil {
		return err
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, username string) (*Patient, error) {
	if username == "" {
		return nil, validation.Invalid("username", "is required")
	}
	return s.repo.GetByUsername(ctx, username)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// Exists reports whether a patient with username is registered. Other
// domains use it to reject actions for unknown patients.
func (s *Service) Exists(ctx context.Context, username string) (bool, error) {
	_, err := s.repo.GetByUsername(ctx, username)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
