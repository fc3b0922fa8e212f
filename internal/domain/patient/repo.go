package patient

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("patient not found")
	ErrDuplicate = errors.New("username already exists")
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByUsername(ctx context.Context, username string) (*Patient, error)
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
}
