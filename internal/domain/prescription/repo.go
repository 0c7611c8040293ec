package prescription

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*Prescription, int, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*Prescription, int, error)
}
