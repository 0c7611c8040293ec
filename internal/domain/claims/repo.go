package claims

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, claim *Claim) error
	GetByID(ctx context.Context, id uuid.UUID) (*Claim, error)
	GetByPrescription(ctx context.Context, prescriptionID uuid.UUID) (*Claim, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	List(ctx context.Context, limit, offset int) ([]*Claim, int, error)
}
