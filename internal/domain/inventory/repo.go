package inventory

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, batch *Batch) error
	GetByID(ctx context.Context, id uuid.UUID) (*Batch, error)
	GetByBatchNumber(ctx context.Context, medicineID uuid.UUID, batchNumber string) (*Batch, error)
	ListByMedicine(ctx context.Context, medicineID uuid.UUID) ([]*Batch, error)
	DecrementStock(ctx context.Context, medicineID uuid.UUID, batchNumber string, quantity int) error
}
