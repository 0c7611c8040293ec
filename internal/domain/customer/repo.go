package customer

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, cust *Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	GetByNationalID(ctx context.Context, nationalID string) (*Customer, error)
	Update(ctx context.Context, cust *Customer) error
	List(ctx context.Context, limit, offset int) ([]*Customer, int, error)
	Search(ctx context.Context, q string, limit, offset int) ([]*Customer, int, error)
}
