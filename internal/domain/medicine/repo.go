package medicine

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, med *Medicine) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error)
	GetByBarcode(ctx context.Context, barcode string) (*Medicine, error)
	Update(ctx context.Context, med *Medicine) error
	List(ctx context.Context, limit, offset int) ([]*Medicine, int, error)
	Search(ctx context.Context, q string, limit, offset int) ([]*Medicine, int, error)
}
