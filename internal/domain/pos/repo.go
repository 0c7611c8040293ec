package pos

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, sale *Sale) error
	GetByID(ctx context.Context, id uuid.UUID) (*Sale, error)
	GetByReference(ctx context.Context, reference string) (*Sale, error)
	List(ctx context.Context, limit, offset int) ([]*Sale, int, error)
	ListByDay(ctx context.Context, day time.Time) ([]*Sale, error)
}
