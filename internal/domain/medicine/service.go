package medicine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// AddMedicine registers a custom medicine in the catalog. The dosage is
// extracted from the name when not supplied explicitly.
func (s *Service) AddMedicine(ctx context.Context, med *Medicine) error {
	if med.Name == "" {
		return fmt.Errorf("name is required")
	}
	if med.PackSize < 0 {
		return fmt.Errorf("pack_size must not be negative")
	}
	if med.UnitPrice < 0 {
		return fmt.Errorf("unit_price must not be negative")
	}
	if med.PackSize == 0 {
		med.PackSize = 1
	}
	if med.Dosage == nil || *med.Dosage == "" {
		if d := ExtractDosage(med.Name); d != "" {
			med.Dosage = &d
		}
	}
	if med.FullPackPrice == 0 {
		med.FullPackPrice = med.UnitPrice * float64(med.PackSize)
	}
	return s.repo.Create(ctx, med)
}

func (s *Service) GetMedicine(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByBarcode(ctx context.Context, barcode string) (*Medicine, error) {
	return s.repo.GetByBarcode(ctx, barcode)
}

func (s *Service) UpdateMedicine(ctx context.Context, med *Medicine) error {
	if med.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.repo.Update(ctx, med)
}

func (s *Service) ListMedicines(ctx context.Context, limit, offset int) ([]*Medicine, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// SearchMedicines matches the query against name, generic name and
// manufacturer. An empty query returns the plain catalog listing.
func (s *Service) SearchMedicines(ctx context.Context, q string, limit, offset int) ([]*Medicine, int, error) {
	if q == "" {
		return s.repo.List(ctx, limit, offset)
	}
	return s.repo.Search(ctx, q, limit, offset)
}
