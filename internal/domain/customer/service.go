package customer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Save registers a customer, or updates the existing record when a customer
// with the same national ID is already on file. Created is true when a new
// record was inserted.
func (s *Service) Save(ctx context.Context, cust *Customer) (created bool, err error) {
	if cust.FirstName == "" {
		return false, fmt.Errorf("first_name is required")
	}
	if cust.LastName == "" {
		return false, fmt.Errorf("last_name is required")
	}
	if cust.Phone == "" {
		return false, fmt.Errorf("phone is required")
	}
	if cust.NationalID == "" {
		return false, fmt.Errorf("national_id is required")
	}

	existing, err := s.repo.GetByNationalID(ctx, cust.NationalID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return false, err
		}
		if err := s.repo.Create(ctx, cust); err != nil {
			return false, err
		}
		return true, nil
	}

	cust.ID = existing.ID
	cust.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, cust); err != nil {
		return false, err
	}
	return false, nil
}

func (s *Service) GetCustomer(ctx context.Context, id uuid.UUID) (*Customer, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByNationalID(ctx context.Context, nationalID string) (*Customer, error) {
	return s.repo.GetByNationalID(ctx, nationalID)
}

func (s *Service) ListCustomers(ctx context.Context, limit, offset int) ([]*Customer, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) SearchCustomers(ctx context.Context, q string, limit, offset int) ([]*Customer, int, error) {
	return s.repo.Search(ctx, q, limit, offset)
}
