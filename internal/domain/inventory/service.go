package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ReceiveBatch records a delivery of stock for a medicine.
func (s *Service) ReceiveBatch(ctx context.Context, batch *Batch) error {
	if batch.MedicineID == uuid.Nil {
		return fmt.Errorf("medicine_id is required")
	}
	if batch.BatchNumber == "" {
		return fmt.Errorf("batch_number is required")
	}
	if batch.StockQuantity < 0 {
		return fmt.Errorf("stock_quantity must not be negative")
	}
	if batch.ExpiryDate.IsZero() {
		return fmt.Errorf("expiry_date is required")
	}
	return s.repo.Create(ctx, batch)
}

// BatchesForMedicine returns the medicine's batches in FEFO order with the
// earliest-expiring unexpired batch flagged dispense_first. Expired batches
// stay in the listing for the stock take but never carry the flag.
func (s *Service) BatchesForMedicine(ctx context.Context, medicineID uuid.UUID) ([]*Batch, error) {
	batches, err := s.repo.ListByMedicine(ctx, medicineID)
	if err != nil {
		return nil, err
	}
	// Repo already orders by expiry; sort again so the flag never depends on
	// storage behavior.
	sort.SliceStable(batches, func(i, j int) bool {
		return batches[i].ExpiryDate.Before(batches[j].ExpiryDate)
	})
	now := time.Now()
	for _, b := range batches {
		if !b.Expired(now) {
			b.DispenseFirst = true
			break
		}
	}
	return batches, nil
}

func (s *Service) GetBatch(ctx context.Context, id uuid.UUID) (*Batch, error) {
	return s.repo.GetByID(ctx, id)
}

// BatchByNumber resolves a batch by its printed batch number, used when a
// batch is assigned to a dispensing item.
func (s *Service) BatchByNumber(ctx context.Context, medicineID uuid.UUID, batchNumber string) (*Batch, error) {
	return s.repo.GetByBatchNumber(ctx, medicineID, batchNumber)
}

// Dispense decrements a batch's stock. Callers run this inside the completion
// transaction; ErrInsufficientStock aborts it before any other mutation lands.
func (s *Service) Dispense(ctx context.Context, medicineID uuid.UUID, batchNumber string, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be at least 1")
	}
	return s.repo.DecrementStock(ctx, medicineID, batchNumber, quantity)
}
