package prescription

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ehutano/pharmacy-api/internal/platform/sig"
)

type Service struct {
	repo          Repository
	interpreter   *sig.Interpreter
	dispensingFee float64
}

func NewService(repo Repository, interpreter *sig.Interpreter, dispensingFee float64) *Service {
	if dispensingFee <= 0 {
		dispensingFee = DefaultDispensingFee
	}
	return &Service{repo: repo, interpreter: interpreter, dispensingFee: dispensingFee}
}

var validStatuses = map[string]bool{
	StatusPending:   true,
	StatusDispensed: true,
	StatusCancelled: true,
}

// NormalizeItems enforces the composer invariants on a working item list:
// entries with quantity <= 0 are removed, the rest get their line totals
// recomputed and instructions interpreted. Returns an error when a surviving
// item fails the add-item rules (non-empty name, quantity >= 1, price > 0).
func (s *Service) NormalizeItems(items []*PrescriptionItem) ([]*PrescriptionItem, error) {
	kept := make([]*PrescriptionItem, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		if item.MedicineName == "" {
			return nil, fmt.Errorf("item medicine name is required")
		}
		if item.UnitPrice <= 0 {
			return nil, fmt.Errorf("item %q: unit price must be greater than zero", item.MedicineName)
		}
		item.Recalculate()
		if s.interpreter != nil {
			item.Interpreted = s.interpreter.Interpret(item.Instructions)
		}
		kept = append(kept, item)
	}
	return kept, nil
}

// CreateManual persists a manually composed prescription as pending.
func (s *Service) CreateManual(ctx context.Context, p *Prescription) error {
	if p.CustomerID == uuid.Nil {
		return fmt.Errorf("customer_id is required")
	}
	items, err := s.NormalizeItems(p.Items)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("prescription requires at least one item")
	}
	p.Items = items
	if p.Status == "" {
		p.Status = StatusPending
	}
	if !validStatuses[p.Status] {
		return fmt.Errorf("invalid status: %s", p.Status)
	}
	if p.DispensingFee == 0 {
		p.DispensingFee = s.dispensingFee
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) GetPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.repo.GetByID(ctx, id)
}

// PendingDispensing lists prescriptions awaiting the dispensing workflow,
// oldest first. Terminals poll this every 30 seconds.
func (s *Service) PendingDispensing(ctx context.Context, limit, offset int) ([]*Prescription, int, error) {
	return s.repo.ListByStatus(ctx, StatusPending, limit, offset)
}

func (s *Service) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return s.repo.ListByCustomer(ctx, customerID, limit, offset)
}

// MarkDispensed flips a pending prescription to dispensed. Runs inside the
// completion transaction.
func (s *Service) MarkDispensed(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("prescription not found: %w", err)
	}
	if p.Status != StatusPending {
		return fmt.Errorf("prescription is %s, not pending", p.Status)
	}
	return s.repo.UpdateStatus(ctx, id, StatusDispensed)
}

// Cancel voids a pending prescription.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("prescription not found: %w", err)
	}
	if p.Status == StatusDispensed {
		return fmt.Errorf("dispensed prescription cannot be cancelled")
	}
	return s.repo.UpdateStatus(ctx, id, StatusCancelled)
}
