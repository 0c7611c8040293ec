package claims

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

var validStatuses = map[string]bool{
	StatusSubmitted: true,
	StatusAccepted:  true,
	StatusRejected:  true,
}

// Submit lodges a claim with the customer's medical aid provider. The claim
// starts in submitted status; the provider's verdict arrives through
// UpdateStatus.
func (s *Service) Submit(ctx context.Context, claim *Claim) error {
	if claim.CustomerID == uuid.Nil {
		return fmt.Errorf("customer_id is required")
	}
	if claim.PrescriptionID == uuid.Nil {
		return fmt.Errorf("prescription_id is required")
	}
	if claim.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if claim.MembershipNumber == "" {
		return fmt.Errorf("membership_number is required")
	}
	if claim.Amount <= 0 {
		return fmt.Errorf("amount must be greater than zero")
	}
	claim.Status = StatusSubmitted
	if claim.Reference == "" {
		claim.Reference = "CLM-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
	}
	return s.repo.Create(ctx, claim)
}

func (s *Service) GetClaim(ctx context.Context, id uuid.UUID) (*Claim, error) {
	return s.repo.GetByID(ctx, id)
}

// LatestForPrescription returns the most recent claim lodged against a
// prescription, used by the require-accepted completion gate.
func (s *Service) LatestForPrescription(ctx context.Context, prescriptionID uuid.UUID) (*Claim, error) {
	return s.repo.GetByPrescription(ctx, prescriptionID)
}

func (s *Service) ListClaims(ctx context.Context, limit, offset int) ([]*Claim, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// UpdateStatus applies the provider's verdict.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	if !validStatuses[status] {
		return fmt.Errorf("invalid status: %s", status)
	}
	claim, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("claim not found: %w", err)
	}
	if claim.Status != StatusSubmitted && status != claim.Status {
		return fmt.Errorf("claim already %s", claim.Status)
	}
	return s.repo.UpdateStatus(ctx, id, status)
}
