package pos

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo    Repository
	zwlRate float64
}

// NewService builds the POS service. zwlRate is the configured USD to ZWL
// exchange rate used for the dual-currency receipt amounts.
func NewService(repo Repository, zwlRate float64) *Service {
	return &Service{repo: repo, zwlRate: zwlRate}
}

var validMethods = map[string]bool{
	MethodCash:        true,
	MethodCard:        true,
	MethodMobileMoney: true,
	MethodMedicalAid:  true,
}

// RecordSale writes the sale for a completed dispensing. Callers invoke it
// inside the completion transaction; the reference is assigned here and only
// reaches the terminal after the transaction commits.
func (s *Service) RecordSale(ctx context.Context, sale *Sale) error {
	if sale.PrescriptionID == uuid.Nil {
		return fmt.Errorf("prescription_id is required")
	}
	if sale.CustomerID == uuid.Nil {
		return fmt.Errorf("customer_id is required")
	}
	if !validMethods[sale.PaymentMethod] {
		return fmt.Errorf("invalid payment method: %s", sale.PaymentMethod)
	}
	if sale.TotalUSD < 0 {
		return fmt.Errorf("total must not be negative")
	}
	if sale.Reference == "" {
		sale.Reference = NewReference()
	}
	if sale.TotalZWL == 0 {
		sale.TotalZWL = s.ConvertToZWL(sale.TotalUSD)
	}
	return s.repo.Create(ctx, sale)
}

// ConvertToZWL converts a USD amount at the configured rate, rounded to two
// decimal places.
func (s *Service) ConvertToZWL(usd float64) float64 {
	return math.Round(usd*s.zwlRate*100) / 100
}

func (s *Service) GetSale(ctx context.Context, id uuid.UUID) (*Sale, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByReference(ctx context.Context, reference string) (*Sale, error) {
	return s.repo.GetByReference(ctx, reference)
}

func (s *Service) ListSales(ctx context.Context, limit, offset int) ([]*Sale, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// DailySummary tallies the record book for one trading day.
func (s *Service) DailySummary(ctx context.Context, day time.Time) (*DailySummary, error) {
	sales, err := s.repo.ListByDay(ctx, day)
	if err != nil {
		return nil, err
	}
	summary := &DailySummary{Date: day.Format("2006-01-02")}
	for _, sale := range sales {
		summary.SaleCount++
		summary.TotalUSD += sale.TotalUSD
		summary.TotalZWL += sale.TotalZWL
		switch sale.PaymentMethod {
		case MethodCash:
			summary.CashCount++
		case MethodCard:
			summary.CardCount++
		case MethodMobileMoney:
			summary.MobileCount++
		case MethodMedicalAid:
			summary.MedicalAidCount++
		}
	}
	summary.TotalUSD = math.Round(summary.TotalUSD*100) / 100
	summary.TotalZWL = math.Round(summary.TotalZWL*100) / 100
	return summary, nil
}
