package pos

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -- Mock Repository --

type mockRepo struct {
	sales map[uuid.UUID]*Sale
}

func newMockRepo() *mockRepo {
	return &mockRepo{sales: make(map[uuid.UUID]*Sale)}
}

func (m *mockRepo) Create(_ context.Context, sale *Sale) error {
	sale.ID = uuid.New()
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}
	m.sales[sale.ID] = sale
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Sale, error) {
	s, ok := m.sales[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return s, nil
}

func (m *mockRepo) GetByReference(_ context.Context, reference string) (*Sale, error) {
	for _, s := range m.sales {
		if s.Reference == reference {
			return s, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Sale, int, error) {
	var result []*Sale
	for _, s := range m.sales {
		result = append(result, s)
	}
	return result, len(result), nil
}

func (m *mockRepo) ListByDay(_ context.Context, day time.Time) ([]*Sale, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	var result []*Sale
	for _, s := range m.sales {
		if !s.CreatedAt.Before(start) && s.CreatedAt.Before(end) {
			result = append(result, s)
		}
	}
	return result, nil
}

// -- Tests --

func validSale() *Sale {
	return &Sale{
		PrescriptionID: uuid.New(),
		CustomerID:     uuid.New(),
		Subtotal:       5.90,
		DispensingFee:  1.00,
		TotalUSD:       6.90,
		PaymentMethod:  MethodCash,
	}
}

func TestRecordSale_AssignsReference(t *testing.T) {
	svc := NewService(newMockRepo(), 25000)

	sale := validSale()
	if err := svc.RecordSale(context.Background(), sale); err != nil {
		t.Fatalf("RecordSale failed: %v", err)
	}
	if !strings.HasPrefix(sale.Reference, "POS-") {
		t.Fatalf("expected POS- reference, got %q", sale.Reference)
	}
	if len(sale.Reference) != len("POS-")+8 {
		t.Fatalf("expected 8-char uid suffix, got %q", sale.Reference)
	}
}

func TestRecordSale_ConvertsToZWL(t *testing.T) {
	svc := NewService(newMockRepo(), 25000)

	sale := validSale()
	if err := svc.RecordSale(context.Background(), sale); err != nil {
		t.Fatalf("RecordSale failed: %v", err)
	}
	if sale.TotalZWL != 172500 {
		t.Fatalf("expected 6.90 USD at 25000 = 172500 ZWL, got %v", sale.TotalZWL)
	}
}

func TestRecordSale_Validation(t *testing.T) {
	svc := NewService(newMockRepo(), 25000)

	tests := []struct {
		name   string
		mutate func(*Sale)
	}{
		{"missing prescription", func(s *Sale) { s.PrescriptionID = uuid.Nil }},
		{"missing customer", func(s *Sale) { s.CustomerID = uuid.Nil }},
		{"bad method", func(s *Sale) { s.PaymentMethod = "IOU" }},
		{"negative total", func(s *Sale) { s.TotalUSD = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sale := validSale()
			tt.mutate(sale)
			if err := svc.RecordSale(context.Background(), sale); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestNewReference_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		ref := NewReference()
		if seen[ref] {
			t.Fatalf("duplicate reference %s", ref)
		}
		seen[ref] = true
	}
}

func TestConvertToZWL_Rounds(t *testing.T) {
	svc := NewService(newMockRepo(), 3.333)
	if got := svc.ConvertToZWL(1.00); got != 3.33 {
		t.Fatalf("expected 3.33, got %v", got)
	}
}

func TestDailySummary(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, 25000)

	day := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	methods := []string{MethodCash, MethodCash, MethodCard, MethodMedicalAid}
	for _, method := range methods {
		sale := validSale()
		sale.PaymentMethod = method
		sale.TotalUSD = 10
		sale.TotalZWL = 250000
		sale.CreatedAt = day
		if err := svc.RecordSale(context.Background(), sale); err != nil {
			t.Fatalf("RecordSale failed: %v", err)
		}
	}

	// A sale on another day stays out of the summary.
	other := validSale()
	other.CreatedAt = day.AddDate(0, 0, -1)
	if err := svc.RecordSale(context.Background(), other); err != nil {
		t.Fatalf("RecordSale failed: %v", err)
	}

	summary, err := svc.DailySummary(context.Background(), day)
	if err != nil {
		t.Fatalf("DailySummary failed: %v", err)
	}
	if summary.SaleCount != 4 {
		t.Fatalf("expected 4 sales, got %d", summary.SaleCount)
	}
	if summary.TotalUSD != 40 {
		t.Fatalf("expected 40 USD, got %v", summary.TotalUSD)
	}
	if summary.CashCount != 2 || summary.CardCount != 1 || summary.MedicalAidCount != 1 {
		t.Fatalf("unexpected method split: %+v", summary)
	}
}
