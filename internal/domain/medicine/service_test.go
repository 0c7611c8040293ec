package medicine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -- Mock Repository --

type mockRepo struct {
	medicines map[uuid.UUID]*Medicine
}

func newMockRepo() *mockRepo {
	return &mockRepo{medicines: make(map[uuid.UUID]*Medicine)}
}

func (m *mockRepo) Create(_ context.Context, med *Medicine) error {
	med.ID = uuid.New()
	med.CreatedAt = time.Now()
	med.UpdatedAt = time.Now()
	m.medicines[med.ID] = med
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Medicine, error) {
	med, ok := m.medicines[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return med, nil
}

func (m *mockRepo) GetByBarcode(_ context.Context, barcode string) (*Medicine, error) {
	for _, med := range m.medicines {
		if med.Barcode != nil && *med.Barcode == barcode {
			return med, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockRepo) Update(_ context.Context, med *Medicine) error {
	m.medicines[med.ID] = med
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Medicine, int, error) {
	var result []*Medicine
	for _, med := range m.medicines {
		result = append(result, med)
	}
	return result, len(result), nil
}

func (m *mockRepo) Search(_ context.Context, q string, limit, offset int) ([]*Medicine, int, error) {
	var result []*Medicine
	for _, med := range m.medicines {
		if strings.Contains(strings.ToLower(med.Name), strings.ToLower(q)) {
			result = append(result, med)
		}
	}
	return result, len(result), nil
}

// -- Tests --

func TestAddMedicine_Basic(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	med := &Medicine{Name: "Amoxicillin 250mg Capsules", PackSize: 21, UnitPrice: 0.30}
	if err := svc.AddMedicine(context.Background(), med); err != nil {
		t.Fatalf("AddMedicine failed: %v", err)
	}
	if med.ID == uuid.Nil {
		t.Fatal("expected ID to be assigned")
	}
	if med.Dosage == nil || *med.Dosage != "250mg" {
		t.Fatalf("expected dosage 250mg extracted from name, got %v", med.Dosage)
	}
	if med.FullPackPrice != 6.3 {
		t.Fatalf("expected full pack price 6.3, got %v", med.FullPackPrice)
	}
}

func TestAddMedicine_NameRequired(t *testing.T) {
	svc := NewService(newMockRepo())
	if err := svc.AddMedicine(context.Background(), &Medicine{}); err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestAddMedicine_NegativeValuesRejected(t *testing.T) {
	svc := NewService(newMockRepo())
	if err := svc.AddMedicine(context.Background(), &Medicine{Name: "X", PackSize: -1}); err == nil {
		t.Fatal("expected error for negative pack size")
	}
	if err := svc.AddMedicine(context.Background(), &Medicine{Name: "X", UnitPrice: -0.5}); err == nil {
		t.Fatal("expected error for negative unit price")
	}
}

func TestAddMedicine_ExplicitDosageKept(t *testing.T) {
	svc := NewService(newMockRepo())
	d := "1g"
	med := &Medicine{Name: "Paracetamol 500mg", Dosage: &d, UnitPrice: 0.1}
	if err := svc.AddMedicine(context.Background(), med); err != nil {
		t.Fatalf("AddMedicine failed: %v", err)
	}
	if *med.Dosage != "1g" {
		t.Fatalf("expected explicit dosage preserved, got %s", *med.Dosage)
	}
}

func TestExtractDosage(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Paracetamol 500mg Tablets", "500mg"},
		{"Amoxicillin 250 mg Capsules", "250 mg"},
		{"Cough Syrup 100ml", "100ml"},
		{"Folic Acid 5mcg", "5mcg"},
		{"Vitamin D 1000IU", "1000IU"},
		{"Insulin 100units/ml", "100units"},
		{"PARACETAMOL 500MG", "500MG"},
		{"Ibuprofen 2.5g Gel", "2.5g"},
		{"Bandage Roll", ""},
		{"Vitamin B12", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractDosage(tt.name); got != tt.want {
				t.Errorf("ExtractDosage(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestExtractDosage_FirstMatchWins(t *testing.T) {
	if got := ExtractDosage("Co-trimoxazole 400mg/80mg"); got != "400mg" {
		t.Fatalf("expected first strength 400mg, got %q", got)
	}
}

func TestAutoFill_ParacetamolScenario(t *testing.T) {
	// A pack of 20 at 0.25 per unit auto-fills quantity 20 and price 5.00.
	med := &Medicine{Name: "Paracetamol 500mg", PackSize: 20, UnitPrice: 0.25}
	qty, price := med.AutoFill()

	if got := strconv.Itoa(qty); got != "20" {
		t.Fatalf("expected quantity \"20\", got %q", got)
	}
	if got := fmt.Sprintf("%.2f", price); got != "5.00" {
		t.Fatalf("expected price \"5.00\", got %q", got)
	}
}

func TestAutoFill_ZeroPackSize(t *testing.T) {
	med := &Medicine{Name: "Bulk Item", PackSize: 0, UnitPrice: 2}
	qty, price := med.AutoFill()
	if qty != 1 {
		t.Fatalf("expected quantity fallback 1, got %d", qty)
	}
	if price != 2 {
		t.Fatalf("expected price 2, got %v", price)
	}
}

func TestSearchMedicines_EmptyQueryLists(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	for _, name := range []string{"Paracetamol 500mg", "Ibuprofen 200mg"} {
		if err := svc.AddMedicine(context.Background(), &Medicine{Name: name, UnitPrice: 0.2}); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	meds, total, err := svc.SearchMedicines(context.Background(), "", 20, 0)
	if err != nil {
		t.Fatalf("SearchMedicines failed: %v", err)
	}
	if total != 2 || len(meds) != 2 {
		t.Fatalf("expected both medicines, got %d/%d", len(meds), total)
	}

	meds, _, err = svc.SearchMedicines(context.Background(), "ibu", 20, 0)
	if err != nil {
		t.Fatalf("SearchMedicines failed: %v", err)
	}
	if len(meds) != 1 {
		t.Fatalf("expected 1 match for 'ibu', got %d", len(meds))
	}
}
