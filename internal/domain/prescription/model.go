package prescription

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Prescription statuses.
const (
	StatusPending   = "pending"
	StatusDispensed = "dispensed"
	StatusCancelled = "cancelled"
)

// DefaultDispensingFee applies when no fee override is configured.
const DefaultDispensingFee = 1.00

// Prescription maps to the prescription table.
type Prescription struct {
	ID            uuid.UUID           `db:"id" json:"id"`
	CustomerID    uuid.UUID           `db:"customer_id" json:"customer_id"`
	Prescriber    *string             `db:"prescriber" json:"prescriber,omitempty"`
	Status        string              `db:"status" json:"status"`
	DispensingFee float64             `db:"dispensing_fee" json:"dispensing_fee"`
	CreatedBy     *string             `db:"created_by" json:"created_by,omitempty"`
	CreatedAt     time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time           `db:"updated_at" json:"updated_at"`
	Items         []*PrescriptionItem `db:"-" json:"items"`
}

// PrescriptionItem maps to the prescription_item table. Instructions keeps the
// pharmacist's original shorthand as the value of record; Interpreted is the
// expanded display text.
type PrescriptionItem struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PrescriptionID uuid.UUID  `db:"prescription_id" json:"prescription_id"`
	MedicineID     *uuid.UUID `db:"medicine_id" json:"medicine_id,omitempty"`
	MedicineName   string     `db:"medicine_name" json:"medicine_name"`
	Dosage         *string    `db:"dosage" json:"dosage,omitempty"`
	Quantity       int        `db:"quantity" json:"quantity"`
	Instructions   string     `db:"instructions" json:"instructions"`
	Interpreted    string     `db:"interpreted" json:"interpreted"`
	UnitPrice      float64    `db:"unit_price" json:"unit_price"`
	Total          float64    `db:"total" json:"total"`
}

// Recalculate restores the line total from unit price and quantity. Called on
// every quantity or price edit.
func (i *PrescriptionItem) Recalculate() {
	i.Total = round2(i.UnitPrice * float64(i.Quantity))
}

// Subtotal sums the line totals, excluding the dispensing fee.
func (p *Prescription) Subtotal() float64 {
	var sum float64
	for _, item := range p.Items {
		sum += item.Total
	}
	return round2(sum)
}

// Total is the running total charged at payment: line totals plus the
// dispensing fee.
func (p *Prescription) Total() float64 {
	return round2(p.Subtotal() + p.DispensingFee)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
