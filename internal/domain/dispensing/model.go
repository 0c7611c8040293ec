// Package dispensing drives the pharmacy dispensing workflow: a staged,
// server-held encounter per prescription that walks customer intake,
// prescription review, barcode verification, batch assignment, payment,
// labels and atomic completion.
package dispensing

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/ehutano/pharmacy-api/internal/domain/customer"
)

// Stage identifies a step of the dispensing workflow.
type Stage string

const (
	StageCustomer     Stage = "customer"
	StagePrescription Stage = "prescription"
	StageVerification Stage = "verification"
	StageBatch        Stage = "batch"
	StagePayment      Stage = "payment"
	StageLabels       Stage = "labels"
	StageComplete     Stage = "complete"
)

// stageOrder fixes the forward direction of the workflow.
var stageOrder = []Stage{
	StageCustomer,
	StagePrescription,
	StageVerification,
	StageBatch,
	StagePayment,
	StageLabels,
	StageComplete,
}

func stageIndex(s Stage) int {
	for i, stage := range stageOrder {
		if stage == s {
			return i
		}
	}
	return -1
}

// Item is one prescription line inside the encounter. Verification and batch
// assignment are independent axes: an item can carry a batch without being
// verified and vice versa.
type Item struct {
	PrescriptionItemID uuid.UUID  `json:"prescription_item_id"`
	MedicineID         *uuid.UUID `json:"medicine_id,omitempty"`
	MedicineName       string     `json:"medicine_name"`
	Dosage             *string    `json:"dosage,omitempty"`
	Quantity           int        `json:"quantity"`
	Instructions       string     `json:"instructions"`
	Interpreted        string     `json:"interpreted"`
	UnitPrice          float64    `json:"unit_price"`
	Total              float64    `json:"total"`
	BatchNumber        string     `json:"batch_number,omitempty"`
	BatchExpiry        *time.Time `json:"batch_expiry,omitempty"`
	ScannedBarcode     string     `json:"scanned_barcode,omitempty"`
	Verified           bool       `json:"verified"`
}

// Payment carries the resolved payment details for the encounter.
type Payment struct {
	Method           string     `json:"method"`
	AmountTendered   float64    `json:"amount_tendered,omitempty"`
	Change           float64    `json:"change"`
	Reference        string     `json:"reference,omitempty"`
	Provider         string     `json:"provider,omitempty"`
	MembershipNumber string     `json:"membership_number,omitempty"`
	ClaimID          *uuid.UUID `json:"claim_id,omitempty"`
}

// Encounter is the transient workflow aggregate for one prescription. It
// lives only in the in-memory store; Postgres is touched at the workflow's
// checkpoints and at completion.
type Encounter struct {
	PrescriptionID uuid.UUID          `json:"prescription_id"`
	Prescriber     *string            `json:"prescriber,omitempty"`
	Customer       *customer.Customer `json:"customer,omitempty"`
	Items          []*Item            `json:"items"`
	Payment        *Payment           `json:"payment,omitempty"`
	Stage          Stage              `json:"stage"`
	DispensingFee  float64            `json:"dispensing_fee"`
	Version        int                `json:"version"`
	StartedAt      time.Time          `json:"started_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// Subtotal sums the item line totals.
func (e *Encounter) Subtotal() float64 {
	var sum float64
	for _, item := range e.Items {
		sum += item.Total
	}
	return round2(sum)
}

// Total is the amount due at payment: line totals plus the dispensing fee.
func (e *Encounter) Total() float64 {
	return round2(e.Subtotal() + e.DispensingFee)
}

// Progress reports verification progress as a percentage rounded to two
// decimal places: 2 of 3 items verified reads 66.67.
func (e *Encounter) Progress() float64 {
	if len(e.Items) == 0 {
		return 0
	}
	verified := 0
	for _, item := range e.Items {
		if item.Verified {
			verified++
		}
	}
	return round2(float64(verified) / float64(len(e.Items)) * 100)
}

// AllVerified reports whether every item passed barcode verification.
func (e *Encounter) AllVerified() bool {
	for _, item := range e.Items {
		if !item.Verified {
			return false
		}
	}
	return len(e.Items) > 0
}

// ItemByMedicine finds the first item for a medicine id.
func (e *Encounter) ItemByMedicine(medicineID uuid.UUID) *Item {
	for _, item := range e.Items {
		if item.MedicineID != nil && *item.MedicineID == medicineID {
			return item
		}
	}
	return nil
}

// ItemByPrescriptionItem finds an item by its prescription item id.
func (e *Encounter) ItemByPrescriptionItem(id uuid.UUID) *Item {
	for _, item := range e.Items {
		if item.PrescriptionItemID == id {
			return item
		}
	}
	return nil
}

// Label is one printed medication label.
type Label struct {
	Patient      string `json:"patient"`
	Prescriber   string `json:"prescriber,omitempty"`
	Pharmacist   string `json:"pharmacist,omitempty"`
	Medicine     string `json:"medicine"`
	Dosage       string `json:"dosage,omitempty"`
	Quantity     int    `json:"quantity"`
	BatchNumber  string `json:"batch_number,omitempty"`
	Expiry       string `json:"expiry,omitempty"`
	Instructions string `json:"instructions"`
	Footer       string `json:"footer,omitempty"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
