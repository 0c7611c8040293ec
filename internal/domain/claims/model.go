package claims

import (
	"time"

	"github.com/google/uuid"
)

// Claim statuses.
const (
	StatusSubmitted = "submitted"
	StatusAccepted  = "accepted"
	StatusRejected  = "rejected"
)

// Claim maps to the medical_aid_claim table.
type Claim struct {
	ID               uuid.UUID `db:"id" json:"id"`
	CustomerID       uuid.UUID `db:"customer_id" json:"customer_id"`
	PrescriptionID   uuid.UUID `db:"prescription_id" json:"prescription_id"`
	Provider         string    `db:"provider" json:"provider"`
	MembershipNumber string    `db:"membership_number" json:"membership_number"`
	Amount           float64   `db:"amount" json:"amount"`
	Status           string    `db:"status" json:"status"`
	Reference        string    `db:"reference" json:"reference"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
