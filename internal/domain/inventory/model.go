package inventory

import (
	"time"

	"github.com/google/uuid"
)

// Batch maps to the stock_batch table. Batches of the same medicine are
// dispensed first-expiry-first-out.
type Batch struct {
	ID            uuid.UUID `db:"id" json:"id"`
	MedicineID    uuid.UUID `db:"medicine_id" json:"medicine_id"`
	BatchNumber   string    `db:"batch_number" json:"batch_number"`
	StockQuantity int       `db:"stock_quantity" json:"stock_quantity"`
	ExpiryDate    time.Time `db:"expiry_date" json:"expiry_date"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`

	// DispenseFirst marks the earliest-expiring batch in a FEFO listing.
	// Derived, not stored.
	DispenseFirst bool `db:"-" json:"dispense_first"`
}

// Expired reports whether the batch has passed its expiry date.
func (b *Batch) Expired(now time.Time) bool {
	return b.ExpiryDate.Before(now)
}
