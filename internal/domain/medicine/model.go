package medicine

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Medicine maps to the medicine table.
type Medicine struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	GenericName   *string   `db:"generic_name" json:"generic_name,omitempty"`
	Manufacturer  *string   `db:"manufacturer" json:"manufacturer,omitempty"`
	Category      *string   `db:"category" json:"category,omitempty"`
	Dosage        *string   `db:"dosage" json:"dosage,omitempty"`
	PackSize      int       `db:"pack_size" json:"pack_size"`
	UnitPrice     float64   `db:"unit_price" json:"unit_price"`
	FullPackPrice float64   `db:"full_pack_price" json:"full_pack_price"`
	Barcode       *string   `db:"barcode" json:"barcode,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// AutoFill returns the default quantity and line price used when the medicine
// is added to a prescription: a full pack at unit price. Both remain editable
// afterwards.
func (m *Medicine) AutoFill() (quantity int, price float64) {
	quantity = m.PackSize
	if quantity < 1 {
		quantity = 1
	}
	return quantity, m.UnitPrice * float64(quantity)
}

var dosagePattern = regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s*(?:mg|mcg|ml|g|iu|units)\b`)

// ExtractDosage pulls the first dosage strength out of a medicine name, for
// example "500mg" from "Paracetamol 500mg Tablets". Returns the empty string
// when the name carries no recognizable strength.
func ExtractDosage(name string) string {
	return dosagePattern.FindString(name)
}
