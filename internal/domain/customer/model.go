package customer

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Customer maps to the customer table. Walk-in customers are registered at
// the intake stage of dispensing; the national ID is the upsert key.
type Customer struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	Salutation         *string    `db:"salutation" json:"salutation,omitempty"`
	FirstName          string     `db:"first_name" json:"first_name"`
	LastName           string     `db:"last_name" json:"last_name"`
	NationalID         string     `db:"national_id" json:"national_id"`
	Phone              string     `db:"phone" json:"phone"`
	Email              *string    `db:"email" json:"email,omitempty"`
	Address            *string    `db:"address" json:"address,omitempty"`
	DateOfBirth        *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	MedicalAidProvider *string    `db:"medical_aid_provider" json:"medical_aid_provider,omitempty"`
	MedicalAidMemberNo *string    `db:"medical_aid_member_no" json:"medical_aid_member_no,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName returns the display name used on labels and receipts.
func (c *Customer) FullName() string {
	parts := make([]string, 0, 3)
	if c.Salutation != nil && *c.Salutation != "" {
		parts = append(parts, *c.Salutation)
	}
	parts = append(parts, c.FirstName, c.LastName)
	return strings.Join(parts, " ")
}

// HasMedicalAid reports whether the customer carries usable medical aid
// details for claim submission.
func (c *Customer) HasMedicalAid() bool {
	return c.MedicalAidProvider != nil && *c.MedicalAidProvider != "" &&
		c.MedicalAidMemberNo != nil && *c.MedicalAidMemberNo != ""
}
