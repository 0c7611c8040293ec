package pos

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Payment methods accepted at the till.
const (
	MethodCash        = "CASH"
	MethodCard        = "CARD"
	MethodMobileMoney = "MOBILE_MONEY"
	MethodMedicalAid  = "MEDICAL_AID"
)

// Sale maps to the pos_sale table. One sale is written per completed
// dispensing, inside the completion transaction.
type Sale struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	Reference      string          `db:"reference" json:"reference"`
	PrescriptionID uuid.UUID       `db:"prescription_id" json:"prescription_id"`
	CustomerID     uuid.UUID       `db:"customer_id" json:"customer_id"`
	Items          json.RawMessage `db:"items" json:"items"`
	Subtotal       float64         `db:"subtotal" json:"subtotal"`
	DispensingFee  float64         `db:"dispensing_fee" json:"dispensing_fee"`
	TotalUSD       float64         `db:"total_usd" json:"total_usd"`
	TotalZWL       float64         `db:"total_zwl" json:"total_zwl"`
	PaymentMethod  string          `db:"payment_method" json:"payment_method"`
	CreatedBy      *string         `db:"created_by" json:"created_by,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// NewReference builds a POS receipt reference from a fresh uid, for example
// POS-1A2B3C4D.
func NewReference() string {
	short := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
	return "POS-" + short
}

// DailySummary aggregates a trading day for the record book.
type DailySummary struct {
	Date            string  `json:"date"`
	SaleCount       int     `json:"sale_count"`
	TotalUSD        float64 `json:"total_usd"`
	TotalZWL        float64 `json:"total_zwl"`
	CashCount       int     `json:"cash_count"`
	CardCount       int     `json:"card_count"`
	MobileCount     int     `json:"mobile_count"`
	MedicalAidCount int     `json:"medical_aid_count"`
}
