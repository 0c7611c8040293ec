package dispensing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehutano/pharmacy-api/internal/config"
	"github.com/ehutano/pharmacy-api/internal/domain/claims"
	"github.com/ehutano/pharmacy-api/internal/domain/customer"
	"github.com/ehutano/pharmacy-api/internal/domain/inventory"
	"github.com/ehutano/pharmacy-api/internal/domain/medicine"
	"github.com/ehutano/pharmacy-api/internal/domain/pos"
	"github.com/ehutano/pharmacy-api/internal/domain/prescription"
	"github.com/ehutano/pharmacy-api/internal/platform/db"
	"github.com/ehutano/pharmacy-api/internal/platform/ws"
)

// ErrGate marks a workflow gate violation: the request is well-formed but the
// encounter is not in a state that allows it. Mapped to 409 at the boundary.
var ErrGate = errors.New("workflow gate")

func gateErr(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrGate)...)
}

// Narrow views of the sibling domain services, so the workflow can be tested
// against in-memory fakes.
type Customers interface {
	GetCustomer(ctx context.Context, id uuid.UUID) (*customer.Customer, error)
}

type Medicines interface {
	GetMedicine(ctx context.Context, id uuid.UUID) (*medicine.Medicine, error)
}

type Prescriptions interface {
	GetPrescription(ctx context.Context, id uuid.UUID) (*prescription.Prescription, error)
	MarkDispensed(ctx context.Context, id uuid.UUID) error
}

type Inventory interface {
	BatchByNumber(ctx context.Context, medicineID uuid.UUID, batchNumber string) (*inventory.Batch, error)
	Dispense(ctx context.Context, medicineID uuid.UUID, batchNumber string, quantity int) error
}

type Sales interface {
	RecordSale(ctx context.Context, sale *pos.Sale) error
}

type ClaimBook interface {
	Submit(ctx context.Context, claim *claims.Claim) error
	LatestForPrescription(ctx context.Context, prescriptionID uuid.UUID) (*claims.Claim, error)
}

// Deps bundles the workflow's collaborators.
type Deps struct {
	Customers     Customers
	Medicines     Medicines
	Prescriptions Prescriptions
	Inventory     Inventory
	Sales         Sales
	Claims        ClaimBook
	Events        ws.Publisher
}

// Config carries the workflow's policy knobs.
type Config struct {
	ClaimPolicy string
	LabelFooter string
}

type Service struct {
	store *Store
	pool  *pgxpool.Pool
	deps  Deps
	cfg   Config
}

// NewService builds the workflow service. pool may be nil in tests; the
// completion then runs without a surrounding transaction.
func NewService(store *Store, pool *pgxpool.Pool, deps Deps, cfg Config) *Service {
	if cfg.ClaimPolicy == "" {
		cfg.ClaimPolicy = config.ClaimFireAndForget
	}
	return &Service{store: store, pool: pool, deps: deps, cfg: cfg}
}

// Start opens an encounter for a pending prescription, snapshotting the
// customer and the prescription lines.
func (s *Service) Start(ctx context.Context, prescriptionID uuid.UUID) (*Encounter, error) {
	rx, err := s.deps.Prescriptions.GetPrescription(ctx, prescriptionID)
	if err != nil {
		return nil, fmt.Errorf("prescription %s: %w", prescriptionID, ErrNotFound)
	}
	if rx.Status != prescription.StatusPending {
		return nil, gateErr("prescription is %s, not pending", rx.Status)
	}
	cust, err := s.deps.Customers.GetCustomer(ctx, rx.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("customer %s: %w", rx.CustomerID, ErrNotFound)
	}

	items := make([]*Item, 0, len(rx.Items))
	for _, ri := range rx.Items {
		items = append(items, &Item{
			PrescriptionItemID: ri.ID,
			MedicineID:         ri.MedicineID,
			MedicineName:       ri.MedicineName,
			Dosage:             ri.Dosage,
			Quantity:           ri.Quantity,
			Instructions:       ri.Instructions,
			Interpreted:        ri.Interpreted,
			UnitPrice:          ri.UnitPrice,
			Total:              ri.Total,
			// A free-text line has no catalog barcode to scan; it enters
			// verified so it cannot strand the encounter.
			Verified: ri.MedicineID == nil,
		})
	}

	enc := &Encounter{
		PrescriptionID: prescriptionID,
		Prescriber:     rx.Prescriber,
		Customer:       cust,
		Items:          items,
		Stage:          StageCustomer,
		DispensingFee:  rx.DispensingFee,
	}
	if err := s.store.Open(enc); err != nil {
		return nil, err
	}
	return enc, nil
}

// Get returns the open encounter.
func (s *Service) Get(prescriptionID uuid.UUID) (*Encounter, error) {
	return s.store.Get(prescriptionID)
}

// Advance moves the encounter to the next stage. Only single forward steps
// are allowed, and each stage entry has its own gate.
func (s *Service) Advance(prescriptionID uuid.UUID, version int, to Stage) (*Encounter, error) {
	if stageIndex(to) < 0 {
		return nil, fmt.Errorf("unknown stage: %s", to)
	}
	return s.store.Update(prescriptionID, version, func(enc *Encounter) error {
		from := stageIndex(enc.Stage)
		if stageIndex(to) != from+1 {
			return gateErr("cannot advance from %s to %s", enc.Stage, to)
		}
		if err := s.canEnter(enc, to); err != nil {
			return err
		}
		enc.Stage = to
		return nil
	})
}

// Back navigates to any earlier stage without gates. Staged work is kept.
func (s *Service) Back(prescriptionID uuid.UUID, version int, to Stage) (*Encounter, error) {
	if stageIndex(to) < 0 {
		return nil, fmt.Errorf("unknown stage: %s", to)
	}
	return s.store.Update(prescriptionID, version, func(enc *Encounter) error {
		if stageIndex(to) >= stageIndex(enc.Stage) {
			return gateErr("back navigation must target an earlier stage")
		}
		enc.Stage = to
		return nil
	})
}

func (s *Service) canEnter(enc *Encounter, to Stage) error {
	switch to {
	case StagePrescription:
		c := enc.Customer
		if c == nil || c.FirstName == "" || c.LastName == "" || c.Phone == "" || c.NationalID == "" {
			return gateErr("customer details incomplete")
		}
	case StageVerification:
		if len(enc.Items) == 0 {
			return gateErr("prescription has no items")
		}
	case StageLabels:
		if !enc.AllVerified() {
			return gateErr("verification incomplete (%.2f%%)", enc.Progress())
		}
		if err := s.paymentResolved(enc); err != nil {
			return err
		}
	case StageComplete:
		return gateErr("complete via the completion endpoint")
	}
	return nil
}

// VerifyResult is the verify-barcode response contract.
type VerifyResult struct {
	Success      bool   `json:"success"`
	MedicineName string `json:"medicineName"`
}

// VerifyBarcode checks a scanned barcode against the medicine's catalog
// barcode. A match flips the item to verified; a mismatch changes nothing and
// is reported as success=false, not as an error.
func (s *Service) VerifyBarcode(ctx context.Context, prescriptionID, medicineID uuid.UUID, barcode string) (*VerifyResult, error) {
	enc, err := s.store.Get(prescriptionID)
	if err != nil {
		return nil, err
	}
	if enc.ItemByMedicine(medicineID) == nil {
		return nil, fmt.Errorf("medicine %s is not on this prescription: %w", medicineID, ErrNotFound)
	}
	med, err := s.deps.Medicines.GetMedicine(ctx, medicineID)
	if err != nil {
		return nil, fmt.Errorf("medicine %s: %w", medicineID, ErrNotFound)
	}

	if med.Barcode == nil || *med.Barcode != barcode {
		return &VerifyResult{Success: false, MedicineName: med.Name}, nil
	}

	_, err = s.store.Mutate(prescriptionID, func(enc *Encounter) error {
		item := enc.ItemByMedicine(medicineID)
		if item == nil {
			return fmt.Errorf("medicine %s is not on this prescription: %w", medicineID, ErrNotFound)
		}
		item.ScannedBarcode = barcode
		item.Verified = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, ws.EventItemVerified, prescriptionID)
	return &VerifyResult{Success: true, MedicineName: med.Name}, nil
}

// AssignBatch records a stock batch against an item. Assignment is
// independent of barcode verification.
func (s *Service) AssignBatch(ctx context.Context, prescriptionID uuid.UUID, version int, medicineID uuid.UUID, batchNumber string) (*Encounter, error) {
	if batchNumber == "" {
		return nil, fmt.Errorf("batch_number is required")
	}
	batch, err := s.deps.Inventory.BatchByNumber(ctx, medicineID, batchNumber)
	if err != nil {
		return nil, fmt.Errorf("batch %s: %w", batchNumber, ErrNotFound)
	}
	return s.store.Update(prescriptionID, version, func(enc *Encounter) error {
		item := enc.ItemByMedicine(medicineID)
		if item == nil {
			return fmt.Errorf("medicine %s is not on this prescription: %w", medicineID, ErrNotFound)
		}
		item.BatchNumber = batch.BatchNumber
		expiry := batch.ExpiryDate
		item.BatchExpiry = &expiry
		return nil
	})
}

// SetPayment records the payment details for the encounter. For MEDICAL_AID
// the provider and membership number come from the customer record and the
// claim is lodged immediately.
func (s *Service) SetPayment(ctx context.Context, prescriptionID uuid.UUID, version int, p Payment) (*Encounter, error) {
	enc, err := s.store.Get(prescriptionID)
	if err != nil {
		return nil, err
	}
	// Checked again under the store lock below; checking here keeps a stale
	// caller from lodging a medical aid claim it cannot record.
	if enc.Version != version {
		return nil, ErrVersionConflict
	}

	switch p.Method {
	case pos.MethodCash:
		if p.AmountTendered <= 0 {
			return nil, fmt.Errorf("cash payment requires amount_tendered")
		}
		p.Change = round2(p.AmountTendered - enc.Total())
	case pos.MethodCard, pos.MethodMobileMoney:
		if p.Reference == "" {
			return nil, fmt.Errorf("%s payment requires a reference", p.Method)
		}
	case pos.MethodMedicalAid:
		if enc.Customer == nil || !enc.Customer.HasMedicalAid() {
			return nil, gateErr("customer has no medical aid details")
		}
		p.Provider = *enc.Customer.MedicalAidProvider
		p.MembershipNumber = *enc.Customer.MedicalAidMemberNo
		claim := &claims.Claim{
			CustomerID:       enc.Customer.ID,
			PrescriptionID:   prescriptionID,
			Provider:         p.Provider,
			MembershipNumber: p.MembershipNumber,
			Amount:           enc.Total(),
		}
		if err := s.deps.Claims.Submit(ctx, claim); err != nil {
			return nil, fmt.Errorf("submit claim: %w", err)
		}
		id := claim.ID
		p.ClaimID = &id
	default:
		return nil, fmt.Errorf("invalid payment method: %s", p.Method)
	}

	return s.store.Update(prescriptionID, version, func(enc *Encounter) error {
		enc.Payment = &p
		return nil
	})
}

// paymentResolved checks the method-specific completion gate.
func (s *Service) paymentResolved(enc *Encounter) error {
	p := enc.Payment
	if p == nil {
		return gateErr("payment not recorded")
	}
	switch p.Method {
	case pos.MethodCash:
		if p.AmountTendered < enc.Total() {
			return gateErr("cash tendered %.2f is short of total %.2f", p.AmountTendered, enc.Total())
		}
	case pos.MethodCard, pos.MethodMobileMoney:
		if p.Reference == "" {
			return gateErr("%s payment missing reference", p.Method)
		}
	case pos.MethodMedicalAid:
		if p.ClaimID == nil {
			return gateErr("medical aid claim not submitted")
		}
	default:
		return gateErr("payment method not set")
	}
	return nil
}

// PrintLabels renders labels for the given prescription items, or for every
// item when none are named. Each printed label requires its item verified;
// print-all requires full verification.
func (s *Service) PrintLabels(prescriptionID uuid.UUID, itemIDs []uuid.UUID, pharmacist string) ([]Label, error) {
	enc, err := s.store.Get(prescriptionID)
	if err != nil {
		return nil, err
	}

	var items []*Item
	if len(itemIDs) == 0 {
		if !enc.AllVerified() {
			return nil, gateErr("print-all requires every item verified (%.2f%%)", enc.Progress())
		}
		items = enc.Items
	} else {
		for _, id := range itemIDs {
			item := enc.ItemByPrescriptionItem(id)
			if item == nil {
				return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
			}
			if !item.Verified {
				return nil, gateErr("item %s is not verified", item.MedicineName)
			}
			items = append(items, item)
		}
	}

	labels := make([]Label, 0, len(items))
	for _, item := range items {
		label := Label{
			Medicine:     item.MedicineName,
			Quantity:     item.Quantity,
			BatchNumber:  item.BatchNumber,
			Instructions: item.Interpreted,
			Pharmacist:   pharmacist,
			Footer:       s.cfg.LabelFooter,
		}
		if label.Instructions == "" {
			label.Instructions = item.Instructions
		}
		if enc.Customer != nil {
			label.Patient = enc.Customer.FullName()
		}
		if enc.Prescriber != nil {
			label.Prescriber = *enc.Prescriber
		}
		if item.Dosage != nil {
			label.Dosage = *item.Dosage
		}
		if item.BatchExpiry != nil {
			label.Expiry = item.BatchExpiry.Format("2006-01-02")
		}
		labels = append(labels, label)
	}
	return labels, nil
}

// Complete finishes the dispensing. In one transaction it decrements stock,
// marks the prescription dispensed and writes the POS sale; the sale
// reference reaches the caller only after the commit succeeds. The encounter
// is then discarded.
func (s *Service) Complete(ctx context.Context, prescriptionID uuid.UUID, version int, completedBy string) (*pos.Sale, error) {
	enc, err := s.store.Get(prescriptionID)
	if err != nil {
		return nil, err
	}
	if enc.Version != version {
		return nil, ErrVersionConflict
	}
	if enc.Payment != nil && enc.Payment.Method == pos.MethodMedicalAid && s.cfg.ClaimPolicy == config.ClaimRequireAccepted {
		claim, err := s.deps.Claims.LatestForPrescription(ctx, prescriptionID)
		if err != nil {
			return nil, gateErr("no claim on file for prescription")
		}
		if claim.Status != claims.StatusAccepted {
			return nil, gateErr("claim is %s, not accepted", claim.Status)
		}
	}

	snapshot, err := json.Marshal(enc.Items)
	if err != nil {
		return nil, err
	}

	// The gates run under the versioned update so a passing call also claims
	// the version: a concurrent Complete carrying the same version conflicts
	// instead of dispensing twice.
	var prevStage Stage
	enc, err = s.store.Update(prescriptionID, version, func(enc *Encounter) error {
		if !enc.AllVerified() {
			return gateErr("verification incomplete (%.2f%%)", enc.Progress())
		}
		if err := s.paymentResolved(enc); err != nil {
			return err
		}
		for _, item := range enc.Items {
			if item.MedicineID != nil && item.BatchNumber == "" {
				return gateErr("item %s has no batch assigned", item.MedicineName)
			}
		}
		prevStage = enc.Stage
		enc.Stage = StageComplete
		return nil
	})
	if err != nil {
		return nil, err
	}

	sale := &pos.Sale{
		PrescriptionID: prescriptionID,
		CustomerID:     enc.Customer.ID,
		Items:          snapshot,
		Subtotal:       enc.Subtotal(),
		DispensingFee:  enc.DispensingFee,
		TotalUSD:       enc.Total(),
		PaymentMethod:  enc.Payment.Method,
	}
	if completedBy != "" {
		sale.CreatedBy = &completedBy
	}

	err = s.inTx(ctx, func(txCtx context.Context) error {
		for _, item := range enc.Items {
			if item.MedicineID == nil {
				continue
			}
			if err := s.deps.Inventory.Dispense(txCtx, *item.MedicineID, item.BatchNumber, item.Quantity); err != nil {
				return fmt.Errorf("dispense %s: %w", item.MedicineName, err)
			}
		}
		if err := s.deps.Prescriptions.MarkDispensed(txCtx, prescriptionID); err != nil {
			return err
		}
		return s.deps.Sales.RecordSale(txCtx, sale)
	})
	if err != nil {
		// Release the reservation so the pharmacist can fix the cause and
		// retry against the current version.
		_, _ = s.store.Mutate(prescriptionID, func(enc *Encounter) error {
			enc.Stage = prevStage
			return nil
		})
		return nil, err
	}

	s.store.Close(prescriptionID)
	s.publish(ctx, ws.EventDispensingCompleted, prescriptionID)
	return sale, nil
}

// Cancel discards the encounter. Nothing has been committed, so there is
// nothing to compensate.
func (s *Service) Cancel(prescriptionID uuid.UUID) error {
	if _, err := s.store.Get(prescriptionID); err != nil {
		return err
	}
	s.store.Close(prescriptionID)
	return nil
}

func (s *Service) inTx(ctx context.Context, fn func(context.Context) error) error {
	if s.pool == nil {
		return fn(ctx)
	}
	txCtx, tx, err := db.WithTx(ctx, s.pool)
	if err != nil {
		return err
	}
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (s *Service) publish(ctx context.Context, eventType string, prescriptionID uuid.UUID) {
	if s.deps.Events == nil {
		return
	}
	for _, topic := range []string{ws.TopicQueue, ws.PrescriptionTopic(prescriptionID)} {
		_ = s.deps.Events.Publish(ctx, ws.Event{
			Type:           eventType,
			Topic:          topic,
			PrescriptionID: prescriptionID.String(),
			Timestamp:      time.Now().UTC(),
		})
	}
}
