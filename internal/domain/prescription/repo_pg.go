package prescription

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehutano/pharmacy-api/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const rxCols = `id, customer_id, prescriber, status, dispensing_fee, created_by, created_at, updated_at`

const itemCols = `id, prescription_id, medicine_id, medicine_name, dosage, quantity,
	instructions, interpreted, unit_price, total`

// Create inserts the prescription header and its items atomically: a failed
// item insert must not leave a headless pending prescription in the queue.
func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	if db.TxFromContext(ctx) != nil {
		return r.create(ctx, p)
	}
	txCtx, tx, err := db.WithTx(ctx, r.pool)
	if err != nil {
		return err
	}
	if err := r.create(txCtx, p); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (r *repoPG) create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO prescription (id, customer_id, prescriber, status, dispensing_fee, created_by)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.CustomerID, p.Prescriber, p.Status, p.DispensingFee, p.CreatedBy,
	)
	if err != nil {
		return err
	}
	for _, item := range p.Items {
		item.ID = uuid.New()
		item.PrescriptionID = p.ID
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO prescription_item (
				id, prescription_id, medicine_id, medicine_name, dosage, quantity,
				instructions, interpreted, unit_price, total
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			item.ID, item.PrescriptionID, item.MedicineID, item.MedicineName, item.Dosage, item.Quantity,
			item.Instructions, item.Interpreted, item.UnitPrice, item.Total,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := scanRx(r.conn(ctx).QueryRow(ctx, `SELECT `+rxCols+` FROM prescription WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	items, err := r.itemsFor(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Items = items
	return p, nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE prescription SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}

func (r *repoPG) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*Prescription, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM prescription WHERE status = $1`, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+rxCols+` FROM prescription WHERE status = $1 ORDER BY created_at LIMIT $2 OFFSET $3`,
		status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return r.collectWithItems(ctx, rows, total)
}

func (r *repoPG) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM prescription WHERE customer_id = $1`, customerID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+rxCols+` FROM prescription WHERE customer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		customerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return r.collectWithItems(ctx, rows, total)
}

func (r *repoPG) itemsFor(ctx context.Context, prescriptionID uuid.UUID) ([]*PrescriptionItem, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+itemCols+` FROM prescription_item WHERE prescription_id = $1 ORDER BY id`,
		prescriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*PrescriptionItem
	for rows.Next() {
		var it PrescriptionItem
		err := rows.Scan(
			&it.ID, &it.PrescriptionID, &it.MedicineID, &it.MedicineName, &it.Dosage, &it.Quantity,
			&it.Instructions, &it.Interpreted, &it.UnitPrice, &it.Total,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, nil
}

func (r *repoPG) collectWithItems(ctx context.Context, rows pgx.Rows, total int) ([]*Prescription, int, error) {
	var rxs []*Prescription
	for rows.Next() {
		var p Prescription
		err := rows.Scan(&p.ID, &p.CustomerID, &p.Prescriber, &p.Status, &p.DispensingFee, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, 0, err
		}
		rxs = append(rxs, &p)
	}
	rows.Close()

	for _, p := range rxs {
		items, err := r.itemsFor(ctx, p.ID)
		if err != nil {
			return nil, 0, err
		}
		p.Items = items
	}
	return rxs, total, nil
}

func scanRx(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.CustomerID, &p.Prescriber, &p.Status, &p.DispensingFee, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
