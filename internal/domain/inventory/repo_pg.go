package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehutano/pharmacy-api/internal/platform/db"
)

// ErrInsufficientStock is returned when a decrement would take a batch
// below zero. No mutation happens in that case.
var ErrInsufficientStock = errors.New("insufficient stock")

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

const batchCols = `id, medicine_id, batch_number, stock_quantity, expiry_date, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, batch *Batch) error {
	batch.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO stock_batch (id, medicine_id, batch_number, stock_quantity, expiry_date)
		VALUES ($1,$2,$3,$4,$5)`,
		batch.ID, batch.MedicineID, batch.BatchNumber, batch.StockQuantity, batch.ExpiryDate,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Batch, error) {
	return scanBatch(r.conn(ctx).QueryRow(ctx, `SELECT `+batchCols+` FROM stock_batch WHERE id = $1`, id))
}

func (r *repoPG) GetByBatchNumber(ctx context.Context, medicineID uuid.UUID, batchNumber string) (*Batch, error) {
	return scanBatch(r.conn(ctx).QueryRow(ctx,
		`SELECT `+batchCols+` FROM stock_batch WHERE medicine_id = $1 AND batch_number = $2`,
		medicineID, batchNumber))
}

// ListByMedicine returns all batches for a medicine ordered by expiry date
// ascending, the FEFO dispensing order.
func (r *repoPG) ListByMedicine(ctx context.Context, medicineID uuid.UUID) ([]*Batch, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+batchCols+` FROM stock_batch WHERE medicine_id = $1 ORDER BY expiry_date ASC`,
		medicineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []*Batch
	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.ID, &b.MedicineID, &b.BatchNumber, &b.StockQuantity, &b.ExpiryDate, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		batches = append(batches, &b)
	}
	return batches, nil
}

func (r *repoPG) DecrementStock(ctx context.Context, medicineID uuid.UUID, batchNumber string, quantity int) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE stock_batch
		SET stock_quantity = stock_quantity - $3, updated_at = NOW()
		WHERE medicine_id = $1 AND batch_number = $2 AND stock_quantity >= $3`,
		medicineID, batchNumber, quantity,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func scanBatch(row pgx.Row) (*Batch, error) {
	var b Batch
	err := row.Scan(&b.ID, &b.MedicineID, &b.BatchNumber, &b.StockQuantity, &b.ExpiryDate, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
