package pos

import (
	"context"
	"time"

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

const saleCols = `id, reference, prescription_id, customer_id, items, subtotal,
	dispensing_fee, total_usd, total_zwl, payment_method, created_by, created_at`

func (r *repoPG) Create(ctx context.Context, sale *Sale) error {
	sale.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO pos_sale (
			id, reference, prescription_id, customer_id, items, subtotal,
			dispensing_fee, total_usd, total_zwl, payment_method, created_by
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		sale.ID, sale.Reference, sale.PrescriptionID, sale.CustomerID, sale.Items, sale.Subtotal,
		sale.DispensingFee, sale.TotalUSD, sale.TotalZWL, sale.PaymentMethod, sale.CreatedBy,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Sale, error) {
	return scanSale(r.conn(ctx).QueryRow(ctx, `SELECT `+saleCols+` FROM pos_sale WHERE id = $1`, id))
}

func (r *repoPG) GetByReference(ctx context.Context, reference string) (*Sale, error) {
	return scanSale(r.conn(ctx).QueryRow(ctx, `SELECT `+saleCols+` FROM pos_sale WHERE reference = $1`, reference))
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Sale, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM pos_sale`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+saleCols+` FROM pos_sale ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	sales, err := collectSales(rows)
	if err != nil {
		return nil, 0, err
	}
	return sales, total, nil
}

func (r *repoPG) ListByDay(ctx context.Context, day time.Time) ([]*Sale, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+saleCols+` FROM pos_sale WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at`,
		start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSales(rows)
}

func scanSale(row pgx.Row) (*Sale, error) {
	var s Sale
	err := row.Scan(
		&s.ID, &s.Reference, &s.PrescriptionID, &s.CustomerID, &s.Items, &s.Subtotal,
		&s.DispensingFee, &s.TotalUSD, &s.TotalZWL, &s.PaymentMethod, &s.CreatedBy, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collectSales(rows pgx.Rows) ([]*Sale, error) {
	var sales []*Sale
	for rows.Next() {
		var s Sale
		err := rows.Scan(
			&s.ID, &s.Reference, &s.PrescriptionID, &s.CustomerID, &s.Items, &s.Subtotal,
			&s.DispensingFee, &s.TotalUSD, &s.TotalZWL, &s.PaymentMethod, &s.CreatedBy, &s.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		sales = append(sales, &s)
	}
	return sales, nil
}
