package medicine

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

const medCols = `id, name, generic_name, manufacturer, category, dosage,
	pack_size, unit_price, full_pack_price, barcode, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, med *Medicine) error {
	med.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medicine (
			id, name, generic_name, manufacturer, category, dosage,
			pack_size, unit_price, full_pack_price, barcode
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		med.ID, med.Name, med.GenericName, med.Manufacturer, med.Category, med.Dosage,
		med.PackSize, med.UnitPrice, med.FullPackPrice, med.Barcode,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return scanMed(r.conn(ctx).QueryRow(ctx, `SELECT `+medCols+` FROM medicine WHERE id = $1`, id))
}

func (r *repoPG) GetByBarcode(ctx context.Context, barcode string) (*Medicine, error) {
	return scanMed(r.conn(ctx).QueryRow(ctx, `SELECT `+medCols+` FROM medicine WHERE barcode = $1`, barcode))
}

func (r *repoPG) Update(ctx context.Context, med *Medicine) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE medicine SET
			name=$2, generic_name=$3, manufacturer=$4, category=$5, dosage=$6,
			pack_size=$7, unit_price=$8, full_pack_price=$9, barcode=$10, updated_at=NOW()
		WHERE id = $1`,
		med.ID, med.Name, med.GenericName, med.Manufacturer, med.Category, med.Dosage,
		med.PackSize, med.UnitPrice, med.FullPackPrice, med.Barcode,
	)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Medicine, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medicine`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+medCols+` FROM medicine ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectMeds(rows, total)
}

func (r *repoPG) Search(ctx context.Context, q string, limit, offset int) ([]*Medicine, int, error) {
	pattern := "%" + q + "%"
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM medicine
		WHERE name ILIKE $1 OR generic_name ILIKE $1 OR manufacturer ILIKE $1`,
		pattern).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+medCols+` FROM medicine
		WHERE name ILIKE $1 OR generic_name ILIKE $1 OR manufacturer ILIKE $1
		ORDER BY name LIMIT $2 OFFSET $3`,
		pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectMeds(rows, total)
}

func scanMed(row pgx.Row) (*Medicine, error) {
	var m Medicine
	err := row.Scan(
		&m.ID, &m.Name, &m.GenericName, &m.Manufacturer, &m.Category, &m.Dosage,
		&m.PackSize, &m.UnitPrice, &m.FullPackPrice, &m.Barcode, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func collectMeds(rows pgx.Rows, total int) ([]*Medicine, int, error) {
	var meds []*Medicine
	for rows.Next() {
		var m Medicine
		err := rows.Scan(
			&m.ID, &m.Name, &m.GenericName, &m.Manufacturer, &m.Category, &m.Dosage,
			&m.PackSize, &m.UnitPrice, &m.FullPackPrice, &m.Barcode, &m.CreatedAt, &m.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		meds = append(meds, &m)
	}
	return meds, total, nil
}
