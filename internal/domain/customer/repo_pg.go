package customer

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

const custCols = `id, salutation, first_name, last_name, national_id, phone, email, address,
	date_of_birth, medical_aid_provider, medical_aid_member_no, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, cust *Customer) error {
	cust.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO customer (
			id, salutation, first_name, last_name, national_id, phone, email, address,
			date_of_birth, medical_aid_provider, medical_aid_member_no
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		cust.ID, cust.Salutation, cust.FirstName, cust.LastName, cust.NationalID,
		cust.Phone, cust.Email, cust.Address,
		cust.DateOfBirth, cust.MedicalAidProvider, cust.MedicalAidMemberNo,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Customer, error) {
	return scanCust(r.conn(ctx).QueryRow(ctx, `SELECT `+custCols+` FROM customer WHERE id = $1`, id))
}

func (r *repoPG) GetByNationalID(ctx context.Context, nationalID string) (*Customer, error) {
	return scanCust(r.conn(ctx).QueryRow(ctx, `SELECT `+custCols+` FROM customer WHERE national_id = $1`, nationalID))
}

func (r *repoPG) Update(ctx context.Context, cust *Customer) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE customer SET
			salutation=$2, first_name=$3, last_name=$4, national_id=$5, phone=$6,
			email=$7, address=$8, date_of_birth=$9,
			medical_aid_provider=$10, medical_aid_member_no=$11, updated_at=NOW()
		WHERE id = $1`,
		cust.ID, cust.Salutation, cust.FirstName, cust.LastName, cust.NationalID, cust.Phone,
		cust.Email, cust.Address, cust.DateOfBirth,
		cust.MedicalAidProvider, cust.MedicalAidMemberNo,
	)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Customer, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM customer`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+custCols+` FROM customer ORDER BY last_name, first_name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectCusts(rows, total)
}

func (r *repoPG) Search(ctx context.Context, q string, limit, offset int) ([]*Customer, int, error) {
	pattern := "%" + q + "%"
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM customer
		WHERE first_name ILIKE $1 OR last_name ILIKE $1 OR national_id ILIKE $1 OR phone ILIKE $1`,
		pattern).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+custCols+` FROM customer
		WHERE first_name ILIKE $1 OR last_name ILIKE $1 OR national_id ILIKE $1 OR phone ILIKE $1
		ORDER BY last_name, first_name LIMIT $2 OFFSET $3`,
		pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectCusts(rows, total)
}

func scanCust(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(
		&c.ID, &c.Salutation, &c.FirstName, &c.LastName, &c.NationalID, &c.Phone, &c.Email, &c.Address,
		&c.DateOfBirth, &c.MedicalAidProvider, &c.MedicalAidMemberNo, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCusts(rows pgx.Rows, total int) ([]*Customer, int, error) {
	var custs []*Customer
	for rows.Next() {
		var c Customer
		err := rows.Scan(
			&c.ID, &c.Salutation, &c.FirstName, &c.LastName, &c.NationalID, &c.Phone, &c.Email, &c.Address,
			&c.DateOfBirth, &c.MedicalAidProvider, &c.MedicalAidMemberNo, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		custs = append(custs, &c)
	}
	return custs, total, nil
}
