package claims

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

const claimCols = `id, customer_id, prescription_id, provider, membership_number,
	amount, status, reference, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, claim *Claim) error {
	claim.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medical_aid_claim (
			id, customer_id, prescription_id, provider, membership_number,
			amount, status, reference
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		claim.ID, claim.CustomerID, claim.PrescriptionID, claim.Provider, claim.MembershipNumber,
		claim.Amount, claim.Status, claim.Reference,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Claim, error) {
	return scanClaim(r.conn(ctx).QueryRow(ctx, `SELECT `+claimCols+` FROM medical_aid_claim WHERE id = $1`, id))
}

func (r *repoPG) GetByPrescription(ctx context.Context, prescriptionID uuid.UUID) (*Claim, error) {
	return scanClaim(r.conn(ctx).QueryRow(ctx,
		`SELECT `+claimCols+` FROM medical_aid_claim WHERE prescription_id = $1 ORDER BY created_at DESC LIMIT 1`,
		prescriptionID))
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE medical_aid_claim SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Claim, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medical_aid_claim`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+claimCols+` FROM medical_aid_claim ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []*Claim
	for rows.Next() {
		var c Claim
		err := rows.Scan(
			&c.ID, &c.CustomerID, &c.PrescriptionID, &c.Provider, &c.MembershipNumber,
			&c.Amount, &c.Status, &c.Reference, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, &c)
	}
	return result, total, nil
}

func scanClaim(row pgx.Row) (*Claim, error) {
	var c Claim
	err := row.Scan(
		&c.ID, &c.CustomerID, &c.PrescriptionID, &c.Provider, &c.MembershipNumber,
		&c.Amount, &c.Status, &c.Reference, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
