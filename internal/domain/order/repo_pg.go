package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lamar-health/careplan/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const cols = `id, patient_id, provider_id, primary_diagnosis, medication_name,
	additional_diagnoses, medication_history, patient_records, created_at, updated_at`

func scan(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.PatientID, &o.ProviderID, &o.PrimaryDiagnosis, &o.MedicationName,
		&o.AdditionalDiagnoses, &o.MedicationHistory, &o.PatientRecords, &o.CreatedAt, &o.UpdatedAt)
	return &o, err
}

func (r *repoPG) Create(ctx context.Context, o *Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO orders (id, patient_id, provider_id, primary_diagnosis, medication_name,
			additional_diagnoses, medication_history, patient_records)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		o.ID, o.PatientID, o.ProviderID, o.PrimaryDiagnosis, o.MedicationName,
		o.AdditionalDiagnoses, o.MedicationHistory, o.PatientRecords).
		Scan(&o.CreatedAt, &o.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM orders WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Order, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+cols+` FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Order
	for rows.Next() {
		o, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, o)
	}
	return items, total, rows.Err()
}

func (r *repoPG) FindSimilar(ctx context.Context, patientID, providerID uuid.UUID, medication string, since time.Time) (*Order, error) {
	o, err := scan(r.conn(ctx).QueryRow(ctx, `
		SELECT `+cols+` FROM orders
		WHERE patient_id = $1 AND provider_id = $2
		  AND lower(trim(medication_name)) = $3
		  AND created_at >= $4
		ORDER BY created_at DESC
		LIMIT 1`,
		patientID, providerID, medication, since))
	if db.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}
