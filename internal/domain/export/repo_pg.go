package export

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) ListRows(ctx context.Context) ([]*Row, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT o.id, o.created_at,
		       p.first_name, p.last_name, p.mrn,
		       pr.name, pr.npi,
		       o.primary_diagnosis, o.medication_name,
		       o.additional_diagnoses, o.medication_history,
		       COALESCE(cp.status, ''), COALESCE(cp.content, '')
		FROM orders o
		JOIN patient p ON p.id = o.patient_id
		JOIN provider pr ON pr.id = o.provider_id
		LEFT JOIN care_plan cp ON cp.order_id = o.id
		ORDER BY o.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.OrderID, &row.CreatedAt,
			&row.PatientFirstName, &row.PatientLastName, &row.PatientMRN,
			&row.ProviderName, &row.ProviderNPI,
			&row.PrimaryDiagnosis, &row.MedicationName,
			&row.AdditionalDiagnoses, &row.MedicationHistory,
			&row.CarePlanStatus, &row.CarePlanText); err != nil {
			return nil, err
		}
		out = append(out, &row)
	}
	return out, rows.Err()
}
