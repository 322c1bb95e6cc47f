package careplan

import (
	"context"

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

const cols = `id, order_id, status, content, failure_reason, created_at, updated_at`

func scan(row pgx.Row) (*CarePlan, error) {
	var cp CarePlan
	err := row.Scan(&cp.ID, &cp.OrderID, &cp.Status, &cp.Content, &cp.FailureReason, &cp.CreatedAt, &cp.UpdatedAt)
	return &cp, err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*CarePlan, error) {
	return scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM care_plan WHERE id = $1`, id))
}

func (r *repoPG) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*CarePlan, error) {
	cp, err := scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM care_plan WHERE order_id = $1`, orderID))
	if db.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cp, nil
}

// Upsert keys on order_id. The WHERE clause on the conflict update makes a
// succeeded row immovable: the statement then returns no rows and we report
// ErrAlreadyGenerated.
func (r *repoPG) Upsert(ctx context.Context, cp *CarePlan) error {
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO care_plan (id, order_id, status, content, failure_reason)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (order_id) DO UPDATE
		SET status = EXCLUDED.status,
		    content = EXCLUDED.content,
		    failure_reason = EXCLUDED.failure_reason,
		    updated_at = now()
		WHERE care_plan.status <> 'succeeded'
		RETURNING id, created_at, updated_at`,
		cp.ID, cp.OrderID, cp.Status, cp.Content, cp.FailureReason).
		Scan(&cp.ID, &cp.CreatedAt, &cp.UpdatedAt)
	if db.IsNoRows(err) {
		return ErrAlreadyGenerated
	}
	return err
}

func (r *repoPG) UpdateContent(ctx context.Context, id uuid.UUID, content string) (*CarePlan, error) {
	return scan(r.conn(ctx).QueryRow(ctx, `
		UPDATE care_plan
		SET content = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+cols,
		id, content))
}
