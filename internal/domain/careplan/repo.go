package careplan

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrAlreadyGenerated means the order already has a succeeded plan, which
// regeneration never overwrites.
var ErrAlreadyGenerated = errors.New("care plan already generated for this order")

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*CarePlan, error)
	// GetByOrderID returns (nil, nil) when the order has no plan row yet.
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*CarePlan, error)
	// Upsert writes the attempt outcome for cp.OrderID, replacing a prior
	// pending or failed row. It returns ErrAlreadyGenerated when a succeeded
	// row already holds the slot.
	Upsert(ctx context.Context, cp *CarePlan) error
	// UpdateContent replaces the plan text, leaving status untouched.
	UpdateContent(ctx context.Context, id uuid.UUID, content string) (*CarePlan, error)
}
