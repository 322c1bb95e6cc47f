package order

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context, limit, offset int) ([]*Order, int, error)
	// FindSimilar returns the most recent order for the patient/provider pair
	// with the given normalized medication created at or after since, or
	// (nil, nil) when there is none.
	FindSimilar(ctx context.Context, patientID, providerID uuid.UUID, medication string, since time.Time) (*Order, error)
}
