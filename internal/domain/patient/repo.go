package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	// GetByMRN returns (nil, nil) when no patient has the MRN.
	GetByMRN(ctx context.Context, mrn string) (*Patient, error)
}
