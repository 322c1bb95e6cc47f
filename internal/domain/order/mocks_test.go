package order

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lamar-health/careplan/internal/domain/patient"
	"github.com/lamar-health/careplan/internal/domain/provider"
)

type mockPatients struct {
	byMRN     map[string]*patient.Patient
	createErr error
	created   []*patient.Patient
}

func newMockPatients() *mockPatients {
	return &mockPatients{byMRN: map[string]*patient.Patient{}}
}

func (m *mockPatients) Create(_ context.Context, p *patient.Patient) error {
	if m.createErr != nil {
		return m.createErr
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	m.byMRN[p.MRN] = p
	m.created = append(m.created, p)
	return nil
}

func (m *mockPatients) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	for _, p := range m.byMRN {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, errNotFound
}

func (m *mockPatients) GetByMRN(_ context.Context, mrn string) (*patient.Patient, error) {
	return m.byMRN[mrn], nil
}

type mockProviders struct {
	byNPI     map[string]*provider.Provider
	createErr error
}

func newMockProviders() *mockProviders {
	return &mockProviders{byNPI: map[string]*provider.Provider{}}
}

func (m *mockProviders) Create(_ context.Context, p *provider.Provider) error {
	if m.createErr != nil {
		return m.createErr
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	m.byNPI[p.NPI] = p
	return nil
}

func (m *mockProviders) GetByID(_ context.Context, id uuid.UUID) (*provider.Provider, error) {
	for _, p := range m.byNPI {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, errNotFound
}

func (m *mockProviders) GetByNPI(_ context.Context, npi string) (*provider.Provider, error) {
	return m.byNPI[npi], nil
}

type mockOrders struct {
	byID      map[uuid.UUID]*Order
	createErr error
}

func newMockOrders() *mockOrders {
	return &mockOrders{byID: map[uuid.UUID]*Order{}}
}

func (m *mockOrders) Create(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	now := time.Now()
	o.CreatedAt, o.UpdatedAt = now, now
	m.byID[o.ID] = o
	return nil
}

func (m *mockOrders) GetByID(_ context.Context, id uuid.UUID) (*Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, errNotFound
	}
	return o, nil
}

func (m *mockOrders) List(_ context.Context, _, _ int) ([]*Order, int, error) {
	items := make([]*Order, 0, len(m.byID))
	for _, o := range m.byID {
		items = append(items, o)
	}
	return items, len(items), nil
}

func (m *mockOrders) FindSimilar(_ context.Context, patientID, providerID uuid.UUID, medication string, since time.Time) (*Order, error) {
	var best *Order
	for _, o := range m.byID {
		if o.PatientID != patientID || o.ProviderID != providerID {
			continue
		}
		if normalizeMedication(o.MedicationName) != medication || o.CreatedAt.Before(since) {
			continue
		}
		if best == nil || o.CreatedAt.After(best.CreatedAt) {
			best = o
		}
	}
	return best, nil
}

// passthroughTx runs the function without a real transaction.
type passthroughTx struct{}

func (passthroughTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }

var errNotFound = notFoundError{}
