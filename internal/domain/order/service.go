package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lamar-health/careplan/internal/domain/patient"
	"github.com/lamar-health/careplan/internal/domain/provider"
	"github.com/lamar-health/careplan/internal/platform/db"
)

// Result is the outcome of a submission attempt. When Warnings is set and
// Order is nil, the submission is blocked pending acknowledgment; the caller
// resubmits the same payload with the warnings echoed back as acknowledged.
type Result struct {
	Order    *Order             `json:"order,omitempty"`
	Patient  *patient.Patient   `json:"patient,omitempty"`
	Provider *provider.Provider `json:"provider,omitempty"`
	Warnings WarningSet         `json:"warnings,omitempty"`
}

// Accepted reports whether the attempt produced a persisted order.
func (r *Result) Accepted() bool { return r.Order != nil }

type Service struct {
	patients  patient.Repository
	providers provider.Repository
	orders    Repository
	detector  *Detector
	tx        db.TxRunner
	log       zerolog.Logger
}

func NewService(patients patient.Repository, providers provider.Repository, orders Repository,
	detector *Detector, tx db.TxRunner, log zerolog.Logger) *Service {
	return &Service{
		patients:  patients,
		providers: providers,
		orders:    orders,
		detector:  detector,
		tx:        tx,
		log:       log.With().Str("component", "order_service").Logger(),
	}
}

// Submit runs the full intake workflow: validate, detect duplicates, check
// acknowledgments, persist. Detection always runs against current state, so
// warnings that appeared between the first attempt and the acknowledged
// resubmission block again rather than slipping through.
func (s *Service) Submit(ctx context.Context, sub *Submission) (*Result, error) {
	if verr := sub.Validate(); verr != nil {
		return nil, verr
	}

	warnings, err := s.detector.Detect(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("duplicate detection: %w", err)
	}
	if len(warnings) > 0 && !warnings.AcknowledgedBy(sub.Acknowledged) {
		s.log.Info().Ctx(ctx).Int("warnings", len(warnings)).Str("mrn", sub.MRN).
			Msg("submission held for acknowledgment")
		return &Result{Warnings: warnings}, nil
	}

	res := &Result{Warnings: warnings}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.resolvePatient(ctx, sub)
		if err != nil {
			return err
		}
		prov, err := s.resolveProvider(ctx, sub)
		if err != nil {
			return err
		}

		o := &Order{
			PatientID:           p.ID,
			ProviderID:          prov.ID,
			PrimaryDiagnosis:    sub.PrimaryDiagnosis,
			MedicationName:      sub.MedicationName,
			AdditionalDiagnoses: sub.AdditionalDiagnoses,
			MedicationHistory:   sub.MedicationHistory,
			PatientRecords:      sub.PatientRecords,
		}
		if err := s.orders.Create(ctx, o); err != nil {
			return fmt.Errorf("creating order: %w", err)
		}

		res.Order, res.Patient, res.Provider = o, p, prov
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Ctx(ctx).Str("order_id", res.Order.ID.String()).
		Str("patient_id", res.Patient.ID.String()).Msg("order created")
	return res, nil
}

// resolvePatient reuses the record holding the submitted MRN or creates one.
// A unique violation on create means another submission won the race between
// our lookup and insert; it surfaces as a retryable IntegrityError.
func (s *Service) resolvePatient(ctx context.Context, sub *Submission) (*patient.Patient, error) {
	p, err := s.patients.GetByMRN(ctx, sub.MRN)
	if err != nil {
		return nil, fmt.Errorf("looking up patient: %w", err)
	}
	if p != nil {
		return p, nil
	}
	p = &patient.Patient{
		MRN:       sub.MRN,
		FirstName: sub.PatientFirstName,
		LastName:  sub.PatientLastName,
	}
	if err := s.patients.Create(ctx, p); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, &IntegrityError{Resource: "patient with MRN", Key: sub.MRN}
		}
		return nil, fmt.Errorf("creating patient: %w", err)
	}
	return p, nil
}

func (s *Service) resolveProvider(ctx context.Context, sub *Submission) (*provider.Provider, error) {
	prov, err := s.providers.GetByNPI(ctx, sub.ProviderNPI)
	if err != nil {
		return nil, fmt.Errorf("looking up provider: %w", err)
	}
	if prov != nil {
		return prov, nil
	}
	prov = &provider.Provider{
		NPI:  sub.ProviderNPI,
		Name: sub.ProviderName,
	}
	if err := s.providers.Create(ctx, prov); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, &IntegrityError{Resource: "provider with NPI", Key: sub.ProviderNPI}
		}
		return nil, fmt.Errorf("creating provider: %w", err)
	}
	return prov, nil
}

// Get returns one order by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

// List pages through orders newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Order, int, error) {
	return s.orders.List(ctx, limit, offset)
}
