package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lamar-health/careplan/internal/domain/patient"
	"github.com/lamar-health/careplan/internal/domain/provider"
)

// PatientLookup is the slice of the patient repository the detector reads.
type PatientLookup interface {
	GetByMRN(ctx context.Context, mrn string) (*patient.Patient, error)
}

// ProviderLookup is the slice of the provider repository the detector reads.
type ProviderLookup interface {
	GetByNPI(ctx context.Context, npi string) (*provider.Provider, error)
}

// OrderLookup finds an earlier similar order for the recent-order check.
type OrderLookup interface {
	FindSimilar(ctx context.Context, patientID, providerID uuid.UUID, medication string, since time.Time) (*Order, error)
}

// DefaultDuplicateWindow is how far back the same-medication check looks.
const DefaultDuplicateWindow = 24 * time.Hour

// Detector runs the duplicate checks against existing records. It only
// reads; running it twice on the same state yields the same warnings, so a
// resubmission with acknowledgments re-detects rather than trusting the
// client's copy.
type Detector struct {
	patients  PatientLookup
	providers ProviderLookup
	orders    OrderLookup
	window    time.Duration
	now       func() time.Time
}

// NewDetector wires a detector over the given lookups. A zero window falls
// back to DefaultDuplicateWindow.
func NewDetector(patients PatientLookup, providers ProviderLookup, orders OrderLookup, window time.Duration) *Detector {
	if window <= 0 {
		window = DefaultDuplicateWindow
	}
	return &Detector{
		patients:  patients,
		providers: providers,
		orders:    orders,
		window:    window,
		now:       time.Now,
	}
}

// Detect evaluates the submission against existing patients, providers and
// recent orders. The warning order is stable: patient, provider, then order.
func (d *Detector) Detect(ctx context.Context, sub *Submission) (WarningSet, error) {
	var warnings WarningSet

	p, err := d.patients.GetByMRN(ctx, sub.MRN)
	if err != nil {
		return nil, fmt.Errorf("checking patient mrn: %w", err)
	}
	if p != nil {
		if p.NameMatches(sub.PatientFirstName, sub.PatientLastName) {
			warnings = append(warnings, Warning{
				Kind:  KindPotentialDuplicate,
				Field: "mrn",
				Message: fmt.Sprintf("A patient named %s with MRN %s already exists. This may be a duplicate order for the same patient.",
					p.FullName(), sub.MRN),
			})
		} else {
			warnings = append(warnings, Warning{
				Kind:  KindDataMismatch,
				Field: "mrn",
				Message: fmt.Sprintf("MRN %s is already registered to %s, not %s %s. If you proceed, the order will be created for the existing patient record.",
					sub.MRN, p.FullName(), strings.TrimSpace(sub.PatientFirstName), strings.TrimSpace(sub.PatientLastName)),
			})
		}
	}

	prov, err := d.providers.GetByNPI(ctx, sub.ProviderNPI)
	if err != nil {
		return nil, fmt.Errorf("checking provider npi: %w", err)
	}
	if prov != nil {
		if prov.NameMatches(sub.ProviderName) {
			warnings = append(warnings, Warning{
				Kind:  KindPotentialDuplicate,
				Field: "provider_npi",
				Message: fmt.Sprintf("Provider %s with NPI %s already exists. Previous orders from this provider will be linked to the same record.",
					prov.Name, sub.ProviderNPI),
			})
		} else {
			warnings = append(warnings, Warning{
				Kind:  KindDataMismatch,
				Field: "provider_npi",
				Message: fmt.Sprintf("NPI %s is already registered to %s, not %s. If you proceed, the order will use the existing provider record.",
					sub.ProviderNPI, prov.Name, strings.TrimSpace(sub.ProviderName)),
			})
		}
	}

	// The recent-order check only applies when both parties already exist;
	// a brand-new patient or provider cannot have prior orders.
	if p != nil && prov != nil {
		since := d.now().Add(-d.window)
		prior, err := d.orders.FindSimilar(ctx, p.ID, prov.ID, normalizeMedication(sub.MedicationName), since)
		if err != nil {
			return nil, fmt.Errorf("checking recent orders: %w", err)
		}
		if prior != nil {
			warnings = append(warnings, Warning{
				Kind:  KindPossibleDuplicate,
				Field: "medication_name",
				Message: fmt.Sprintf("An order for %s for this patient from this provider was already created at %s. This might be a duplicate submission.",
					prior.MedicationName, prior.CreatedAt.UTC().Format("Jan 2, 2006 15:04 MST")),
			})
		}
	}

	return warnings, nil
}

// normalizeMedication makes the same-medication comparison insensitive to
// case and surrounding whitespace.
func normalizeMedication(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
