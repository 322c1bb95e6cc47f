package order

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lamar-health/careplan/internal/domain/patient"
	"github.com/lamar-health/careplan/internal/domain/provider"
)

func newTestDetector(patients *mockPatients, providers *mockProviders, orders *mockOrders) *Detector {
	return NewDetector(patients, providers, orders, 24*time.Hour)
}

func TestDetectCleanSubmission(t *testing.T) {
	d := newTestDetector(newMockPatients(), newMockProviders(), newMockOrders())
	ws, err := d.Detect(context.Background(), validSubmission())
	if err != nil {
		t.Fatal(err)
	}
	if len(ws) != 0 {
		t.Fatalf("expected no warnings, got %v", ws)
	}
}

func TestDetectExistingPatientSameName(t *testing.T) {
	patients := newMockPatients()
	patients.byMRN["123456"] = &patient.Patient{ID: uuid.New(), MRN: "123456", FirstName: "John", LastName: "Doe"}

	d := newTestDetector(patients, newMockProviders(), newMockOrders())
	ws, err := d.Detect(context.Background(), validSubmission())
	if err != nil {
		t.Fatal(err)
	}
	if len(ws) != 1 {
		t.Fatalf("expected 1 warning, got %v", ws)
	}
	if ws[0].Kind != KindPotentialDuplicate || ws[0].Field != "mrn" {
		t.Errorf("got %+v, want potential_duplicate_order on mrn", ws[0])
	}
}

func TestDetectMatchIsCaseAndSpaceInsensitive(t *testing.T) {
	patients := newMockPatients()
	patients.byMRN["123456"] = &patient.Patient{ID: uuid.New(), MRN: "123456", FirstName: "JOHN ", LastName: " doe"}

	d := newTestDetector(patients, newMockProviders(), newMockOrders())
	ws, err := d.Detect(context.Background(), validSubmission())
	if err != nil {
		t.Fatal(err)
	}
	if len(ws) != 1 || ws[0].Kind != KindPotentialDuplicate {
		t.Fatalf("normalized names should count as the same patient, got %v", ws)
	}
}

func TestDetectMRNNameMismatch(t *testing.T) {
	patients := newMockPatients()
	patients.byMRN["123456"] = &patient.Patient{ID: uuid.New(), MRN: "123456", FirstName: "Alice", LastName: "Brown"}

	d := newTestDetector(patients, newMockProviders(), newMockOrders())
	ws, err := d.Detect(context.Background(), validSubmission())
	if err != nil {
		t.Fatal(err)
	}
	if len(ws) != 1 || ws[0].Kind != KindDataMismatch || ws[0].Field != "mrn" {
		t.Fatalf("got %v, want data_mismatch on mrn", ws)
	}
}

func TestDetectProviderChecks(t *testing.T) {
	providers := newMockProviders()
	providers.byNPI["1234567890"] = &provider.Provider{ID: uuid.New(), NPI: "1234567890", Name: "Dr. Jane Smith"}

	d := newTestDetector(newMockPatients(), providers, newMockOrders())
	ws, err := d.Detect(context.Background(), validSubmission())
	if err != nil {
		t.Fatal(err)
	}
	if len(ws) != 1 || ws[0].Kind != KindPotentialDuplicate || ws[0].Field != "provider_npi" {
		t.Fatalf("got %v, want potential_duplicate_order on provider_npi", ws)
	}

	providers.byNPI["1234567890"].Name = "Dr. Someone Else"
	ws, err = d.Detect(context.Background(), validSubmission())
	if err != nil {
		t.Fatal(err)
	}
	if len(ws) != 1 || ws[0].Kind != KindDataMismatch {
		t.Fatalf("got %v, want data_mismatch on provider_npi", ws)
	}
}

func TestDetectRecentSimilarOrder(t *testing.T) {
	patients := newMockPatients()
	providers := newMockProviders()
	orders := newMockOrders()

	p := &patient.Patient{ID: uuid.New(), MRN: "123456", FirstName: "John", LastName: "Doe"}
	prov := &provider.Provider{ID: uuid.New(), NPI: "1234567890", Name: "Dr. Jane Smith"}
	patients.byMRN[p.MRN] = p
	providers.byNPI[prov.NPI] = prov

	prior := &Order{ID: uuid.New(), PatientID: p.ID, ProviderID: prov.ID,
		MedicationName: "OCREVUS ", CreatedAt: time.Now().Add(-2 * time.Hour)}
	orders.byID[prior.ID] = prior

	d := newTestDetector(patients, providers, orders)
	ws, err := d.Detect(context.Background(), validSubmission())
	if err != nil {
		t.Fatal(err)
	}
	if len(ws) != 3 {
		t.Fatalf("expected patient, provider and order warnings, got %v", ws)
	}
	last := ws[2]
	if last.Kind != KindPossibleDuplicate || last.Field != "medication_name" {
		t.Errorf("got %+v, want possible_duplicate_order on medication_name", last)
	}
}

func TestDetectIgnoresOrdersOutsideWindow(t *testing.T) {
	patients := newMockPatients()
	providers := newMockProviders()
	orders := newMockOrders()

	p := &patient.Patient{ID: uuid.New(), MRN: "123456", FirstName: "John", LastName: "Doe"}
	prov := &provider.Provider{ID: uuid.New(), NPI: "1234567890", Name: "Dr. Jane Smith"}
	patients.byMRN[p.MRN] = p
	providers.byNPI[prov.NPI] = prov

	stale := &Order{ID: uuid.New(), PatientID: p.ID, ProviderID: prov.ID,
		MedicationName: "Ocrevus", CreatedAt: time.Now().Add(-48 * time.Hour)}
	orders.byID[stale.ID] = stale

	d := newTestDetector(patients, providers, orders)
	ws, err := d.Detect(context.Background(), validSubmission())
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range ws {
		if w.Kind == KindPossibleDuplicate {
			t.Fatalf("order outside the window should not warn: %+v", w)
		}
	}
}

func TestDetectDifferentMedicationNoOrderWarning(t *testing.T) {
	patients := newMockPatients()
	providers := newMockProviders()
	orders := newMockOrders()

	p := &patient.Patient{ID: uuid.New(), MRN: "123456", FirstName: "John", LastName: "Doe"}
	prov := &provider.Provider{ID: uuid.New(), NPI: "1234567890", Name: "Dr. Jane Smith"}
	patients.byMRN[p.MRN] = p
	providers.byNPI[prov.NPI] = prov

	other := &Order{ID: uuid.New(), PatientID: p.ID, ProviderID: prov.ID,
		MedicationName: "Tysabri", CreatedAt: time.Now().Add(-time.Hour)}
	orders.byID[other.ID] = other

	d := newTestDetector(patients, providers, orders)
	ws, err := d.Detect(context.Background(), validSubmission())
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range ws {
		if w.Kind == KindPossibleDuplicate {
			t.Fatalf("different medication should not warn: %+v", w)
		}
	}
}

func TestDetectIsIdempotent(t *testing.T) {
	patients := newMockPatients()
	patients.byMRN["123456"] = &patient.Patient{ID: uuid.New(), MRN: "123456", FirstName: "Alice", LastName: "Brown"}

	d := newTestDetector(patients, newMockProviders(), newMockOrders())
	first, err := d.Detect(context.Background(), validSubmission())
	if err != nil {
		t.Fatal(err)
	}
	second, err := d.Detect(context.Background(), validSubmission())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("detection is not stable:\n%v\n%v", first, second)
	}
}
