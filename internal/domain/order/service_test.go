package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/lamar-health/careplan/internal/domain/patient"
	"github.com/lamar-health/careplan/internal/domain/provider"
)

type serviceFixture struct {
	patients  *mockPatients
	providers *mockProviders
	orders    *mockOrders
	svc       *Service
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		patients:  newMockPatients(),
		providers: newMockProviders(),
		orders:    newMockOrders(),
	}
	det := NewDetector(f.patients, f.providers, f.orders, 24*time.Hour)
	f.svc = NewService(f.patients, f.providers, f.orders, det, passthroughTx{}, zerolog.Nop())
	return f
}

func TestSubmitCreatesEverythingForNewPatient(t *testing.T) {
	f := newServiceFixture()
	res, err := f.svc.Submit(context.Background(), validSubmission())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Accepted() {
		t.Fatalf("expected acceptance, got warnings %v", res.Warnings)
	}
	if res.Patient == nil || res.Patient.MRN != "123456" {
		t.Fatalf("patient not created: %+v", res.Patient)
	}
	if res.Provider == nil || res.Provider.NPI != "1234567890" {
		t.Fatalf("provider not created: %+v", res.Provider)
	}
	if res.Order.PatientID != res.Patient.ID || res.Order.ProviderID != res.Provider.ID {
		t.Error("order not linked to created records")
	}
	if res.Order.MedicationName != "Ocrevus" {
		t.Errorf("medication = %q", res.Order.MedicationName)
	}
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	f := newServiceFixture()
	_, err := f.svc.Submit(context.Background(), &Submission{MRN: "bad"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(f.orders.byID) != 0 || len(f.patients.byMRN) != 0 {
		t.Error("nothing should be persisted on validation failure")
	}
}

func TestSubmitHeldUntilAcknowledged(t *testing.T) {
	f := newServiceFixture()
	existing := &patient.Patient{ID: uuid.New(), MRN: "123456", FirstName: "John", LastName: "Doe"}
	f.patients.byMRN[existing.MRN] = existing

	res, err := f.svc.Submit(context.Background(), validSubmission())
	if err != nil {
		t.Fatal(err)
	}
	if res.Accepted() {
		t.Fatal("first attempt should be held for acknowledgment")
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Kind != KindPotentialDuplicate {
		t.Fatalf("warnings = %v", res.Warnings)
	}
	if len(f.orders.byID) != 0 {
		t.Error("no order may be persisted while held")
	}

	// Resubmit with the returned warnings acknowledged.
	sub := validSubmission()
	for _, w := range res.Warnings {
		sub.Acknowledged = append(sub.Acknowledged, w.Ref())
	}
	res, err = f.svc.Submit(context.Background(), sub)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Accepted() {
		t.Fatalf("acknowledged resubmission should proceed, warnings %v", res.Warnings)
	}
	if res.Patient.ID != existing.ID {
		t.Error("resubmission should reuse the existing patient record")
	}
	if len(res.Warnings) != 1 {
		t.Error("accepted result should still echo the warnings that were acknowledged")
	}
}

func TestSubmitBlocksOnPartialAcknowledgment(t *testing.T) {
	f := newServiceFixture()
	f.patients.byMRN["123456"] = &patient.Patient{ID: uuid.New(), MRN: "123456", FirstName: "John", LastName: "Doe"}
	f.providers.byNPI["1234567890"] = &provider.Provider{ID: uuid.New(), NPI: "1234567890", Name: "Dr. Other"}

	sub := validSubmission()
	sub.Acknowledged = []WarningRef{{Kind: KindPotentialDuplicate, Field: "mrn"}}
	res, err := f.svc.Submit(context.Background(), sub)
	if err != nil {
		t.Fatal(err)
	}
	if res.Accepted() {
		t.Fatal("unacknowledged provider warning should keep the submission blocked")
	}
	if len(res.Warnings) != 2 {
		t.Fatalf("expected both warnings back, got %v", res.Warnings)
	}
}

func TestSubmitBlocksOnFreshWarning(t *testing.T) {
	f := newServiceFixture()
	f.patients.byMRN["123456"] = &patient.Patient{ID: uuid.New(), MRN: "123456", FirstName: "John", LastName: "Doe"}

	first, err := f.svc.Submit(context.Background(), validSubmission())
	if err != nil {
		t.Fatal(err)
	}

	// State changes between the two attempts: the NPI now exists under a
	// different name.
	f.providers.byNPI["1234567890"] = &provider.Provider{ID: uuid.New(), NPI: "1234567890", Name: "Dr. Other"}

	sub := validSubmission()
	for _, w := range first.Warnings {
		sub.Acknowledged = append(sub.Acknowledged, w.Ref())
	}
	res, err := f.svc.Submit(context.Background(), sub)
	if err != nil {
		t.Fatal(err)
	}
	if res.Accepted() {
		t.Fatal("a warning the caller never saw must block the resubmission")
	}
}

func TestSubmitTranslatesUniqueViolation(t *testing.T) {
	f := newServiceFixture()
	f.patients.createErr = &pgconn.PgError{Code: "23505", ConstraintName: "patient_mrn_key"}

	_, err := f.svc.Submit(context.Background(), validSubmission())
	var ierr *IntegrityError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected *IntegrityError, got %v", err)
	}
	if ierr.Key != "123456" {
		t.Errorf("key = %q", ierr.Key)
	}
}

func TestSubmitPropagatesOtherStoreErrors(t *testing.T) {
	f := newServiceFixture()
	f.orders.createErr = errors.New("connection reset")

	_, err := f.svc.Submit(context.Background(), validSubmission())
	if err == nil {
		t.Fatal("expected error")
	}
	var ierr *IntegrityError
	if errors.As(err, &ierr) {
		t.Fatal("non-unique store errors must not be dressed up as integrity conflicts")
	}
}
