package order

import (
	"strings"
	"testing"
)

func validSubmission() *Submission {
	return &Submission{
		PatientFirstName: "John",
		PatientLastName:  "Doe",
		MRN:              "123456",
		ProviderName:     "Dr. Jane Smith",
		ProviderNPI:      "1234567890",
		PrimaryDiagnosis: "Multiple Sclerosis",
		MedicationName:   "Ocrevus",
		PatientRecords:   "Stable on current regimen.",
	}
}

func TestValidateAcceptsCompleteSubmission(t *testing.T) {
	if verr := validSubmission().Validate(); verr != nil {
		t.Fatalf("unexpected validation error: %v", verr)
	}
}

func TestValidateReportsAllFailuresAtOnce(t *testing.T) {
	sub := &Submission{MRN: "12ab", ProviderNPI: "123"}
	verr := sub.Validate()
	if verr == nil {
		t.Fatal("expected validation error")
	}
	for _, field := range []string{
		"patient_first_name", "patient_last_name", "provider_name",
		"primary_diagnosis", "medication_name", "patient_records",
		"mrn", "provider_npi",
	} {
		if len(verr.Fields[field]) == 0 {
			t.Errorf("expected a failure for %s, got none", field)
		}
	}
}

func TestValidateMRNFormat(t *testing.T) {
	for _, mrn := range []string{"12345", "1234567", "12345a", "12 456", ""} {
		sub := validSubmission()
		sub.MRN = mrn
		verr := sub.Validate()
		if verr == nil || len(verr.Fields["mrn"]) == 0 {
			t.Errorf("mrn %q: expected failure", mrn)
		}
	}
}

func TestValidateNPIFormat(t *testing.T) {
	for _, npi := range []string{"123456789", "12345678901", "123456789x"} {
		sub := validSubmission()
		sub.ProviderNPI = npi
		verr := sub.Validate()
		if verr == nil || len(verr.Fields["provider_npi"]) == 0 {
			t.Errorf("npi %q: expected failure", npi)
		}
	}
}

func TestValidateRejectsBlankRequiredFields(t *testing.T) {
	sub := validSubmission()
	sub.PatientRecords = "   \n\t "
	verr := sub.Validate()
	if verr == nil || len(verr.Fields["patient_records"]) == 0 {
		t.Fatal("whitespace-only patient_records should fail")
	}
}

func TestValidateCapsPatientRecords(t *testing.T) {
	sub := validSubmission()
	sub.PatientRecords = strings.Repeat("x", maxPatientRecordsLen+1)
	verr := sub.Validate()
	if verr == nil || len(verr.Fields["patient_records"]) == 0 {
		t.Fatal("oversized patient_records should fail")
	}

	sub.PatientRecords = strings.Repeat("x", maxPatientRecordsLen)
	if verr := sub.Validate(); verr != nil {
		t.Fatalf("records at the cap should pass, got %v", verr)
	}
}

func TestWarningSetAcknowledgedBy(t *testing.T) {
	ws := WarningSet{
		{Kind: KindPotentialDuplicate, Field: "mrn", Message: "dup"},
		{Kind: KindDataMismatch, Field: "provider_npi", Message: "mismatch"},
	}

	if ws.AcknowledgedBy(nil) {
		t.Error("empty acks should not cover warnings")
	}
	if ws.AcknowledgedBy([]WarningRef{{Kind: KindPotentialDuplicate, Field: "mrn"}}) {
		t.Error("partial acks should not cover warnings")
	}

	full := []WarningRef{
		{Kind: KindDataMismatch, Field: "provider_npi"},
		{Kind: KindPotentialDuplicate, Field: "mrn"},
	}
	if !ws.AcknowledgedBy(full) {
		t.Error("full acks should cover warnings regardless of order")
	}

	// Stale refs that no longer match any warning are harmless.
	extra := append(full, WarningRef{Kind: KindPossibleDuplicate, Field: "medication_name"})
	if !ws.AcknowledgedBy(extra) {
		t.Error("extra stale refs should not block")
	}

	if !(WarningSet{}).AcknowledgedBy(nil) {
		t.Error("empty warning set is trivially acknowledged")
	}
}
