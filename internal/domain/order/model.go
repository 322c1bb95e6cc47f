package order

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Order maps to the orders table. The clinical fields are a point-in-time
// snapshot captured at submission; they are never synced back to the patient
// record and the order has no update path.
type Order struct {
	ID                  uuid.UUID `db:"id" json:"id"`
	PatientID           uuid.UUID `db:"patient_id" json:"patient_id"`
	ProviderID          uuid.UUID `db:"provider_id" json:"provider_id"`
	PrimaryDiagnosis    string    `db:"primary_diagnosis" json:"primary_diagnosis"`
	MedicationName      string    `db:"medication_name" json:"medication_name"`
	AdditionalDiagnoses string    `db:"additional_diagnoses" json:"additional_diagnoses"`
	MedicationHistory   string    `db:"medication_history" json:"medication_history"`
	PatientRecords      string    `db:"patient_records" json:"patient_records"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// maxPatientRecordsLen bounds the free-text medical record field.
const maxPatientRecordsLen = 50000

var (
	mrnPattern = regexp.MustCompile(`^\d{6}$`)
	npiPattern = regexp.MustCompile(`^\d{10}$`)
)

// Submission is the raw order form payload. Acknowledged carries the warning
// set the caller saw on a previous attempt; it is the explicit state object
// of the two-phase acknowledgment handshake, so the workflow stays stateless
// between requests.
type Submission struct {
	PatientFirstName    string `json:"patient_first_name"`
	PatientLastName     string `json:"patient_last_name"`
	MRN                 string `json:"mrn"`
	ProviderName        string `json:"provider_name"`
	ProviderNPI         string `json:"provider_npi"`
	PrimaryDiagnosis    string `json:"primary_diagnosis"`
	MedicationName      string `json:"medication_name"`
	AdditionalDiagnoses string `json:"additional_diagnoses"`
	MedicationHistory   string `json:"medication_history"`
	PatientRecords      string `json:"patient_records"`

	Acknowledged []WarningRef `json:"acknowledged_warnings,omitempty"`
}

// Validate checks format and presence for every field and reports all
// failures at once, not just the first.
func (s *Submission) Validate() *ValidationError {
	verr := &ValidationError{Fields: map[string][]string{}}

	require := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			verr.add(field, "is required")
		}
	}

	require("patient_first_name", s.PatientFirstName)
	require("patient_last_name", s.PatientLastName)
	require("provider_name", s.ProviderName)
	require("primary_diagnosis", s.PrimaryDiagnosis)
	require("medication_name", s.MedicationName)
	require("patient_records", s.PatientRecords)

	if s.MRN == "" {
		verr.add("mrn", "is required")
	} else if !mrnPattern.MatchString(s.MRN) {
		verr.add("mrn", "must be exactly 6 digits")
	}

	if s.ProviderNPI == "" {
		verr.add("provider_npi", "is required")
	} else if !npiPattern.MatchString(s.ProviderNPI) {
		verr.add("provider_npi", "must be exactly 10 digits")
	}

	if len(s.PatientRecords) > maxPatientRecordsLen {
		verr.add("patient_records", fmt.Sprintf("must be at most %d characters", maxPatientRecordsLen))
	}

	if len(verr.Fields) == 0 {
		return nil
	}
	return verr
}

// ValidationError carries every failing field with its messages.
type ValidationError struct {
	Fields map[string][]string `json:"fields"`
}

func (e *ValidationError) add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// IntegrityError is a store-level uniqueness race translated into a
// user-facing "already exists, retry" condition.
type IntegrityError struct {
	Resource string
	Key      string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s %s already exists; retry the submission", e.Resource, e.Key)
}
