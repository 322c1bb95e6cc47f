// Package export produces the pharmacist-facing CSV dump of orders joined
// with their patients, providers and generated care plans.
package export

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Row is one flattened order for the CSV. CarePlanStatus and CarePlanText
// are empty when the order has no plan yet.
type Row struct {
	OrderID             uuid.UUID
	CreatedAt           time.Time
	PatientFirstName    string
	PatientLastName     string
	PatientMRN          string
	ProviderName        string
	ProviderNPI         string
	PrimaryDiagnosis    string
	MedicationName      string
	AdditionalDiagnoses string
	MedicationHistory   string
	CarePlanStatus      string
	CarePlanText        string
}

// Header is the CSV header row, in column order.
var Header = []string{
	"Order ID",
	"Created At",
	"Patient First Name",
	"Patient Last Name",
	"Patient MRN",
	"Provider Name",
	"Provider NPI",
	"Primary Diagnosis",
	"Medication Name",
	"Additional Diagnoses",
	"Medication History",
	"Care Plan Status",
	"Care Plan Text",
}

// Record renders the row in Header's column order.
func (r *Row) Record() []string {
	return []string{
		r.OrderID.String(),
		r.CreatedAt.UTC().Format(time.RFC3339),
		r.PatientFirstName,
		r.PatientLastName,
		r.PatientMRN,
		r.ProviderName,
		r.ProviderNPI,
		r.PrimaryDiagnosis,
		r.MedicationName,
		r.AdditionalDiagnoses,
		r.MedicationHistory,
		r.CarePlanStatus,
		r.CarePlanText,
	}
}

// Repository streams every order, newest first.
type Repository interface {
	ListRows(ctx context.Context) ([]*Row, error)
}
