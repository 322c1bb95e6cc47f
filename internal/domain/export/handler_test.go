package export

import (
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type stubRepo struct {
	rows []*Row
	err  error
}

func (s *stubRepo) ListRows(_ context.Context) ([]*Row, error) {
	return s.rows, s.err
}

func export(repo Repository) *httptest.ResponseRecorder {
	e := echo.New()
	NewHandler(repo).RegisterRoutes(e.Group("/api/v1"))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/export/orders.csv", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestExportHeaders(t *testing.T) {
	rec := export(&stubRepo{})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "text/csv" {
		t.Errorf("content type = %q", ct)
	}
	cd := rec.Header().Get(echo.HeaderContentDisposition)
	if !strings.Contains(cd, "attachment") || !strings.Contains(cd, "orders_export_") || !strings.Contains(cd, ".csv") {
		t.Errorf("content disposition = %q", cd)
	}
}

func TestExportRows(t *testing.T) {
	id := uuid.New()
	rec := export(&stubRepo{rows: []*Row{{
		OrderID:          id,
		CreatedAt:        time.Now(),
		PatientFirstName: "John",
		PatientLastName:  "Doe",
		PatientMRN:       "123456",
		ProviderName:     "Dr. Jane Smith",
		ProviderNPI:      "1234567890",
		PrimaryDiagnosis: "E11.9",
		MedicationName:   "Metformin",
		CarePlanStatus:   "succeeded",
		CarePlanText:     "Care plan text with, commas\nand newlines",
	}}})

	records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(records))
	}
	header, row := records[0], records[1]
	if header[0] != "Order ID" || header[len(header)-1] != "Care Plan Text" {
		t.Errorf("header = %v", header)
	}
	if len(row) != len(Header) {
		t.Fatalf("row has %d columns, want %d", len(row), len(Header))
	}
	if row[0] != id.String() || row[4] != "123456" || row[8] != "Metformin" {
		t.Errorf("row = %v", row)
	}
	if row[len(row)-1] != "Care plan text with, commas\nand newlines" {
		t.Errorf("care plan text not round-tripped: %q", row[len(row)-1])
	}
}

func TestExportOrderWithoutCarePlan(t *testing.T) {
	rec := export(&stubRepo{rows: []*Row{{
		OrderID:        uuid.New(),
		CreatedAt:      time.Now(),
		PatientMRN:     "123456",
		MedicationName: "Metformin",
	}}})

	records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	row := records[1]
	if row[len(row)-1] != "" {
		t.Errorf("missing care plan should export as empty text, got %q", row[len(row)-1])
	}
}

func TestExportEmpty(t *testing.T) {
	rec := export(&stubRepo{})
	records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("expected header only, got %d rows", len(records))
	}
}
