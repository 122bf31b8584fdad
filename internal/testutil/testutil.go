// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vetcare-data/outbreak.report/internal/disease"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

// CaseOption mutates a fixture case.
type CaseOption func(*disease.Case)

// WithRegion sets the case region.
func WithRegion(region string) CaseOption {
	return func(c *disease.Case) { c.Region = &region }
}

// WithSeverity sets the case severity.
func WithSeverity(severity string) CaseOption {
	return func(c *disease.Case) { c.Severity = severity }
}

// Contagious marks the case contagious.
func Contagious() CaseOption {
	return func(c *disease.Case) { c.IsContagious = true }
}

// WithAge sets the age at diagnosis in months.
func WithAge(months float64) CaseOption {
	return func(c *disease.Case) { c.AgeAtDiagnosis = &months }
}

// NewCase builds a fixture case with sensible defaults, applying any
// options on top.
func NewCase(species, diseaseName, category string, diagnosed time.Time, opts ...CaseOption) disease.Case {
	c := disease.Case{
		CaseID:        "case-" + diseaseName + "-" + diagnosed.Format("20060102"),
		Species:       species,
		DiseaseName:   diseaseName,
		Category:      category,
		Severity:      disease.SeverityMild,
		DiagnosisDate: diagnosed,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
