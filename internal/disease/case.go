// Package disease implements the disease-outbreak analytics core:
// feature encoding, dataset-size confidence grading, Naive Bayes
// category classification, k-means pattern clustering, rule-based
// outbreak risk scoring, and trend reporting over veterinary disease
// case records.
package disease

import (
	"errors"
	"fmt"
	"time"
)

// Disease categories form a closed set. The encoder freezes the label
// space at training time; values outside this set land in the reserved
// "unknown" bucket rather than passing through the classifier.
const (
	CategoryInfectious     = "infectious"
	CategoryParasitic      = "parasitic"
	CategoryMetabolic      = "metabolic"
	CategoryGenetic        = "genetic"
	CategoryImmuneMediated = "immune_mediated"
	CategoryNeoplastic     = "neoplastic"
	CategoryTraumatic      = "traumatic"
	CategoryNutritional    = "nutritional"
)

// Categories lists every valid disease category.
var Categories = []string{
	CategoryInfectious,
	CategoryParasitic,
	CategoryMetabolic,
	CategoryGenetic,
	CategoryImmuneMediated,
	CategoryNeoplastic,
	CategoryTraumatic,
	CategoryNutritional,
}

// Severity levels, mildest first.
const (
	SeverityMild     = "mild"
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"
	SeverityCritical = "critical"
)

// Transmission methods for contagious diseases.
const (
	TransmissionAirborne      = "airborne"
	TransmissionDirectContact = "direct_contact"
	TransmissionFecalOral     = "fecal_oral"
	TransmissionVectorBorne   = "vector_borne"
)

// Case is one diagnosed disease record for one patient. Nullable
// database columns map to pointer fields; DiagnosisDate is required
// for every case entering the analytic pipeline.
type Case struct {
	CaseID             string    `json:"case_id"`
	PetID              string    `json:"pet_id"`
	Species            string    `json:"species"`
	Breed              string    `json:"breed"`
	AgeAtDiagnosis     *float64  `json:"age_at_diagnosis,omitempty"` // months
	DiseaseName        string    `json:"disease_name"`
	Category           string    `json:"disease_category"`
	Severity           string    `json:"severity"`
	Outcome            string    `json:"outcome,omitempty"`
	TreatmentDays      *float64  `json:"treatment_duration_days,omitempty"`
	IsContagious       bool      `json:"is_contagious"`
	TransmissionMethod *string   `json:"transmission_method,omitempty"`
	Region             *string   `json:"region,omitempty"`
	DiagnosisDate      time.Time `json:"diagnosis_date"`
}

// ErrInvalidInput reports a prediction request missing required case
// fields. Distinct from the model_not_trained status so callers can
// tell a bad request from an absent model.
var ErrInvalidInput = errors.New("invalid case input")

// ValidateForPrediction checks that the fields the feature encoder
// depends on are present. Breed and the numeric fields are optional;
// missing values encode to the unknown bucket or zero.
func (c *Case) ValidateForPrediction() error {
	if c.Species == "" {
		return fmt.Errorf("%w: species is required", ErrInvalidInput)
	}
	if c.Severity == "" {
		return fmt.Errorf("%w: severity is required", ErrInvalidInput)
	}
	return nil
}

// CaseSource supplies case records to the analytic pipeline. The
// database layer implements it; tests substitute fixtures.
type CaseSource interface {
	DiseaseCases() ([]Case, error)
}
