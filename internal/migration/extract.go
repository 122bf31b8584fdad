// Package migration extracts structured disease cases from raw
// medical records using keyword classification of diagnosis and
// symptom text.
package migration

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vetcare-data/outbreak.report/internal/db"
	"github.com/vetcare-data/outbreak.report/internal/disease"
	"github.com/vetcare-data/outbreak.report/internal/monitoring"
)

// avgDaysPerMonth converts a diagnosis age from days to months.
const avgDaysPerMonth = 30.44

// categoryKeywords maps each disease category to the phrases that
// assign it. Categories are checked in this order; the first match
// wins, and unmatched diagnoses default to metabolic.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{disease.CategoryInfectious, []string{
		"infection", "viral", "bacterial", "fungal", "sepsis",
		"pneumonia", "parvovirus", "distemper", "kennel cough",
		"canine influenza", "feline leukemia", "fiv", "rabies",
		"leptospirosis", "bordetella", "coronavirus",
	}},
	{disease.CategoryParasitic, []string{
		"parasite", "worm", "flea", "tick", "mange", "heartworm",
		"roundworm", "hookworm", "tapeworm", "giardia", "coccidia",
		"mite", "lice", "demodex", "sarcoptic",
	}},
	{disease.CategoryMetabolic, []string{
		"diabetes", "thyroid", "kidney", "liver", "metabolic",
		"cushings", "addison", "renal", "hepatic", "uremia",
		"hypothyroid", "hyperthyroid", "pancreatitis",
	}},
	{disease.CategoryGenetic, []string{
		"genetic", "congenital", "hereditary", "hip dysplasia",
		"heart defect", "elbow dysplasia", "patellar luxation",
		"progressive retinal atrophy", "von willebrand",
	}},
	{disease.CategoryImmuneMediated, []string{
		"allerg", "immune", "autoimmune", "dermatitis",
		"atopic", "lupus", "pemphigus", "thrombocytopenia",
		"anemia", "inflammatory bowel",
	}},
	{disease.CategoryNeoplastic, []string{
		"cancer", "tumor", "neoplasm", "lymphoma", "carcinoma",
		"sarcoma", "melanoma", "mast cell", "osteosarcoma",
		"mammary tumor", "leukemia",
	}},
	{disease.CategoryTraumatic, []string{
		"fracture", "wound", "injury", "trauma", "bite",
		"laceration", "burn", "poisoning", "toxicity",
		"hit by car", "foreign body",
	}},
	{disease.CategoryNutritional, []string{
		"nutrition", "deficiency", "malnutrition", "obesity",
		"vitamin deficiency", "anorexia", "cachexia",
	}},
}

var contagiousKeywords = []string{
	"infection", "viral", "bacterial", "parvovirus", "distemper",
	"kennel cough", "contagious", "influenza", "coronavirus",
	"ringworm", "mange", "feline leukemia", "fiv",
}

// transmissionKeywords is checked in order; the first matching method
// wins.
var transmissionKeywords = []struct {
	method   string
	keywords []string
}{
	{disease.TransmissionAirborne, []string{"airborne", "respiratory", "kennel cough", "influenza", "pneumonia"}},
	{disease.TransmissionDirectContact, []string{"contact", "skin", "ringworm", "mange", "dermatitis"}},
	{disease.TransmissionFecalOral, []string{"fecal", "oral", "parvovirus", "coronavirus", "giardia"}},
	{disease.TransmissionVectorBorne, []string{"vector", "tick", "mosquito", "flea", "heartworm", "lyme"}},
}

var (
	criticalSymptoms = []string{"seizure", "collapse", "coma", "shock", "hemorrhage"}
	severeSymptoms   = []string{"vomiting", "diarrhea", "dehydration", "pain"}
)

// ClassifyDisease assigns a category from diagnosis and symptom text.
// An empty diagnosis and any unmatched text both fall back to the
// metabolic category.
func ClassifyDisease(diagnosis, symptoms string) string {
	if diagnosis == "" {
		return disease.CategoryMetabolic
	}
	text := strings.ToLower(diagnosis + " " + symptoms)
	for _, entry := range categoryKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(text, keyword) {
				return entry.category
			}
		}
	}
	return disease.CategoryMetabolic
}

// DetermineSeverity scores vital signs and symptom keywords into one
// of the four severity levels. Absent vitals contribute nothing, so a
// record with no readings grades mild unless symptoms say otherwise.
func DetermineSeverity(temperature *float64, heartRate, respRate *int, symptoms string) string {
	score := 0

	// Temperature bands in Celsius, shared across species.
	if temperature != nil {
		switch t := *temperature; {
		case t > 40.5 || t < 37.0:
			score += 3
		case t > 39.5 || t < 37.5:
			score += 2
		default:
			score++
		}
	}

	if heartRate != nil {
		switch hr := *heartRate; {
		case hr > 180 || hr < 60:
			score += 3
		case hr > 150 || hr < 80:
			score += 2
		default:
			score++
		}
	}

	if respRate != nil {
		switch rr := *respRate; {
		case rr > 40 || rr < 10:
			score += 3
		case rr > 30 || rr < 15:
			score += 2
		default:
			score++
		}
	}

	if symptoms != "" {
		lower := strings.ToLower(symptoms)
		if containsAny(lower, criticalSymptoms) {
			score += 3
		} else if containsAny(lower, severeSymptoms) {
			score += 2
		}
	}

	switch {
	case score >= 7:
		return disease.SeverityCritical
	case score >= 5:
		return disease.SeveritySevere
	case score >= 3:
		return disease.SeverityModerate
	default:
		return disease.SeverityMild
	}
}

// IsContagious reports whether the diagnosis or symptoms mention a
// contagious disease keyword.
func IsContagious(diagnosis, symptoms string) bool {
	text := strings.ToLower(diagnosis + " " + symptoms)
	return containsAny(text, contagiousKeywords)
}

// TransmissionMethod returns the transmission method for a contagious
// disease, or nil when no keyword matches.
func TransmissionMethod(diagnosis, symptoms string) *string {
	text := strings.ToLower(diagnosis + " " + symptoms)
	for _, entry := range transmissionKeywords {
		if containsAny(text, entry.keywords) {
			method := entry.method
			return &method
		}
	}
	return nil
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

// AgeMonths returns the age at diagnosis in whole months, or nil when
// the birth date is unknown.
func AgeMonths(birthDate *time.Time, visitDate time.Time) *float64 {
	if birthDate == nil || visitDate.IsZero() {
		return nil
	}
	days := visitDate.Sub(*birthDate).Hours() / 24
	months := float64(int(days / avgDaysPerMonth))
	return &months
}

// ExtractCase builds one structured case from a raw record. The case
// ID is freshly generated on every call.
func ExtractCase(r db.MedicalRecord) disease.Case {
	contagious := IsContagious(r.Diagnosis, r.Symptoms)

	c := disease.Case{
		CaseID:         uuid.NewString(),
		PetID:          r.PetID,
		Species:        r.Species,
		Breed:          r.Breed,
		DiseaseName:    r.Diagnosis,
		Category:       ClassifyDisease(r.Diagnosis, r.Symptoms),
		Severity:       DetermineSeverity(r.Temperature, r.HeartRate, r.RespiratoryRate, r.Symptoms),
		IsContagious:   contagious,
		AgeAtDiagnosis: AgeMonths(r.BirthDate, r.VisitDate),
		Region:         r.Region,
		DiagnosisDate:  r.VisitDate,
	}
	if contagious {
		c.TransmissionMethod = TransmissionMethod(r.Diagnosis, r.Symptoms)
	}
	if r.FollowupDate != nil && !r.VisitDate.IsZero() {
		days := float64(int(r.FollowupDate.Sub(r.VisitDate).Hours() / 24))
		c.TreatmentDays = &days
	}
	return c
}

// Result summarises one extraction run.
type Result struct {
	Processed int `json:"processed"`
	Migrated  int `json:"migrated"`
	Skipped   int `json:"skipped"`
}

// Run extracts a case for every diagnosed medical record not already
// represented in disease_cases. A record is a duplicate when a case
// exists for the same pet, disease and diagnosis day.
func Run(database *db.DB) (Result, error) {
	records, err := database.MedicalRecords()
	if err != nil {
		return Result{}, fmt.Errorf("loading medical records: %w", err)
	}
	monitoring.Logf("extracting disease cases from %d medical records", len(records))

	var result Result
	for _, r := range records {
		result.Processed++
		if strings.EqualFold(r.Diagnosis, "N/A") {
			result.Skipped++
			continue
		}
		exists, err := database.HasDiseaseCase(r.PetID, r.Diagnosis, r.VisitDate)
		if err != nil {
			return result, fmt.Errorf("checking for existing case: %w", err)
		}
		if exists {
			result.Skipped++
			continue
		}
		c := ExtractCase(r)
		if err := database.InsertDiseaseCase(c); err != nil {
			return result, fmt.Errorf("record %s: %w", r.RecordID, err)
		}
		result.Migrated++
		monitoring.Logf("migrated %q (%s, %s)", r.Diagnosis, c.Category, c.Severity)
	}

	monitoring.Logf("extraction complete: %d migrated, %d skipped", result.Migrated, result.Skipped)
	return result, nil
}
