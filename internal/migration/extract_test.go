package migration

import (
	"testing"
	"time"

	"github.com/vetcare-data/outbreak.report/internal/db"
	"github.com/vetcare-data/outbreak.report/internal/disease"
)

func TestClassifyDisease(t *testing.T) {
	tests := []struct {
		diagnosis string
		symptoms  string
		want      string
	}{
		{"canine parvovirus", "", disease.CategoryInfectious},
		{"heartworm disease", "", disease.CategoryParasitic},
		{"diabetes mellitus", "", disease.CategoryMetabolic},
		{"hip dysplasia", "", disease.CategoryGenetic},
		{"atopic dermatitis", "", disease.CategoryImmuneMediated},
		{"mast cell tumor", "", disease.CategoryNeoplastic},
		{"hit by car", "", disease.CategoryTraumatic},
		{"obesity", "", disease.CategoryNutritional},
		{"unclear presentation", "", disease.CategoryMetabolic},
		{"", "coughing", disease.CategoryMetabolic},
		// Symptoms participate in classification too.
		{"annual checkup finding", "tick infestation", disease.CategoryParasitic},
	}
	for _, tt := range tests {
		if got := ClassifyDisease(tt.diagnosis, tt.symptoms); got != tt.want {
			t.Errorf("ClassifyDisease(%q, %q) = %q, want %q", tt.diagnosis, tt.symptoms, got, tt.want)
		}
	}
}

func TestClassifyDiseaseFirstCategoryWins(t *testing.T) {
	// "viral" (infectious) and "anemia" (immune mediated) both match;
	// the earlier category takes precedence.
	got := ClassifyDisease("viral anemia", "")
	if got != disease.CategoryInfectious {
		t.Errorf("got %q, want infectious", got)
	}
}

func TestDetermineSeverity(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	i := func(v int) *int { return &v }

	tests := []struct {
		name     string
		temp     *float64
		heart    *int
		resp     *int
		symptoms string
		want     string
	}{
		{"no vitals no symptoms", nil, nil, nil, "", disease.SeverityMild},
		{"normal vitals", f(38.5), i(100), i(20), "", disease.SeverityModerate},
		{"all vitals extreme", f(41.0), i(200), i(50), "", disease.SeverityCritical},
		{"elevated vitals", f(39.8), i(160), i(33), "", disease.SeveritySevere},
		{"critical symptoms alone", nil, nil, nil, "sudden collapse", disease.SeverityModerate},
		{"severe symptoms with fever", f(40.0), nil, nil, "vomiting and diarrhea", disease.SeverityModerate},
		{"critical symptoms with extreme vitals", f(41.0), i(190), nil, "seizure activity", disease.SeverityCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetermineSeverity(tt.temp, tt.heart, tt.resp, tt.symptoms)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsContagious(t *testing.T) {
	if !IsContagious("kennel cough", "") {
		t.Error("kennel cough should be contagious")
	}
	if !IsContagious("skin condition", "ringworm lesions") {
		t.Error("symptoms should mark contagion")
	}
	if IsContagious("hip dysplasia", "limping") {
		t.Error("hip dysplasia should not be contagious")
	}
}

func TestTransmissionMethod(t *testing.T) {
	tests := []struct {
		diagnosis string
		want      string
	}{
		{"kennel cough", disease.TransmissionAirborne},
		{"ringworm", disease.TransmissionDirectContact},
		{"giardia infection", disease.TransmissionFecalOral},
		{"heartworm", disease.TransmissionVectorBorne},
	}
	for _, tt := range tests {
		got := TransmissionMethod(tt.diagnosis, "")
		if got == nil || *got != tt.want {
			t.Errorf("TransmissionMethod(%q) = %v, want %q", tt.diagnosis, got, tt.want)
		}
	}
	if got := TransmissionMethod("diabetes", ""); got != nil {
		t.Errorf("expected nil method, got %q", *got)
	}
}

func TestAgeMonths(t *testing.T) {
	birth := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	visit := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	got := AgeMonths(&birth, visit)
	if got == nil {
		t.Fatal("expected an age")
	}
	// 731 days / 30.44 truncates to 24 months.
	if *got != 24 {
		t.Errorf("age = %v months, want 24", *got)
	}

	if AgeMonths(nil, visit) != nil {
		t.Error("unknown birth date should yield nil age")
	}
}

func TestExtractCase(t *testing.T) {
	birth := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	visit := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	followup := visit.AddDate(0, 0, 10)
	region := "harbor district"
	temp := 40.0

	c := ExtractCase(db.MedicalRecord{
		RecordID:     "rec-1",
		PetID:        "pet-1",
		Species:      "dog",
		Breed:        "husky",
		BirthDate:    &birth,
		Region:       &region,
		Diagnosis:    "canine influenza",
		Symptoms:     "coughing, lethargy",
		Temperature:  &temp,
		VisitDate:    visit,
		FollowupDate: &followup,
	})

	if c.CaseID == "" {
		t.Error("expected a generated case ID")
	}
	if c.Category != disease.CategoryInfectious {
		t.Errorf("category = %q, want infectious", c.Category)
	}
	if !c.IsContagious {
		t.Error("influenza should be contagious")
	}
	if c.TransmissionMethod == nil || *c.TransmissionMethod != disease.TransmissionAirborne {
		t.Errorf("transmission = %v, want airborne", c.TransmissionMethod)
	}
	if c.TreatmentDays == nil || *c.TreatmentDays != 10 {
		t.Errorf("treatment days = %v, want 10", c.TreatmentDays)
	}
	if c.AgeAtDiagnosis == nil {
		t.Error("expected an age at diagnosis")
	}
	if !c.DiagnosisDate.Equal(visit) {
		t.Errorf("diagnosis date = %v, want %v", c.DiagnosisDate, visit)
	}
}

func TestRunSkipsDuplicates(t *testing.T) {
	database, err := db.NewDB(":memory:")
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	defer database.Close()

	visit := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	records := []db.MedicalRecord{
		{RecordID: "rec-1", PetID: "pet-1", Species: "dog", Diagnosis: "parvovirus", Symptoms: "vomiting", VisitDate: visit},
		{RecordID: "rec-2", PetID: "pet-2", Species: "cat", Diagnosis: "ringworm", VisitDate: visit},
		{RecordID: "rec-3", PetID: "pet-3", Species: "dog", Diagnosis: "N/A", VisitDate: visit},
	}
	for _, r := range records {
		if err := database.InsertMedicalRecord(r); err != nil {
			t.Fatalf("InsertMedicalRecord: %v", err)
		}
	}

	result, err := Run(database)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Migrated != 2 || result.Skipped != 1 {
		t.Errorf("result = %+v, want 2 migrated, 1 skipped", result)
	}

	// A second run finds every record already represented.
	result, err = Run(database)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Migrated != 0 || result.Skipped != 3 {
		t.Errorf("second run = %+v, want 0 migrated, 3 skipped", result)
	}

	n, err := database.CountDiseaseCases()
	if err != nil {
		t.Fatalf("CountDiseaseCases: %v", err)
	}
	if n != 2 {
		t.Errorf("case count = %d, want 2", n)
	}
}
