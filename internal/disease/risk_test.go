package disease

import (
	"strings"
	"testing"
	"time"
)

var riskNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

// riskCase builds a minimal case diagnosed daysAgo days before riskNow.
func riskCase(name string, daysAgo int, mutate ...func(*Case)) Case {
	c := Case{
		Species:       "dog",
		DiseaseName:   name,
		Category:      CategoryInfectious,
		Severity:      SeverityMild,
		DiagnosisDate: riskNow.AddDate(0, 0, -daysAgo),
	}
	for _, m := range mutate {
		m(&c)
	}
	return c
}

func contagious(c *Case) { c.IsContagious = true }

func severe(c *Case) { c.Severity = SeveritySevere }

func inRegion(r string) func(*Case) {
	return func(c *Case) { c.Region = &r }
}

func TestRiskEmptyDataset(t *testing.T) {
	a := AssessOutbreakRisk(nil, RiskFilter{}, 30, riskNow, nil)
	if a.RiskLevel != RiskUnknown {
		t.Errorf("level = %q, want unknown", a.RiskLevel)
	}
	if a.Reason != "No disease data available" {
		t.Errorf("reason = %q", a.Reason)
	}
	if a.Confidence != ConfidenceVeryLow {
		t.Errorf("confidence = %q, want very_low", a.Confidence)
	}
}

func TestRiskEmptyWindowIsLowNotUnknown(t *testing.T) {
	// Data exists but none of it falls in the window.
	cases := []Case{riskCase("old disease", 400)}
	a := AssessOutbreakRisk(cases, RiskFilter{}, 30, riskNow, nil)
	if a.RiskLevel != RiskLow {
		t.Errorf("level = %q, want low", a.RiskLevel)
	}
	if a.RiskScore != 0 || a.CaseCount != 0 {
		t.Errorf("score = %d, cases = %d, want 0 and 0", a.RiskScore, a.CaseCount)
	}
	if a.Recommendation == "" {
		t.Error("low tier should still carry a recommendation")
	}
}

func TestRiskVolumeFactor(t *testing.T) {
	tests := []struct {
		n         int
		wantScore int
	}{
		{1, 0},
		{2, 0},
		{3, 1},
		{5, 2},
		{9, 2},
		{10, 3},
	}
	for _, tt := range tests {
		var cases []Case
		for i := 0; i < tt.n; i++ {
			// Distinct names and dates keep the other factors quiet.
			cases = append(cases, riskCase("disease-"+string(rune('a'+i)), i%3+20))
		}
		a := AssessOutbreakRisk(cases, RiskFilter{}, 30, riskNow, nil)
		if a.RiskScore != tt.wantScore {
			t.Errorf("n=%d: score = %d, want %d", tt.n, a.RiskScore, tt.wantScore)
		}
	}
}

func TestRiskContagionFactor(t *testing.T) {
	// Two contagious cases contribute floor(2*1.5) = 3 points.
	cases := []Case{
		riskCase("a", 5, contagious),
		riskCase("b", 6, contagious),
	}
	a := AssessOutbreakRisk(cases, RiskFilter{}, 30, riskNow, nil)
	if a.RiskScore != 3 {
		t.Errorf("score = %d, want 3", a.RiskScore)
	}
	if a.ContagiousCases != 2 {
		t.Errorf("contagious = %d, want 2", a.ContagiousCases)
	}
	found := false
	for _, r := range a.Reasons {
		if r == "2 contagious cases" {
			found = true
		}
	}
	if !found {
		t.Errorf("missing contagion reason in %v", a.Reasons)
	}
}

func TestRiskSeverityFactor(t *testing.T) {
	// One severe case is a single point; three hit the alert threshold.
	one := []Case{riskCase("a", 5, severe)}
	a := AssessOutbreakRisk(one, RiskFilter{}, 30, riskNow, nil)
	if a.RiskScore != 1 {
		t.Errorf("one severe: score = %d, want 1", a.RiskScore)
	}

	three := []Case{
		riskCase("a", 5, severe),
		riskCase("b", 6, severe),
		riskCase("c", 7, severe),
	}
	a = AssessOutbreakRisk(three, RiskFilter{}, 30, riskNow, nil)
	// Volume +1 and severity +2.
	if a.RiskScore != 3 {
		t.Errorf("three severe: score = %d, want 3", a.RiskScore)
	}
}

func TestRiskRepetitionFactor(t *testing.T) {
	cases := []Case{
		riskCase("parvovirus", 3),
		riskCase("parvovirus", 8),
		riskCase("parvovirus", 21),
	}
	a := AssessOutbreakRisk(cases, RiskFilter{}, 30, riskNow, nil)
	// Volume +1 and repetition +2.
	if a.RiskScore != 3 {
		t.Errorf("score = %d, want 3", a.RiskScore)
	}
	found := false
	for _, r := range a.Reasons {
		if strings.HasPrefix(r, "Repeated occurrences: ") {
			found = true
			if strings.Count(r, ",") > 1 {
				t.Errorf("reason should name at most two diseases: %q", r)
			}
		}
	}
	if !found {
		t.Errorf("missing repetition reason in %v", a.Reasons)
	}
}

func TestRiskTrendFactorStrictBoundary(t *testing.T) {
	// First half: 2 cases, second half: 4. Exactly 2*1.5 = 3 would not
	// count; 4 > 3 does.
	cases := []Case{
		riskCase("a", 25), riskCase("b", 20),
		riskCase("c", 10), riskCase("d", 8), riskCase("e", 5), riskCase("f", 2),
	}
	a := AssessOutbreakRisk(cases, RiskFilter{}, 30, riskNow, nil)
	found := false
	for _, r := range a.Reasons {
		if r == "Increasing trend detected" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected trend reason, got %v", a.Reasons)
	}

	// 3 vs 3 is flat and does not trigger.
	flat := []Case{
		riskCase("a", 25), riskCase("b", 22), riskCase("c", 20),
		riskCase("d", 10), riskCase("e", 8), riskCase("f", 2),
	}
	a = AssessOutbreakRisk(flat, RiskFilter{}, 30, riskNow, nil)
	for _, r := range a.Reasons {
		if r == "Increasing trend detected" {
			t.Errorf("flat distribution should not report a trend: %v", a.Reasons)
		}
	}

	// 4 vs 6 sits exactly at the 1.5 ratio; the comparison is strict,
	// so it must not trigger either.
	exact := []Case{
		riskCase("a", 25), riskCase("b", 22), riskCase("c", 20), riskCase("d", 18),
		riskCase("e", 12), riskCase("f", 10), riskCase("g", 8),
		riskCase("h", 6), riskCase("i", 4), riskCase("j", 2),
	}
	a = AssessOutbreakRisk(exact, RiskFilter{}, 30, riskNow, nil)
	for _, r := range a.Reasons {
		if r == "Increasing trend detected" {
			t.Errorf("exactly 1.5x should not report a trend: %v", a.Reasons)
		}
	}
}

func TestRiskCriticalTier(t *testing.T) {
	// Ten contagious severe cases of one disease in a rising pattern
	// push the score far past the critical cutoff.
	var cases []Case
	for i := 0; i < 10; i++ {
		cases = append(cases, riskCase("parvovirus", 14-i, contagious, severe))
	}
	a := AssessOutbreakRisk(cases, RiskFilter{}, 30, riskNow, nil)
	if a.RiskLevel != RiskCritical {
		t.Errorf("level = %q (score %d), want critical", a.RiskLevel, a.RiskScore)
	}
	if !strings.HasPrefix(a.Recommendation, "IMMEDIATE ACTION REQUIRED") {
		t.Errorf("recommendation = %q", a.Recommendation)
	}
}

func TestRiskFilters(t *testing.T) {
	cases := []Case{
		riskCase("a", 5, inRegion("north")),
		riskCase("b", 6, inRegion("north")),
		riskCase("c", 7, inRegion("south")),
	}
	cases[2].Species = "cat"

	a := AssessOutbreakRisk(cases, RiskFilter{Region: "north"}, 30, riskNow, nil)
	if a.CaseCount != 2 {
		t.Errorf("north filter matched %d cases, want 2", a.CaseCount)
	}
	a = AssessOutbreakRisk(cases, RiskFilter{Species: "cat"}, 30, riskNow, nil)
	if a.CaseCount != 1 {
		t.Errorf("cat filter matched %d cases, want 1", a.CaseCount)
	}
	a = AssessOutbreakRisk(cases, RiskFilter{Species: "ferret"}, 30, riskNow, nil)
	if a.CaseCount != 0 || a.RiskLevel != RiskLow {
		t.Errorf("unmatched filter: count=%d level=%q, want 0 and low", a.CaseCount, a.RiskLevel)
	}
}

func TestRiskDefaultLookback(t *testing.T) {
	cases := []Case{riskCase("a", 29), riskCase("b", 45)}
	a := AssessOutbreakRisk(cases, RiskFilter{}, 0, riskNow, nil)
	if a.DaysAnalyzed != 30 {
		t.Errorf("days analyzed = %d, want default 30", a.DaysAnalyzed)
	}
	if a.CaseCount != 1 {
		t.Errorf("case count = %d, want 1 inside the default window", a.CaseCount)
	}
}

func TestRiskConfidenceUsesFullDataset(t *testing.T) {
	// 40 cases total but only one in the window; confidence still
	// reflects the full dataset.
	var cases []Case
	for i := 0; i < 39; i++ {
		cases = append(cases, riskCase("old", 200+i))
	}
	cases = append(cases, riskCase("new", 5))
	a := AssessOutbreakRisk(cases, RiskFilter{}, 30, riskNow, nil)
	if a.Confidence != ConfidenceLow {
		t.Errorf("confidence = %q, want low for 40 total cases", a.Confidence)
	}
}
