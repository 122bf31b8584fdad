package disease

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func trendCase(species, name string, diagnosed time.Time, mutate ...func(*Case)) Case {
	c := Case{
		Species:       species,
		DiseaseName:   name,
		Category:      CategoryInfectious,
		Severity:      SeverityMild,
		DiagnosisDate: diagnosed,
	}
	for _, m := range mutate {
		m(&c)
	}
	return c
}

func TestSpeciesTrendsNoData(t *testing.T) {
	result := SpeciesTrends(nil, "dog")
	if result.Status != StatusNoData {
		t.Errorf("status = %q, want no_data", result.Status)
	}
	if result.Species != "dog" {
		t.Errorf("species = %q, want dog", result.Species)
	}

	// Cases exist but none match the species.
	cases := []Case{trendCase("cat", "ringworm", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))}
	result = SpeciesTrends(cases, "dog")
	if result.Status != StatusNoData {
		t.Errorf("status = %q, want no_data for unmatched species", result.Status)
	}
}

func TestSpeciesTrendsMonthlyBuckets(t *testing.T) {
	cases := []Case{
		trendCase("dog", "parvovirus", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)),
		trendCase("dog", "parvovirus", time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)),
		trendCase("dog", "kennel cough", time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)),
		trendCase("cat", "ringworm", time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)),
	}
	result := SpeciesTrends(cases, "dog")

	if result.Status != StatusSuccess {
		t.Fatalf("status = %q, want success", result.Status)
	}
	if result.TotalCases != 3 {
		t.Errorf("total = %d, want 3 (cat excluded)", result.TotalCases)
	}
	wantMonthly := map[string]int{"2026-01": 2, "2026-02": 1}
	if diff := cmp.Diff(wantMonthly, result.MonthlyTrends); diff != "" {
		t.Errorf("monthly trends mismatch (-want +got):\n%s", diff)
	}
}

func TestSpeciesTrendsAllSpecies(t *testing.T) {
	age1, age2 := 12.0, 36.0
	cases := []Case{
		trendCase("dog", "parvovirus", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), func(c *Case) {
			c.IsContagious = true
			c.AgeAtDiagnosis = &age1
		}),
		trendCase("cat", "diabetes", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), func(c *Case) {
			c.Category = CategoryMetabolic
			c.AgeAtDiagnosis = &age2
		}),
	}
	result := SpeciesTrends(cases, "")

	if result.Species != "all" {
		t.Errorf("species label = %q, want all", result.Species)
	}
	if result.ContagiousPercentage != 50 {
		t.Errorf("contagious = %v%%, want 50", result.ContagiousPercentage)
	}
	if result.AvgAgeAtDiagnosis == nil || *result.AvgAgeAtDiagnosis != 24 {
		t.Errorf("avg age = %v, want 24", result.AvgAgeAtDiagnosis)
	}
	wantDist := map[string]int{CategoryInfectious: 1, CategoryMetabolic: 1}
	if diff := cmp.Diff(wantDist, result.DiseaseDistribution); diff != "" {
		t.Errorf("category distribution mismatch (-want +got):\n%s", diff)
	}
}

func TestSpeciesTrendsTopDiseasesCapped(t *testing.T) {
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	var cases []Case
	names := []string{"a", "b", "c", "d", "e", "f", "g"}
	for i, name := range names {
		for j := 0; j <= i; j++ {
			cases = append(cases, trendCase("dog", name, base.AddDate(0, 0, j)))
		}
	}
	result := SpeciesTrends(cases, "dog")

	if len(result.MostCommonDiseases) != 5 {
		t.Fatalf("top diseases = %d entries, want 5", len(result.MostCommonDiseases))
	}
	// The two rarest names fall off.
	for _, rare := range []string{"a", "b"} {
		if _, ok := result.MostCommonDiseases[rare]; ok {
			t.Errorf("%q should not be in the top five", rare)
		}
	}
	if result.MostCommonDiseases["g"] != 7 {
		t.Errorf("count for g = %d, want 7", result.MostCommonDiseases["g"])
	}
}

func TestGeographicDistribution(t *testing.T) {
	north, south := "north", "south"
	cases := []Case{
		trendCase("dog", "parvovirus", time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), inRegion(north), contagious),
		trendCase("dog", "parvovirus", time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC), inRegion(north)),
		trendCase("cat", "ringworm", time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC), inRegion(south)),
		trendCase("cat", "ringworm", time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)),
	}
	result := GeographicDistribution(cases)

	if result.Status != StatusSuccess {
		t.Fatalf("status = %q, want success", result.Status)
	}
	if result.TotalRegions != 2 {
		t.Errorf("regions = %d, want 2 (regionless case skipped)", result.TotalRegions)
	}
	if result.Hotspot != "north" {
		t.Errorf("hotspot = %q, want north", result.Hotspot)
	}
	ns := result.Regions["north"]
	if ns.TotalCases != 2 || ns.ContagiousCases != 1 {
		t.Errorf("north stats = %+v", ns)
	}
	if ns.Species["dog"] != 2 {
		t.Errorf("north dog count = %d, want 2", ns.Species["dog"])
	}
}

func TestGeographicDistributionHotspotTie(t *testing.T) {
	a, b := "bayside", "ashford"
	cases := []Case{
		trendCase("dog", "x", time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), inRegion(a)),
		trendCase("dog", "y", time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC), inRegion(b)),
	}
	result := GeographicDistribution(cases)
	if result.Hotspot != "ashford" {
		t.Errorf("hotspot = %q, want the alphabetically smallest on a tie", result.Hotspot)
	}
}

func TestGeographicDistributionNoRegions(t *testing.T) {
	empty := ""
	cases := []Case{
		trendCase("dog", "x", time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)),
		trendCase("dog", "y", time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC), inRegion(empty)),
	}
	result := GeographicDistribution(cases)
	if result.Status != StatusNoGeographicData {
		t.Errorf("status = %q, want no_geographic_data", result.Status)
	}
	if result.Hotspot != "" || result.TotalRegions != 0 {
		t.Errorf("unexpected fields in no-data result: %+v", result)
	}
}

func TestTopCounts(t *testing.T) {
	counts := map[string]int{"a": 3, "b": 5, "c": 3, "d": 1}
	got := topCounts(counts, 2)
	want := map[string]int{"b": 5, "a": 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("topCounts mismatch (-want +got):\n%s", diff)
	}
}
