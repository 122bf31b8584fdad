package disease

import "sort"

// Reporter status values. Reporters return a status, not an error,
// when there is nothing to report.
const (
	StatusSuccess          = "success"
	StatusNoData           = "no_data"
	StatusNoGeographicData = "no_geographic_data"
)

// TrendsResult summarises disease activity for one species (or all).
type TrendsResult struct {
	Status               string         `json:"status"`
	Species              string         `json:"species"`
	TotalCases           int            `json:"total_cases"`
	DiseaseDistribution  map[string]int `json:"disease_distribution"`
	MostCommonDiseases   map[string]int `json:"most_common_diseases"`
	ContagiousPercentage float64        `json:"contagious_percentage"`
	AvgAgeAtDiagnosis    *float64       `json:"avg_age_at_diagnosis,omitempty"`
	SeverityDistribution map[string]int `json:"severity_distribution"`
	MonthlyTrends        map[string]int `json:"monthly_trends"`
}

// SpeciesTrends reports disease trends for the given species, or for
// the whole case set when species is empty. The monthly timeline is
// bucketed by calendar month with "YYYY-MM" keys.
func SpeciesTrends(cases []Case, species string) TrendsResult {
	var filtered []Case
	for _, c := range cases {
		if species == "" || c.Species == species {
			filtered = append(filtered, c)
		}
	}

	label := species
	if label == "" {
		label = "all"
	}
	if len(filtered) == 0 {
		return TrendsResult{Status: StatusNoData, Species: label}
	}

	categories := map[string]int{}
	diseases := map[string]int{}
	severities := map[string]int{}
	monthly := map[string]int{}
	contagious := 0
	ageSum := 0.0
	ageCount := 0
	for _, c := range filtered {
		categories[c.Category]++
		diseases[c.DiseaseName]++
		severities[c.Severity]++
		monthly[c.DiagnosisDate.Format("2006-01")]++
		if c.IsContagious {
			contagious++
		}
		if c.AgeAtDiagnosis != nil {
			ageSum += *c.AgeAtDiagnosis
			ageCount++
		}
	}

	result := TrendsResult{
		Status:               StatusSuccess,
		Species:              label,
		TotalCases:           len(filtered),
		DiseaseDistribution:  categories,
		MostCommonDiseases:   topCounts(diseases, 5),
		ContagiousPercentage: float64(contagious) / float64(len(filtered)) * 100,
		SeverityDistribution: severities,
		MonthlyTrends:        monthly,
	}
	if ageCount > 0 {
		avg := ageSum / float64(ageCount)
		result.AvgAgeAtDiagnosis = &avg
	}
	return result
}

// RegionStats aggregates the cases seen in one region.
type RegionStats struct {
	TotalCases      int            `json:"total_cases"`
	Categories      map[string]int `json:"categories"`
	ContagiousCases int            `json:"contagious_cases"`
	Species         map[string]int `json:"species"`
}

// DistributionResult is the geographic disease distribution across
// regions. Hotspot is the region with the most cases; ties resolve to
// the lexicographically smallest region name.
type DistributionResult struct {
	Status       string                 `json:"status"`
	Regions      map[string]RegionStats `json:"regions,omitempty"`
	TotalRegions int                    `json:"total_regions,omitempty"`
	Hotspot      string                 `json:"hotspot,omitempty"`
}

// GeographicDistribution groups cases by region, skipping cases that
// carry no region. A case set with no regional data reports the
// no_geographic_data status.
func GeographicDistribution(cases []Case) DistributionResult {
	regions := map[string]RegionStats{}
	for _, c := range cases {
		if c.Region == nil || *c.Region == "" {
			continue
		}
		stats, ok := regions[*c.Region]
		if !ok {
			stats = RegionStats{
				Categories: map[string]int{},
				Species:    map[string]int{},
			}
		}
		stats.TotalCases++
		stats.Categories[c.Category]++
		stats.Species[c.Species]++
		if c.IsContagious {
			stats.ContagiousCases++
		}
		regions[*c.Region] = stats
	}

	if len(regions) == 0 {
		return DistributionResult{Status: StatusNoGeographicData}
	}

	// Scan regions in sorted order; only a strictly greater count
	// displaces the hotspot, so ties go to the smallest name.
	names := make([]string, 0, len(regions))
	for name := range regions {
		names = append(names, name)
	}
	sort.Strings(names)
	hotspot := names[0]
	for _, name := range names[1:] {
		if regions[name].TotalCases > regions[hotspot].TotalCases {
			hotspot = name
		}
	}

	return DistributionResult{
		Status:       StatusSuccess,
		Regions:      regions,
		TotalRegions: len(regions),
		Hotspot:      hotspot,
	}
}

// topCounts returns the n highest-count entries of counts, ties
// resolved alphabetically.
func topCounts(counts map[string]int, n int) map[string]int {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	top := make(map[string]int, len(keys))
	for _, k := range keys {
		top[k] = counts[k]
	}
	return top
}
