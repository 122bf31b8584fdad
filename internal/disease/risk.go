package disease

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vetcare-data/outbreak.report/internal/config"
)

// Risk tiers, lowest first. RiskUnknown is reserved for an empty
// dataset; a non-empty dataset with no signal in the window is
// RiskLow, never RiskUnknown.
const (
	RiskUnknown  = "unknown"
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// Risk tier cutoffs over the additive factor score.
const (
	riskScoreCritical = 10
	riskScoreHigh     = 7
	riskScoreMedium   = 4
)

var riskRecommendations = map[string]string{
	RiskCritical: "IMMEDIATE ACTION REQUIRED: Implement quarantine protocols, alert authorities, increase monitoring.",
	RiskHigh:     "HIGH ALERT: Increase preventive measures, monitor closely, prepare response protocols.",
	RiskMedium:   "MODERATE CONCERN: Monitor situation, review vaccination schedules, maintain hygiene protocols.",
	RiskLow:      "NORMAL STATUS: Continue routine preventive care and monitoring.",
}

// RiskFilter narrows a risk assessment to a species, category or
// region. Empty fields match everything.
type RiskFilter struct {
	Species  string `json:"species,omitempty"`
	Category string `json:"disease_category,omitempty"`
	Region   string `json:"region,omitempty"`
}

func (f RiskFilter) matches(c Case) bool {
	if f.Species != "" && c.Species != f.Species {
		return false
	}
	if f.Category != "" && c.Category != f.Category {
		return false
	}
	if f.Region != "" && (c.Region == nil || *c.Region != f.Region) {
		return false
	}
	return true
}

// RiskAssessment is the result of one outbreak risk query. Produced
// fresh per query, never stored.
type RiskAssessment struct {
	RiskLevel       string     `json:"risk_level"`
	RiskScore       int        `json:"risk_score"`
	CaseCount       int        `json:"case_count"`
	ContagiousCases int        `json:"contagious_cases"`
	DaysAnalyzed    int        `json:"days_analyzed"`
	Reasons         []string   `json:"reasons"`
	Confidence      string     `json:"confidence"`
	Filters         RiskFilter `json:"filters"`
	Recommendation  string     `json:"recommendation"`

	// Reason explains a RiskUnknown result.
	Reason string `json:"reason,omitempty"`
}

// AssessOutbreakRisk scores outbreak risk over cases diagnosed within
// the trailing lookback window ending at now. The score is an
// additive total of five independent factors: case volume, contagious
// cases, severity, repeated disease names, and an increasing temporal
// trend. The confidence qualifier reflects the full dataset size, not
// the filtered window.
func AssessOutbreakRisk(cases []Case, filter RiskFilter, lookbackDays int, now time.Time, tuning *config.RiskTuning) RiskAssessment {
	if lookbackDays <= 0 {
		lookbackDays = tuning.GetDefaultLookbackDays()
	}

	if len(cases) == 0 {
		return RiskAssessment{
			RiskLevel:  RiskUnknown,
			Reason:     "No disease data available",
			Confidence: ConfidenceVeryLow,
			Filters:    filter,
		}
	}

	cutoff := now.AddDate(0, 0, -lookbackDays)
	var recent []Case
	for _, c := range cases {
		if c.DiagnosisDate.Before(cutoff) {
			continue
		}
		if filter.matches(c) {
			recent = append(recent, c)
		}
	}

	score := 0
	var reasons []string

	// Factor 1: case volume.
	caseCount := len(recent)
	switch {
	case caseCount >= tuning.GetVolumeHigh():
		score += 3
		reasons = append(reasons, fmt.Sprintf("%d cases in %d days", caseCount, lookbackDays))
	case caseCount >= tuning.GetVolumeModerate():
		score += 2
		reasons = append(reasons, fmt.Sprintf("%d cases in %d days", caseCount, lookbackDays))
	case caseCount >= tuning.GetVolumeLow():
		score++
		reasons = append(reasons, fmt.Sprintf("%d cases detected", caseCount))
	}

	// Factor 2: contagious cases.
	contagiousCount := 0
	for _, c := range recent {
		if c.IsContagious {
			contagiousCount++
		}
	}
	if contagiousCount > 0 {
		score += int(float64(contagiousCount) * tuning.GetContagiousMultiplier())
		reasons = append(reasons, fmt.Sprintf("%d contagious cases", contagiousCount))
	}

	// Factor 3: severity.
	severeCount := 0
	for _, c := range recent {
		if c.Severity == SeveritySevere || c.Severity == SeverityCritical {
			severeCount++
		}
	}
	if severeCount >= tuning.GetSevereCaseAlert() {
		score += 2
		reasons = append(reasons, fmt.Sprintf("%d severe/critical cases", severeCount))
	} else if severeCount > 0 {
		score++
	}

	// Factor 4: the same disease recurring within the window.
	if repeated := repeatedDiseases(recent, tuning.GetRepeatThreshold()); len(repeated) > 0 {
		score += 2
		if len(repeated) > 2 {
			repeated = repeated[:2]
		}
		reasons = append(reasons, fmt.Sprintf("Repeated occurrences: %s", strings.Join(repeated, ", ")))
	}

	// Factor 5: increasing trend across the window halves. The ratio
	// must strictly exceed the threshold; exactly at it does not count.
	if caseCount >= tuning.GetTrendMinCases() {
		halfway := now.AddDate(0, 0, -lookbackDays/2)
		firstHalf, secondHalf := 0, 0
		for _, c := range recent {
			if c.DiagnosisDate.Before(halfway) {
				firstHalf++
			} else {
				secondHalf++
			}
		}
		if float64(secondHalf) > float64(firstHalf)*tuning.GetTrendRatio() {
			score += 2
			reasons = append(reasons, "Increasing trend detected")
		}
	}

	level := RiskLow
	switch {
	case score >= riskScoreCritical:
		level = RiskCritical
	case score >= riskScoreHigh:
		level = RiskHigh
	case score >= riskScoreMedium:
		level = RiskMedium
	}

	return RiskAssessment{
		RiskLevel:       level,
		RiskScore:       score,
		CaseCount:       caseCount,
		ContagiousCases: contagiousCount,
		DaysAnalyzed:    lookbackDays,
		Reasons:         reasons,
		Confidence:      ModelConfidence(len(cases)).Level,
		Filters:         filter,
		Recommendation:  riskRecommendations[level],
	}
}

// repeatedDiseases returns the disease names occurring at least
// threshold times, most frequent first and ties alphabetical.
func repeatedDiseases(cases []Case, threshold int) []string {
	counts := map[string]int{}
	for _, c := range cases {
		counts[c.DiseaseName]++
	}
	var names []string
	for name, n := range counts {
		if n >= threshold {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
