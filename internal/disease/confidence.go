package disease

// Dataset-size thresholds gating model reliability. Below the basic
// threshold predictions are flagged unreliable but never blocked.
const (
	MinRecordsBasic    = 30
	MinRecordsModerate = 100
	MinRecordsAdvanced = 200
)

// Confidence tier levels, least reliable first.
const (
	ConfidenceVeryLow = "very_low"
	ConfidenceLow     = "low"
	ConfidenceMedium  = "medium"
	ConfidenceHigh    = "high"
)

// Confidence qualifies a consumer-facing output with a reliability
// tier derived from dataset size. It annotates, never blocks.
type Confidence struct {
	Level          string `json:"level"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
	AccuracyRange  string `json:"accuracy_range,omitempty"`
	CasesNeeded    int    `json:"cases_needed,omitempty"`
}

// ModelConfidence maps a case count to its confidence tier. It is a
// pure step function of n, monotonic across the 30/100/200 thresholds.
func ModelConfidence(n int) Confidence {
	switch {
	case n < MinRecordsBasic:
		return Confidence{
			Level:          ConfidenceVeryLow,
			Description:    "Insufficient data - predictions unreliable",
			Recommendation: "Collect more disease case data",
			CasesNeeded:    MinRecordsBasic - n,
		}
	case n < MinRecordsModerate:
		return Confidence{
			Level:          ConfidenceLow,
			Description:    "Limited data - basic predictions only",
			Recommendation: "Continue collecting data for better accuracy",
			AccuracyRange:  "60-75%",
		}
	case n < MinRecordsAdvanced:
		return Confidence{
			Level:          ConfidenceMedium,
			Description:    "Moderate data - fair prediction accuracy",
			Recommendation: "Good for general trends and patterns",
			AccuracyRange:  "75-85%",
		}
	default:
		return Confidence{
			Level:          ConfidenceHigh,
			Description:    "Good data - reliable predictions",
			Recommendation: "Suitable for advanced ML models",
			AccuracyRange:  "85-95%",
		}
	}
}
