package disease

import (
	"fmt"
	"sort"
)

// Result status values for inference operations. Callers branch on
// these, not on errors: an untrained model is an expected state.
const (
	StatusModelNotTrained = "model_not_trained"
	StatusUnavailable     = "unavailable"
)

// Prediction is the classifier's answer for one case.
type Prediction struct {
	PredictedCategory string             `json:"predicted_category"`
	Confidence        float64            `json:"confidence"`
	ConfidenceLevel   string             `json:"confidence_level"`
	Probabilities     map[string]float64 `json:"all_probabilities"`
}

// PredictionResponse bundles predictions with the model confidence
// qualifier.
type PredictionResponse struct {
	Status          string       `json:"status"`
	Message         string       `json:"message,omitempty"`
	Predictions     []Prediction `json:"predictions,omitempty"`
	ModelConfidence Confidence   `json:"model_confidence"`
}

// Predict classifies the disease category of each input case against
// the currently loaded bundle. Invalid input fails fast with
// ErrInvalidInput; an untrained classifier reports the
// model_not_trained status instead of an error.
func (m *Model) Predict(cases []Case) (PredictionResponse, error) {
	bundle := m.Bundle()
	if bundle == nil || !bundle.Classifier.Trained() {
		return PredictionResponse{
			Status:          StatusModelNotTrained,
			Message:         "Classification model not trained yet",
			ModelConfidence: m.Confidence(),
		}, nil
	}
	if len(cases) == 0 {
		return PredictionResponse{}, fmt.Errorf("%w: no cases provided", ErrInvalidInput)
	}
	for i := range cases {
		if err := cases[i].ValidateForPrediction(); err != nil {
			return PredictionResponse{}, fmt.Errorf("case %d: %w", i, err)
		}
	}

	X := bundle.Encoder.Transform(cases)
	Xs := bundle.Scaler.Transform(X)

	predictions := make([]Prediction, len(cases))
	for i, row := range Xs {
		probs := bundle.Classifier.PredictProba(row)
		best := 0
		for j, p := range probs {
			if p > probs[best] {
				best = j
			}
		}
		byCategory := make(map[string]float64, len(probs))
		for j, p := range probs {
			byCategory[bundle.Encoder.Category.Decode(bundle.Classifier.Classes[j])] = p
		}
		confidence := probs[best]
		predictions[i] = Prediction{
			PredictedCategory: bundle.Encoder.Category.Decode(bundle.Classifier.Classes[best]),
			Confidence:        confidence,
			ConfidenceLevel:   predictionConfidenceLevel(confidence),
			Probabilities:     byCategory,
		}
	}

	return PredictionResponse{
		Status:          StatusSuccess,
		Predictions:     predictions,
		ModelConfidence: bundle.Confidence,
	}, nil
}

func predictionConfidenceLevel(p float64) string {
	switch {
	case p > 0.7:
		return "high"
	case p > 0.5:
		return "medium"
	default:
		return "low"
	}
}

// Pattern describes one cluster over the current case set.
type Pattern struct {
	PatternID            int            `json:"pattern_id"`
	CaseCount            int            `json:"case_count"`
	PrimarySpecies       string         `json:"primary_species"`
	CommonCategory       string         `json:"common_category"`
	AvgAge               *float64       `json:"avg_age,omitempty"`
	ContagiousPercentage float64        `json:"contagious_percentage"`
	CommonDiseases       map[string]int `json:"common_diseases"`
	AffectedSpecies      map[string]int `json:"affected_species"`
}

// PatternResponse is the result of a pattern analysis run.
type PatternResponse struct {
	Status        string     `json:"status"`
	Reason        string     `json:"reason,omitempty"`
	PatternsFound int        `json:"patterns_found,omitempty"`
	Patterns      []Pattern  `json:"patterns,omitempty"`
	Confidence    Confidence `json:"confidence"`
}

// AnalyzePatterns assigns the current case set to the trained
// clusters and summarises each one. The bundle's training-time scaler
// is reused for the assignment. Reports the unavailable status when
// no clusterer has been trained.
func (m *Model) AnalyzePatterns() (PatternResponse, error) {
	bundle := m.Bundle()
	if bundle == nil || !bundle.Clusterer.Trained() {
		return PatternResponse{
			Status:     StatusUnavailable,
			Reason:     "Clustering model not trained",
			Confidence: m.Confidence(),
		}, nil
	}

	cases, err := m.source.DiseaseCases()
	if err != nil {
		return PatternResponse{}, fmt.Errorf("loading disease cases: %w", err)
	}
	if len(cases) == 0 {
		return PatternResponse{
			Status:     StatusUnavailable,
			Reason:     "No disease data available",
			Confidence: bundle.Confidence,
		}, nil
	}

	X := bundle.Encoder.Transform(cases)
	Xs := bundle.Scaler.Transform(X)
	labels := bundle.Clusterer.Predict(Xs)

	patterns := make([]Pattern, 0, bundle.Clusterer.K)
	for cluster := 0; cluster < bundle.Clusterer.K; cluster++ {
		var members []Case
		for i, c := range cases {
			if labels[i] == cluster {
				members = append(members, c)
			}
		}
		if len(members) == 0 {
			continue
		}

		species := map[string]int{}
		categories := map[string]int{}
		diseases := map[string]int{}
		contagious := 0
		ageSum := 0.0
		ageCount := 0
		for _, c := range members {
			species[c.Species]++
			categories[c.Category]++
			diseases[c.DiseaseName]++
			if c.IsContagious {
				contagious++
			}
			if c.AgeAtDiagnosis != nil {
				ageSum += *c.AgeAtDiagnosis
				ageCount++
			}
		}

		pattern := Pattern{
			PatternID:            cluster,
			CaseCount:            len(members),
			PrimarySpecies:       dominantValue(species),
			CommonCategory:       dominantValue(categories),
			ContagiousPercentage: float64(contagious) / float64(len(members)) * 100,
			CommonDiseases:       topCounts(diseases, 3),
			AffectedSpecies:      species,
		}
		if ageCount > 0 {
			avg := ageSum / float64(ageCount)
			pattern.AvgAge = &avg
		}
		patterns = append(patterns, pattern)
	}

	return PatternResponse{
		Status:        StatusSuccess,
		PatternsFound: len(patterns),
		Patterns:      patterns,
		Confidence:    bundle.Confidence,
	}, nil
}

// AssessOutbreakRisk runs the risk scorer over a freshly loaded case
// set with the model's clock and tuning.
func (m *Model) AssessOutbreakRisk(filter RiskFilter, lookbackDays int) (RiskAssessment, error) {
	cases, err := m.source.DiseaseCases()
	if err != nil {
		return RiskAssessment{}, fmt.Errorf("loading disease cases: %w", err)
	}
	return AssessOutbreakRisk(cases, filter, lookbackDays, m.clock.Now(), m.tuning), nil
}

// SpeciesTrends reports trends over a freshly loaded case set.
func (m *Model) SpeciesTrends(species string) (TrendsResult, error) {
	cases, err := m.source.DiseaseCases()
	if err != nil {
		return TrendsResult{}, fmt.Errorf("loading disease cases: %w", err)
	}
	return SpeciesTrends(cases, species), nil
}

// GeographicDistribution reports the regional distribution over a
// freshly loaded case set.
func (m *Model) GeographicDistribution() (DistributionResult, error) {
	cases, err := m.source.DiseaseCases()
	if err != nil {
		return DistributionResult{}, fmt.Errorf("loading disease cases: %w", err)
	}
	return GeographicDistribution(cases), nil
}

// Confidence returns the confidence tier of the loaded bundle, or the
// very_low tier when nothing is trained.
func (m *Model) Confidence() Confidence {
	if bundle := m.Bundle(); bundle != nil {
		return bundle.Confidence
	}
	return ModelConfidence(0)
}

// Status describes the loaded model for the API status surface.
type Status struct {
	ModelName       string   `json:"model_name"`
	Trained         bool     `json:"trained"`
	TrainedAt       string   `json:"trained_at,omitempty"`
	DataSize        int      `json:"data_size,omitempty"`
	ModelsTrained   []string `json:"models_trained,omitempty"`
	ConfidenceLevel string   `json:"confidence_level"`
}

// Status reports whether a bundle is loaded and what it contains.
func (m *Model) Status() Status {
	bundle := m.Bundle()
	status := Status{
		ModelName:       m.name,
		ConfidenceLevel: m.Confidence().Level,
	}
	if bundle == nil {
		return status
	}
	status.Trained = true
	status.TrainedAt = bundle.TrainedAt.Format("2006-01-02T15:04:05Z07:00")
	status.DataSize = bundle.DataSize
	if bundle.Classifier.Trained() {
		status.ModelsTrained = append(status.ModelsTrained, "classification")
	}
	if bundle.Clusterer.Trained() {
		status.ModelsTrained = append(status.ModelsTrained, "clustering")
	}
	sort.Strings(status.ModelsTrained)
	return status
}
