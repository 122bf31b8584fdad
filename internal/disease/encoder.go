package disease

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// unknownLabel is the reserved class substituted for missing values at
// fit time and for unseen values at inference time. Reserving it up
// front keeps Transform total: no categorical value can fail to encode.
const unknownLabel = "unknown"

// FeatureNames is the fixed column order of the encoded matrix.
var FeatureNames = []string{
	"species",
	"disease_category",
	"severity",
	"breed",
	"age_at_diagnosis",
	"treatment_duration_days",
	"is_contagious",
}

// LabelEncoder maps categorical string values to integer codes. The
// class list is learned once at fit time, sorted for determinism, and
// immutable afterwards.
type LabelEncoder struct {
	Classes []string `json:"classes"`

	index map[string]int
}

// Fit learns the sorted distinct values plus the reserved unknown
// class. Empty strings are treated as unknown.
func (e *LabelEncoder) Fit(values []string) {
	seen := map[string]bool{unknownLabel: true}
	for _, v := range values {
		if v == "" {
			v = unknownLabel
		}
		seen[v] = true
	}
	e.Classes = make([]string, 0, len(seen))
	for v := range seen {
		e.Classes = append(e.Classes, v)
	}
	sort.Strings(e.Classes)
	e.index = nil
}

func (e *LabelEncoder) ensureIndex() {
	if e.index != nil {
		return
	}
	e.index = make(map[string]int, len(e.Classes))
	for i, c := range e.Classes {
		e.index[c] = i
	}
}

// Encode returns the learned code for v. Missing or unseen values map
// deterministically to the unknown class.
func (e *LabelEncoder) Encode(v string) int {
	e.ensureIndex()
	if v == "" {
		v = unknownLabel
	}
	if i, ok := e.index[v]; ok {
		return i
	}
	return e.index[unknownLabel]
}

// Decode returns the class name for code i, or unknown when the code
// is out of range.
func (e *LabelEncoder) Decode(i int) string {
	if i < 0 || i >= len(e.Classes) {
		return unknownLabel
	}
	return e.Classes[i]
}

// NumClasses reports the size of the learned label space.
func (e *LabelEncoder) NumClasses() int { return len(e.Classes) }

// FeatureEncoder turns raw case records into the fixed-order numeric
// feature matrix. It owns one label mapping per categorical field,
// learned exactly once per training run and reused unchanged for
// every prediction against that bundle.
type FeatureEncoder struct {
	Species  LabelEncoder `json:"species"`
	Category LabelEncoder `json:"disease_category"`
	Severity LabelEncoder `json:"severity"`
	Breed    LabelEncoder `json:"breed"`
}

// Fit learns the label mapping for each categorical field from the
// training cases.
func (fe *FeatureEncoder) Fit(cases []Case) {
	species := make([]string, len(cases))
	categories := make([]string, len(cases))
	severities := make([]string, len(cases))
	breeds := make([]string, len(cases))
	for i, c := range cases {
		species[i] = c.Species
		categories[i] = c.Category
		severities[i] = c.Severity
		breeds[i] = c.Breed
	}
	fe.Species.Fit(species)
	fe.Category.Fit(categories)
	fe.Severity.Fit(severities)
	fe.Breed.Fit(breeds)
}

// Transform produces one encoded feature vector per case using the
// learned mappings. Missing numeric values impute to zero; booleans
// map to {0,1}.
func (fe *FeatureEncoder) Transform(cases []Case) [][]float64 {
	X := make([][]float64, len(cases))
	for i, c := range cases {
		row := make([]float64, len(FeatureNames))
		row[0] = float64(fe.Species.Encode(c.Species))
		row[1] = float64(fe.Category.Encode(c.Category))
		row[2] = float64(fe.Severity.Encode(c.Severity))
		row[3] = float64(fe.Breed.Encode(c.Breed))
		if c.AgeAtDiagnosis != nil {
			row[4] = *c.AgeAtDiagnosis
		}
		if c.TreatmentDays != nil {
			row[5] = *c.TreatmentDays
		}
		if c.IsContagious {
			row[6] = 1
		}
		X[i] = row
	}
	return X
}

// TargetVector returns the encoded disease_category label per case,
// the classification target.
func (fe *FeatureEncoder) TargetVector(cases []Case) []int {
	y := make([]int, len(cases))
	for i, c := range cases {
		y[i] = fe.Category.Encode(c.Category)
	}
	return y
}

// StandardScaler scales features to zero mean and unit variance. The
// statistics are learned at training time and persisted with the
// bundle so inference reproduces the training-time scaling exactly.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Fit learns per-column mean and population standard deviation.
// Zero-variance columns keep a unit divisor so they pass through
// centred but unscaled.
func (s *StandardScaler) Fit(X [][]float64) {
	if len(X) == 0 {
		s.Mean, s.Std = nil, nil
		return
	}
	cols := len(X[0])
	n := float64(len(X))
	s.Mean = make([]float64, cols)
	s.Std = make([]float64, cols)
	col := make([]float64, len(X))
	for j := 0; j < cols; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		mean, variance := stat.MeanVariance(col, nil)
		// MeanVariance is the unbiased sample variance; scale back to
		// the population variance the reference scaler uses.
		if len(X) > 1 {
			variance *= (n - 1) / n
		} else {
			variance = 0
		}
		s.Mean[j] = mean
		if variance > 0 {
			s.Std[j] = math.Sqrt(variance)
		} else {
			s.Std[j] = 1
		}
	}
}

// Transform applies the learned scaling to X without refitting.
func (s *StandardScaler) Transform(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		scaled := make([]float64, len(row))
		for j, v := range row {
			if j < len(s.Mean) {
				scaled[j] = (v - s.Mean[j]) / s.Std[j]
			} else {
				scaled[j] = v
			}
		}
		out[i] = scaled
	}
	return out
}

// FitTransform fits the scaler on X and returns the scaled matrix.
func (s *StandardScaler) FitTransform(X [][]float64) [][]float64 {
	s.Fit(X)
	return s.Transform(X)
}
