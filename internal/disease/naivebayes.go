package disease

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// varSmoothing is the fraction of the largest feature variance added
// to every class variance for numerical stability, matching the
// reference classifier's default.
const varSmoothing = 1e-9

// GaussianNB is a Gaussian Naive Bayes classifier. It suits the small
// sample sizes this pipeline operates at: per-class feature means and
// variances are cheap to estimate from a few dozen records, and
// prediction is a closed-form log-likelihood sum with no iteration.
type GaussianNB struct {
	// Classes holds the encoded target labels in ascending order.
	Classes []int `json:"classes"`
	// Priors holds per-class prior probabilities aligned with Classes.
	Priors []float64 `json:"priors"`
	// Means and Variances hold per-class per-feature Gaussian
	// parameters, aligned with Classes.
	Means     [][]float64 `json:"means"`
	Variances [][]float64 `json:"variances"`
}

// Fit estimates class priors and per-class Gaussian parameters from
// the scaled feature matrix X and encoded labels y.
func (nb *GaussianNB) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return fmt.Errorf("naive bayes: empty training set")
	}
	if len(X) != len(y) {
		return fmt.Errorf("naive bayes: %d samples but %d labels", len(X), len(y))
	}
	cols := len(X[0])

	byClass := make(map[int][][]float64)
	for i, row := range X {
		byClass[y[i]] = append(byClass[y[i]], row)
	}
	nb.Classes = make([]int, 0, len(byClass))
	for c := range byClass {
		nb.Classes = append(nb.Classes, c)
	}
	sort.Ints(nb.Classes)

	// Smoothing term from the largest variance across all features.
	epsilon := varSmoothing * maxFeatureVariance(X, cols)

	n := float64(len(X))
	nb.Priors = make([]float64, len(nb.Classes))
	nb.Means = make([][]float64, len(nb.Classes))
	nb.Variances = make([][]float64, len(nb.Classes))
	for ci, c := range nb.Classes {
		rows := byClass[c]
		nb.Priors[ci] = float64(len(rows)) / n
		means := make([]float64, cols)
		variances := make([]float64, cols)
		col := make([]float64, len(rows))
		for j := 0; j < cols; j++ {
			for i, row := range rows {
				col[i] = row[j]
			}
			mean, variance := stat.MeanVariance(col, nil)
			if len(rows) > 1 {
				variance *= float64(len(rows)-1) / float64(len(rows))
			} else {
				variance = 0
			}
			means[j] = mean
			variances[j] = variance + epsilon
		}
		nb.Means[ci] = means
		nb.Variances[ci] = variances
	}
	return nil
}

func maxFeatureVariance(X [][]float64, cols int) float64 {
	maxVar := 0.0
	col := make([]float64, len(X))
	for j := 0; j < cols; j++ {
		for i, row := range X {
			col[i] = row[j]
		}
		_, variance := stat.MeanVariance(col, nil)
		if len(X) > 1 {
			variance *= float64(len(X)-1) / float64(len(X))
		} else {
			variance = 0
		}
		if variance > maxVar {
			maxVar = variance
		}
	}
	if maxVar == 0 {
		return 1
	}
	return maxVar
}

// Trained reports whether Fit has produced usable parameters.
func (nb *GaussianNB) Trained() bool {
	return nb != nil && len(nb.Classes) > 0
}

// PredictProba returns the posterior probability per class for one
// scaled feature vector, aligned with Classes and summing to one.
func (nb *GaussianNB) PredictProba(x []float64) []float64 {
	jll := make([]float64, len(nb.Classes))
	for ci := range nb.Classes {
		ll := math.Log(nb.Priors[ci])
		for j, v := range x {
			mean := nb.Means[ci][j]
			variance := nb.Variances[ci][j]
			diff := v - mean
			ll += -0.5*math.Log(2*math.Pi*variance) - diff*diff/(2*variance)
		}
		jll[ci] = ll
	}
	// Normalise in log space to avoid underflow.
	logSum := floats.LogSumExp(jll)
	probs := make([]float64, len(jll))
	for i, ll := range jll {
		probs[i] = math.Exp(ll - logSum)
	}
	return probs
}

// Predict returns the most probable class for one scaled feature
// vector. Ties resolve to the lowest class code.
func (nb *GaussianNB) Predict(x []float64) int {
	probs := nb.PredictProba(x)
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return nb.Classes[best]
}

// Score returns accuracy against a labelled evaluation set.
func (nb *GaussianNB) Score(X [][]float64, y []int) float64 {
	if len(X) == 0 {
		return 0
	}
	correct := 0
	for i, row := range X {
		if nb.Predict(row) == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(X))
}
