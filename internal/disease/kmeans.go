package disease

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// MinRecordsClustering is the smallest case set the clusterer will
// train on.
const MinRecordsClustering = 20

const (
	kmeansSeed     = 42
	kmeansRestarts = 10
	kmeansMaxIter  = 300
)

// ClusterCount returns the cluster count for a dataset of n cases:
// at most 3 in this dataset-size regime, never fewer than 2 once the
// clustering threshold is met.
func ClusterCount(n int) int {
	maxClusters := n / 10
	if maxClusters > 5 {
		maxClusters = 5
	}
	if maxClusters < 2 {
		maxClusters = 2
	}
	if maxClusters > 3 {
		return 3
	}
	return maxClusters
}

// KMeans groups scaled feature vectors into K clusters. Fit is fully
// deterministic: a fixed seed drives k-means++ initialisation and the
// best of a fixed number of restarts is kept, so repeated training on
// the same data reproduces identical centroids.
type KMeans struct {
	K         int         `json:"k"`
	Centroids [][]float64 `json:"centroids"`
}

// Fit clusters X into km.K groups and returns the assignment per row.
func (km *KMeans) Fit(X [][]float64) ([]int, error) {
	if km.K < 1 {
		return nil, fmt.Errorf("kmeans: invalid cluster count %d", km.K)
	}
	if len(X) < km.K {
		return nil, fmt.Errorf("kmeans: %d samples for %d clusters", len(X), km.K)
	}

	var bestCentroids [][]float64
	var bestLabels []int
	bestInertia := math.Inf(1)
	for restart := 0; restart < kmeansRestarts; restart++ {
		rng := rand.New(rand.NewSource(kmeansSeed + int64(restart)))
		centroids := plusPlusInit(X, km.K, rng)
		labels := make([]int, len(X))
		for iter := 0; iter < kmeansMaxIter; iter++ {
			moved := assign(X, centroids, labels)
			recompute(X, centroids, labels, km.K)
			if !moved && iter > 0 {
				break
			}
		}
		inertia := totalInertia(X, centroids, labels)
		if inertia < bestInertia {
			bestInertia = inertia
			bestCentroids = centroids
			bestLabels = labels
		}
	}
	km.Centroids = bestCentroids
	return bestLabels, nil
}

// Predict assigns each row of X to its nearest trained centroid.
func (km *KMeans) Predict(X [][]float64) []int {
	labels := make([]int, len(X))
	assign(X, km.Centroids, labels)
	return labels
}

// Trained reports whether centroids have been fit.
func (km *KMeans) Trained() bool {
	return km != nil && len(km.Centroids) > 0
}

// plusPlusInit picks initial centroids with k-means++ weighting: each
// subsequent centroid is drawn proportionally to squared distance from
// the nearest centroid chosen so far.
func plusPlusInit(X [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	first := rng.Intn(len(X))
	centroids = append(centroids, cloneRow(X[first]))

	dists := make([]float64, len(X))
	for len(centroids) < k {
		total := 0.0
		for i, row := range X {
			d := math.Inf(1)
			for _, c := range centroids {
				if dd := squaredDistance(row, c); dd < d {
					d = dd
				}
			}
			dists[i] = d
			total += d
		}
		if total == 0 {
			// All remaining points coincide with a centroid; any pick works.
			centroids = append(centroids, cloneRow(X[rng.Intn(len(X))]))
			continue
		}
		target := rng.Float64() * total
		acc := 0.0
		pick := len(X) - 1
		for i, d := range dists {
			acc += d
			if acc >= target {
				pick = i
				break
			}
		}
		centroids = append(centroids, cloneRow(X[pick]))
	}
	return centroids
}

// assign labels each row with its nearest centroid, reporting whether
// any label changed.
func assign(X [][]float64, centroids [][]float64, labels []int) bool {
	moved := false
	for i, row := range X {
		best := 0
		bestDist := math.Inf(1)
		for ci, c := range centroids {
			if d := squaredDistance(row, c); d < bestDist {
				bestDist = d
				best = ci
			}
		}
		if labels[i] != best {
			labels[i] = best
			moved = true
		}
	}
	return moved
}

// recompute moves each centroid to the mean of its members. Empty
// clusters keep their previous position.
func recompute(X [][]float64, centroids [][]float64, labels []int, k int) {
	cols := len(X[0])
	sums := make([][]float64, k)
	counts := make([]int, k)
	for i := range sums {
		sums[i] = make([]float64, cols)
	}
	for i, row := range X {
		floats.Add(sums[labels[i]], row)
		counts[labels[i]]++
	}
	for ci := 0; ci < k; ci++ {
		if counts[ci] == 0 {
			continue
		}
		for j := 0; j < cols; j++ {
			centroids[ci][j] = sums[ci][j] / float64(counts[ci])
		}
	}
}

func totalInertia(X [][]float64, centroids [][]float64, labels []int) float64 {
	total := 0.0
	for i, row := range X {
		total += squaredDistance(row, centroids[labels[i]])
	}
	return total
}

func squaredDistance(a, b []float64) float64 {
	total := 0.0
	for j := range a {
		d := a[j] - b[j]
		total += d * d
	}
	return total
}

func cloneRow(row []float64) []float64 {
	out := make([]float64, len(row))
	copy(out, row)
	return out
}

// SilhouetteScore is the mean silhouette coefficient over all samples.
// It is computed on the training-fit scaling and describes training-set
// geometry, not generalisation. Samples in singleton clusters score 0.
func SilhouetteScore(X [][]float64, labels []int) float64 {
	n := len(X)
	if n == 0 {
		return 0
	}
	clusterSizes := map[int]int{}
	for _, l := range labels {
		clusterSizes[l]++
	}
	if len(clusterSizes) < 2 {
		return 0
	}

	total := 0.0
	for i := range X {
		if clusterSizes[labels[i]] == 1 {
			continue
		}
		// Mean distance to own cluster (a) and to the nearest other
		// cluster (b).
		sums := map[int]float64{}
		for j := range X {
			if i == j {
				continue
			}
			sums[labels[j]] += math.Sqrt(squaredDistance(X[i], X[j]))
		}
		a := sums[labels[i]] / float64(clusterSizes[labels[i]]-1)
		b := math.Inf(1)
		for l, sum := range sums {
			if l == labels[i] {
				continue
			}
			if mean := sum / float64(clusterSizes[l]); mean < b {
				b = mean
			}
		}
		if max := math.Max(a, b); max > 0 {
			total += (b - a) / max
		}
	}
	return total / float64(n)
}
