package disease

import (
	"fmt"
	"math/rand"
	"sort"
	"sync/atomic"
	"time"

	"github.com/vetcare-data/outbreak.report/internal/config"
	"github.com/vetcare-data/outbreak.report/internal/monitoring"
	"github.com/vetcare-data/outbreak.report/internal/timeutil"
)

// Training preconditions for the classifier.
const (
	minCategoriesForClassification = 3
	trainTestSplit                 = 0.2
	splitSeed                      = 42
)

// Bundle is the complete immutable snapshot of trained model state
// produced by one training run. It is replaced wholesale by the next
// run; nothing mutates a bundle after creation.
type Bundle struct {
	ModelName string `json:"model_name"`

	// Classifier and Clusterer are nil when the respective training
	// precondition was not met.
	Classifier *GaussianNB `json:"classifier,omitempty"`
	Clusterer  *KMeans     `json:"clusterer,omitempty"`

	Encoder *FeatureEncoder `json:"encoder"`

	// Scaler holds the training-time scaling statistics. Inference
	// reuses it rather than refitting, so identical inputs always
	// produce identical encodings against a given bundle.
	Scaler *StandardScaler `json:"scaler"`

	TrainedAt            time.Time      `json:"trained_at"`
	DataSize             int            `json:"data_size"`
	SpeciesDistribution  map[string]int `json:"species_distribution"`
	CategoryDistribution map[string]int `json:"category_distribution"`
	Confidence           Confidence     `json:"confidence"`

	ClassificationAccuracy *float64 `json:"classification_accuracy,omitempty"`
	SilhouetteScore        *float64 `json:"silhouette_score,omitempty"`
}

// Model ties the analytic components together: it trains bundles from
// the case source, persists them, and serves predictions and analyses
// against the currently loaded bundle. The bundle is held behind an
// atomic pointer so a retrain swaps it without readers ever observing
// a partially updated state.
type Model struct {
	name   string
	source CaseSource
	store  *Store
	clock  timeutil.Clock
	tuning *config.RiskTuning

	bundle atomic.Pointer[Bundle]
}

// NewModel creates a Model over the given case source and store. A nil
// clock defaults to the real clock; a nil tuning uses the built-in
// risk defaults.
func NewModel(name string, source CaseSource, store *Store, clock timeutil.Clock, tuning *config.RiskTuning) *Model {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	m := &Model{
		name:   name,
		source: source,
		store:  store,
		clock:  clock,
		tuning: tuning,
	}
	return m
}

// Bundle returns the currently loaded bundle, or nil before any
// training or load.
func (m *Model) Bundle() *Bundle { return m.bundle.Load() }

// SetBundle installs a bundle (typically loaded from the store at
// startup) as the current model state.
func (m *Model) SetBundle(b *Bundle) { m.bundle.Store(b) }

// ClusterSummary describes one cluster found during training.
type ClusterSummary struct {
	ClusterID        int    `json:"cluster_id"`
	CaseCount        int    `json:"case_count"`
	DominantCategory string `json:"dominant_category"`
	DominantSpecies  string `json:"dominant_species"`
	ContagiousCases  int    `json:"contagious_cases"`
}

// TrainingResult reports the outcome of one training run.
type TrainingResult struct {
	Status     string     `json:"status"`
	DataSize   int        `json:"data_size"`
	Confidence Confidence `json:"confidence"`
	TrainedAt  time.Time  `json:"trained_at"`

	ModelsTrained []string `json:"models_trained"`

	ClassificationAccuracy *float64 `json:"classification_accuracy,omitempty"`
	ClassificationSkipped  string   `json:"classification_skipped,omitempty"`

	Clusters          int              `json:"clusters,omitempty"`
	SilhouetteScore   *float64         `json:"silhouette_score,omitempty"`
	ClusterSummaries  []ClusterSummary `json:"cluster_analysis,omitempty"`
	ClusteringSkipped string           `json:"clustering_skipped,omitempty"`

	ModelPath string `json:"model_path,omitempty"`
}

// Train loads the full case set, fits whichever models the data
// supports, persists the resulting bundle, and atomically installs it
// as the current model state. An empty dataset is a no_data status,
// not an error; collaborator failures propagate as errors.
func (m *Model) Train() (TrainingResult, error) {
	cases, err := m.source.DiseaseCases()
	if err != nil {
		return TrainingResult{}, fmt.Errorf("loading disease cases: %w", err)
	}
	if len(cases) == 0 {
		return TrainingResult{Status: StatusNoData, Confidence: ModelConfidence(0)}, nil
	}

	now := m.clock.Now()
	confidence := ModelConfidence(len(cases))
	monitoring.Logf("training %s on %d cases (confidence %s)", m.name, len(cases), confidence.Level)
	if len(cases) < MinRecordsBasic {
		monitoring.Logf("need %d more cases for reliable predictions; proceeding with basic models only", confidence.CasesNeeded)
	}

	speciesDist := map[string]int{}
	categoryDist := map[string]int{}
	for _, c := range cases {
		speciesDist[c.Species]++
		categoryDist[c.Category]++
	}

	encoder := &FeatureEncoder{}
	encoder.Fit(cases)
	X := encoder.Transform(cases)
	y := encoder.TargetVector(cases)
	scaler := &StandardScaler{}
	Xs := scaler.FitTransform(X)

	bundle := &Bundle{
		ModelName:            m.name,
		Encoder:              encoder,
		Scaler:               scaler,
		TrainedAt:            now,
		DataSize:             len(cases),
		SpeciesDistribution:  speciesDist,
		CategoryDistribution: categoryDist,
		Confidence:           confidence,
	}
	result := TrainingResult{
		Status:     StatusSuccess,
		DataSize:   len(cases),
		Confidence: confidence,
		TrainedAt:  now,
	}

	if len(categoryDist) >= minCategoriesForClassification && len(cases) >= MinRecordsBasic {
		accuracy, nb, err := trainClassifier(Xs, y)
		if err != nil {
			return TrainingResult{}, fmt.Errorf("training classifier: %w", err)
		}
		bundle.Classifier = nb
		bundle.ClassificationAccuracy = &accuracy
		result.ModelsTrained = append(result.ModelsTrained, "classification")
		result.ClassificationAccuracy = &accuracy
		monitoring.Logf("classifier trained, held-out accuracy %.2f", accuracy)
	} else {
		result.ClassificationSkipped = fmt.Sprintf(
			"insufficient diverse data: %d categories, %d cases (need %d and %d)",
			len(categoryDist), len(cases), minCategoriesForClassification, MinRecordsBasic)
		monitoring.Logf("skipping classification model (%s)", result.ClassificationSkipped)
	}

	if len(cases) >= MinRecordsClustering {
		km := &KMeans{K: ClusterCount(len(cases))}
		labels, err := km.Fit(Xs)
		if err != nil {
			return TrainingResult{}, fmt.Errorf("training clusterer: %w", err)
		}
		bundle.Clusterer = km
		result.ModelsTrained = append(result.ModelsTrained, "clustering")
		result.Clusters = km.K
		if len(Xs) > km.K {
			silhouette := SilhouetteScore(Xs, labels)
			bundle.SilhouetteScore = &silhouette
			result.SilhouetteScore = &silhouette
		}
		result.ClusterSummaries = summariseClusters(cases, labels, km.K)
		monitoring.Logf("clusterer identified %d disease patterns", km.K)
	} else {
		result.ClusteringSkipped = fmt.Sprintf(
			"insufficient data: %d cases (need %d)", len(cases), MinRecordsClustering)
		monitoring.Logf("skipping clustering model (%s)", result.ClusteringSkipped)
	}

	if m.store != nil {
		path, err := m.store.Save(bundle, now)
		if err != nil {
			return TrainingResult{}, fmt.Errorf("saving model bundle: %w", err)
		}
		result.ModelPath = path
		monitoring.Logf("model saved to %s", path)
	}

	m.bundle.Store(bundle)
	return result, nil
}

// trainClassifier scales, splits and fits the Naive Bayes classifier,
// returning held-out accuracy. The scaler is fit on the full set
// before splitting, as the reference pipeline does, so the reported
// accuracy is mildly optimistic.
func trainClassifier(Xs [][]float64, y []int) (float64, *GaussianNB, error) {
	trainIdx, testIdx := stratifiedSplit(y, trainTestSplit, splitSeed)

	Xtrain := gather(Xs, trainIdx)
	ytrain := gatherInts(y, trainIdx)
	Xtest := gather(Xs, testIdx)
	ytest := gatherInts(y, testIdx)

	nb := &GaussianNB{}
	if err := nb.Fit(Xtrain, ytrain); err != nil {
		return 0, nil, err
	}
	return nb.Score(Xtest, ytest), nb, nil
}

// stratifiedSplit returns deterministic train/test index sets holding
// out testFraction of each class. Stratification is disabled when any
// class has a single member; the split then falls back to a plain
// shuffled holdout.
func stratifiedSplit(y []int, testFraction float64, seed int64) (train, test []int) {
	rng := rand.New(rand.NewSource(seed))

	byClass := map[int][]int{}
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	stratify := true
	for _, idx := range byClass {
		if len(idx) < 2 {
			stratify = false
			break
		}
	}

	if !stratify {
		all := rng.Perm(len(y))
		nTest := int(float64(len(y)) * testFraction)
		if nTest < 1 {
			nTest = 1
		}
		test = append(test, all[:nTest]...)
		train = append(train, all[nTest:]...)
		sort.Ints(train)
		sort.Ints(test)
		return train, test
	}

	labels := make([]int, 0, len(byClass))
	for label := range byClass {
		labels = append(labels, label)
	}
	sort.Ints(labels)
	for _, label := range labels {
		idx := byClass[label]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		nTest := int(float64(len(idx)) * testFraction)
		if nTest < 1 {
			nTest = 1
		}
		test = append(test, idx[:nTest]...)
		train = append(train, idx[nTest:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test
}

func gather(X [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = X[j]
	}
	return out
}

func gatherInts(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}

// summariseClusters produces the per-cluster training summary:
// dominant category and species (ties to the alphabetically smallest
// value), contagious count, member count. Empty clusters are omitted.
func summariseClusters(cases []Case, labels []int, k int) []ClusterSummary {
	summaries := make([]ClusterSummary, 0, k)
	for cluster := 0; cluster < k; cluster++ {
		categories := map[string]int{}
		species := map[string]int{}
		contagious := 0
		count := 0
		for i, c := range cases {
			if labels[i] != cluster {
				continue
			}
			count++
			categories[c.Category]++
			species[c.Species]++
			if c.IsContagious {
				contagious++
			}
		}
		if count == 0 {
			continue
		}
		summaries = append(summaries, ClusterSummary{
			ClusterID:        cluster,
			CaseCount:        count,
			DominantCategory: dominantValue(categories),
			DominantSpecies:  dominantValue(species),
			ContagiousCases:  contagious,
		})
	}
	return summaries
}

// dominantValue returns the highest-count key, ties resolved to the
// lexicographically smallest.
func dominantValue(counts map[string]int) string {
	if len(counts) == 0 {
		return unknownLabel
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best := keys[0]
	for _, k := range keys[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best
}
