// Command cluster-plot assigns the current case set to the trained
// clusters and renders a scatter plot of the first two feature
// dimensions, colored by cluster.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/vetcare-data/outbreak.report/internal/db"
	"github.com/vetcare-data/outbreak.report/internal/disease"
)

var (
	dbPath    = flag.String("db", "clinic.db", "Path to the clinic database")
	modelsDir = flag.String("models", "models", "Directory holding saved model bundles")
	outPath   = flag.String("out", "clusters.png", "Output PNG file")
)

var palette = []color.Color{
	color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	color.RGBA{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
}

func main() {
	flag.Parse()

	store, err := disease.NewStore(*modelsDir)
	if err != nil {
		log.Fatalf("Failed to open model store: %v", err)
	}
	bundle, path, err := store.LoadLatest("disease_prediction")
	if err != nil {
		log.Fatalf("Failed to load model bundle: %v", err)
	}
	if !bundle.Clusterer.Trained() {
		log.Fatal("Bundle has no trained clusterer; run training with at least 20 cases")
	}
	log.Printf("using bundle %s (trained %s)", path, bundle.TrainedAt.Format("2006-01-02"))

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	cases, err := database.DiseaseCases()
	if err != nil {
		log.Fatalf("Failed to load disease cases: %v", err)
	}
	if len(cases) == 0 {
		log.Fatal("No disease cases to plot")
	}

	X := bundle.Encoder.Transform(cases)
	Xs := bundle.Scaler.Transform(X)
	labels := bundle.Clusterer.Predict(Xs)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Disease patterns (%d cases, %d clusters)", len(cases), bundle.Clusterer.K)
	p.X.Label.Text = disease.FeatureNames[0]
	p.Y.Label.Text = disease.FeatureNames[1]

	for cluster := 0; cluster < bundle.Clusterer.K; cluster++ {
		pts := make(plotter.XYs, 0)
		for i, row := range Xs {
			if labels[i] == cluster {
				pts = append(pts, plotter.XY{X: row[0], Y: row[1]})
			}
		}
		if len(pts) == 0 {
			continue
		}
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			log.Fatalf("Failed to build scatter series: %v", err)
		}
		scatter.GlyphStyle.Color = palette[cluster%len(palette)]
		scatter.GlyphStyle.Radius = vg.Points(2.5)
		p.Add(scatter)
		p.Legend.Add(fmt.Sprintf("cluster %d (%d)", cluster, len(pts)), scatter)
	}

	if err := p.Save(8*vg.Inch, 6*vg.Inch, *outPath); err != nil {
		log.Fatalf("Failed to save plot: %v", err)
	}
	log.Printf("wrote %s", *outPath)
}
