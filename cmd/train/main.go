// Command train runs one training pass over the clinic database and
// prints the result as JSON.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/vetcare-data/outbreak.report/internal/config"
	"github.com/vetcare-data/outbreak.report/internal/db"
	"github.com/vetcare-data/outbreak.report/internal/disease"
)

var (
	dbPath     = flag.String("db", "clinic.db", "Path to the clinic database")
	modelsDir  = flag.String("models", "models", "Directory for saved model bundles")
	tuningPath = flag.String("tuning", "", "Path to a risk tuning JSON file (optional)")
)

func main() {
	flag.Parse()

	var tuning *config.RiskTuning
	if *tuningPath != "" {
		loaded, err := config.LoadRiskTuning(*tuningPath)
		if err != nil {
			log.Fatalf("Failed to load risk tuning: %v", err)
		}
		tuning = loaded
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	store, err := disease.NewStore(*modelsDir)
	if err != nil {
		log.Fatalf("Failed to open model store: %v", err)
	}

	model := disease.NewModel("disease_prediction", database, store, nil, tuning)
	result, err := model.Train()
	if err != nil {
		log.Fatalf("Training failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
}
