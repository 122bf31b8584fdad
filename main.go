package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/vetcare-data/outbreak.report/internal/api"
	"github.com/vetcare-data/outbreak.report/internal/config"
	"github.com/vetcare-data/outbreak.report/internal/db"
	"github.com/vetcare-data/outbreak.report/internal/disease"
	"github.com/vetcare-data/outbreak.report/internal/migration"
	"github.com/vetcare-data/outbreak.report/internal/timeutil"
)

var (
	listen          = flag.String("listen", ":8080", "Listen address")
	dbPath          = flag.String("db", "clinic.db", "Path to the clinic database")
	modelsDir       = flag.String("models", "models", "Directory for saved model bundles")
	migrationsDir   = flag.String("migrations", "migrations", "Path to migrations directory")
	tuningPath      = flag.String("tuning", "", "Path to a risk tuning JSON file (optional)")
	retrainSchedule = flag.String("retrain-schedule", "", "Cron expression for scheduled retraining (optional)")
)

const modelName = "disease_prediction"

func main() {
	flag.Parse()

	// Environment overrides are optional; a missing .env is fine.
	if err := godotenv.Load(); err == nil {
		log.Print("loaded environment from .env")
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	// Subcommands run and exit before the server starts.
	if args := flag.Args(); len(args) > 0 {
		switch args[0] {
		case "migrate":
			db.RunMigrateCommand(args[1:], *dbPath, *migrationsDir)
			return
		case "extract":
			runExtract(*dbPath)
			return
		default:
			log.Fatalf("unknown command %q (expected migrate or extract)", args[0])
		}
	}

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

	if err := database.MigrateUp(*migrationsDir); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	store, err := disease.NewStore(*modelsDir)
	if err != nil {
		log.Fatalf("Failed to open model store: %v", err)
	}

	model := disease.NewModel(modelName, database, store, nil, tuning)
	if bundle, path, err := store.LoadLatest(modelName); err == nil {
		model.SetBundle(bundle)
		log.Printf("loaded model bundle from %s (trained %s)", path, bundle.TrainedAt.Format(time.RFC3339))
	} else {
		log.Printf("no saved model bundle: %v", err)
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Scheduled retraining keeps the bundle fresh as new cases arrive.
	if *retrainSchedule != "" {
		scheduler := cron.New()
		_, err := scheduler.AddFunc(*retrainSchedule, func() {
			result, err := model.Train()
			if err != nil {
				log.Printf("scheduled retraining failed: %v", err)
				return
			}
			log.Printf("scheduled retraining finished: status=%s data_size=%d", result.Status, result.DataSize)
		})
		if err != nil {
			log.Fatalf("Invalid retrain schedule %q: %v", *retrainSchedule, err)
		}
		scheduler.Start()
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-ctx.Done()
			<-scheduler.Stop().Done()
			log.Print("retraining scheduler stopped")
		}()
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// mount the admin debugging routes (accessible only in dev mode or over Tailscale)
		database.AttachAdminRoutes(mux)

		apiMux := api.NewServer(model, database).ServeMux()
		mux.Handle("/api/", http.StripPrefix("/api", apiMux))

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(timeutil.RealClock{}, mux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			log.Printf("listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		// Create a shutdown context with a timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	// Wait for all goroutines to finish
	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

// runExtract converts diagnosed medical records into structured
// disease cases and exits.
func runExtract(dbPath string) {
	database, err := db.NewDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	result, err := migration.Run(database)
	if err != nil {
		log.Fatalf("Extraction failed: %v", err)
	}
	log.Printf("extraction finished: %d migrated, %d skipped of %d records",
		result.Migrated, result.Skipped, result.Processed)
}
