// Package api serves the disease analytics HTTP endpoints.
package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/vetcare-data/outbreak.report/internal/db"
	"github.com/vetcare-data/outbreak.report/internal/disease"
	"github.com/vetcare-data/outbreak.report/internal/httputil"
	"github.com/vetcare-data/outbreak.report/internal/migration"
	"github.com/vetcare-data/outbreak.report/internal/timeutil"
	"github.com/vetcare-data/outbreak.report/internal/version"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	model *disease.Model
	db    *db.DB
}

func NewServer(model *disease.Model, db *db.DB) *Server {
	return &Server{
		model: model,
		db:    db,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400 && statusCode < 500:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 500:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration.
// Durations come from the clock so tests can pin them.
func LoggingMiddleware(clock timeutil.Clock, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := clock.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(clock.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ml/health", s.health)
	mux.HandleFunc("/ml/models/status", s.modelStatus)
	mux.HandleFunc("/ml/disease/train", s.train)
	mux.HandleFunc("/ml/disease/predict", s.predict)
	mux.HandleFunc("/ml/disease/outbreak-risk", s.outbreakRisk)
	mux.HandleFunc("/ml/disease/patterns", s.patterns)
	mux.HandleFunc("/ml/disease/trends", s.trends)
	mux.HandleFunc("/ml/disease/geographic", s.geographic)
	mux.HandleFunc("/ml/disease/confidence", s.confidence)
	mux.HandleFunc("/ml/data/extract-cases", s.extractCases)
	return mux
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]string{
		"status":  "healthy",
		"service": "outbreak-report",
		"version": version.Version,
	})
}

func (s *Server) modelStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"success": true,
		"models": map[string]disease.Status{
			"disease_prediction": s.model.Status(),
		},
	})
}

func (s *Server) train(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	result, err := s.model.Train()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("training failed: %v", err))
		return
	}
	httputil.WriteJSONOK(w, result)
}

func (s *Server) predict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var body struct {
		Cases []disease.Case `json:"cases"`
	}
	if err := httputil.DecodeJSON(r, &body); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	result, err := s.model.Predict(body.Cases)
	if err != nil {
		if errors.Is(err, disease.ErrInvalidInput) {
			httputil.BadRequest(w, err.Error())
			return
		}
		httputil.InternalServerError(w, fmt.Sprintf("prediction failed: %v", err))
		return
	}
	httputil.WriteJSONOK(w, result)
}

func (s *Server) outbreakRisk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	q := r.URL.Query()
	filter := disease.RiskFilter{
		Species:  q.Get("species"),
		Category: q.Get("category"),
		Region:   q.Get("region"),
	}
	days := 0
	if d := q.Get("days"); d != "" {
		parsed, err := strconv.Atoi(d)
		if err != nil || parsed < 1 {
			httputil.BadRequest(w, "Invalid 'days' parameter")
			return
		}
		days = parsed
	}

	assessment, err := s.model.AssessOutbreakRisk(filter, days)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("risk assessment failed: %v", err))
		return
	}
	httputil.WriteJSONOK(w, assessment)
}

func (s *Server) patterns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	result, err := s.model.AnalyzePatterns()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("pattern analysis failed: %v", err))
		return
	}
	httputil.WriteJSONOK(w, result)
}

func (s *Server) trends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	result, err := s.model.SpeciesTrends(r.URL.Query().Get("species"))
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("trend analysis failed: %v", err))
		return
	}
	httputil.WriteJSONOK(w, result)
}

func (s *Server) geographic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	result, err := s.model.GeographicDistribution()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("geographic analysis failed: %v", err))
		return
	}
	httputil.WriteJSONOK(w, result)
}

func (s *Server) confidence(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.model.Confidence())
}

func (s *Server) extractCases(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.db == nil {
		httputil.InternalServerError(w, "no database attached")
		return
	}
	result, err := migration.Run(s.db)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("extraction failed: %v", err))
		return
	}
	httputil.WriteJSONOK(w, result)
}
