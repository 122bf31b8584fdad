package db

import (
	"compress/gzip"
	"database/sql"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"

	"github.com/vetcare-data/outbreak.report/internal/disease"
)

type DB struct {
	*sql.DB
}

// NewDB opens the clinic database and ensures the base schema exists.
// Additive schema changes beyond the base tables are handled by the
// migrate commands.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS disease_cases (
			case_id             TEXT PRIMARY KEY,
			pet_id              TEXT,
			species             TEXT NOT NULL,
			breed               TEXT,
			disease_name        TEXT NOT NULL,
			disease_category    TEXT NOT NULL,
			severity            TEXT NOT NULL,
			is_contagious       BOOLEAN NOT NULL DEFAULT 0,
			transmission_method TEXT,
			age_at_diagnosis    DOUBLE,
			treatment_days      BIGINT,
			region              TEXT,
			diagnosis_date      TIMESTAMP NOT NULL,
			created_at          TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS medical_records (
			record_id           TEXT PRIMARY KEY,
			pet_id              TEXT NOT NULL,
			species             TEXT,
			breed               TEXT,
			birth_date          TIMESTAMP,
			region              TEXT,
			diagnosis           TEXT,
			symptoms            TEXT,
			temperature         DOUBLE,
			heart_rate          BIGINT,
			respiratory_rate    BIGINT,
			visit_date          TIMESTAMP,
			followup_date       TIMESTAMP,
			created_at          TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_disease_cases_diagnosis_date
			ON disease_cases(diagnosis_date);
		CREATE INDEX IF NOT EXISTS idx_disease_cases_species
			ON disease_cases(species);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// InsertDiseaseCase records one structured case. The diagnosis date is
// required; cases without one cannot participate in time-window
// analyses and are rejected here rather than skipped later.
func (db *DB) InsertDiseaseCase(c disease.Case) error {
	if c.DiagnosisDate.IsZero() {
		return fmt.Errorf("disease case %s has no diagnosis date", c.CaseID)
	}
	_, err := db.Exec(
		`INSERT INTO disease_cases (
			case_id, pet_id, species, breed, disease_name, disease_category,
			severity, is_contagious, transmission_method, age_at_diagnosis,
			treatment_days, region, diagnosis_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CaseID, c.PetID, c.Species, c.Breed, c.DiseaseName, c.Category,
		c.Severity, c.IsContagious, c.TransmissionMethod, c.AgeAtDiagnosis,
		c.TreatmentDays, c.Region, c.DiagnosisDate,
	)
	if err != nil {
		return fmt.Errorf("inserting disease case %s: %w", c.CaseID, err)
	}
	return nil
}

// DiseaseCases loads the full case set ordered by diagnosis date. This
// implements disease.CaseSource; training and the reporters always see
// a consistent ordering.
func (db *DB) DiseaseCases() ([]disease.Case, error) {
	return db.queryDiseaseCases(
		`SELECT case_id, pet_id, species, breed, disease_name, disease_category,
			severity, is_contagious, transmission_method, age_at_diagnosis,
			treatment_days, region, diagnosis_date
		FROM disease_cases ORDER BY diagnosis_date, case_id`)
}

// DiseaseCasesSince loads the cases diagnosed on or after cutoff,
// ordered like DiseaseCases.
func (db *DB) DiseaseCasesSince(cutoff time.Time) ([]disease.Case, error) {
	return db.queryDiseaseCases(
		`SELECT case_id, pet_id, species, breed, disease_name, disease_category,
			severity, is_contagious, transmission_method, age_at_diagnosis,
			treatment_days, region, diagnosis_date
		FROM disease_cases WHERE diagnosis_date >= ?
		ORDER BY diagnosis_date, case_id`, cutoff)
}

func (db *DB) queryDiseaseCases(query string, args ...interface{}) ([]disease.Case, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cases []disease.Case
	for rows.Next() {
		var (
			c            disease.Case
			breed        sql.NullString
			transmission sql.NullString
			age          sql.NullFloat64
			days         sql.NullInt64
			region       sql.NullString
		)
		if err := rows.Scan(
			&c.CaseID,
			&c.PetID,
			&c.Species,
			&breed,
			&c.DiseaseName,
			&c.Category,
			&c.Severity,
			&c.IsContagious,
			&transmission,
			&age,
			&days,
			&region,
			&c.DiagnosisDate,
		); err != nil {
			return nil, err
		}
		if breed.Valid {
			c.Breed = breed.String
		}
		if transmission.Valid {
			c.TransmissionMethod = &transmission.String
		}
		if age.Valid {
			c.AgeAtDiagnosis = &age.Float64
		}
		if days.Valid {
			d := float64(days.Int64)
			c.TreatmentDays = &d
		}
		if region.Valid {
			c.Region = &region.String
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return cases, nil
}

// CountDiseaseCases returns the number of structured cases on file.
func (db *DB) CountDiseaseCases() (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM disease_cases`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// HasDiseaseCase reports whether a case already exists for the pet,
// disease and diagnosis date. The record extractor uses this to skip
// duplicates on re-runs.
func (db *DB) HasDiseaseCase(petID, diseaseName string, diagnosisDate time.Time) (bool, error) {
	var n int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM disease_cases
		WHERE pet_id = ? AND disease_name = ? AND date(diagnosis_date) = date(?)`,
		petID, diseaseName, diagnosisDate,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MedicalRecord is one raw clinical visit row, the input to case
// extraction. Nullable columns stay as pointers so absent vitals are
// distinguishable from zero readings.
type MedicalRecord struct {
	RecordID        string
	PetID           string
	Species         string
	Breed           string
	BirthDate       *time.Time
	Region          *string
	Diagnosis       string
	Symptoms        string
	Temperature     *float64
	HeartRate       *int
	RespiratoryRate *int
	VisitDate       time.Time
	FollowupDate    *time.Time
}

// InsertMedicalRecord records one raw clinical visit.
func (db *DB) InsertMedicalRecord(r MedicalRecord) error {
	_, err := db.Exec(
		`INSERT INTO medical_records (
			record_id, pet_id, species, breed, birth_date, region, diagnosis,
			symptoms, temperature, heart_rate, respiratory_rate, visit_date,
			followup_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RecordID, r.PetID, r.Species, r.Breed, r.BirthDate, r.Region,
		r.Diagnosis, r.Symptoms, r.Temperature, r.HeartRate,
		r.RespiratoryRate, r.VisitDate, r.FollowupDate,
	)
	if err != nil {
		return fmt.Errorf("inserting medical record %s: %w", r.RecordID, err)
	}
	return nil
}

// MedicalRecords loads all raw visit rows that carry a diagnosis,
// ordered by visit date.
func (db *DB) MedicalRecords() ([]MedicalRecord, error) {
	rows, err := db.Query(
		`SELECT record_id, pet_id, species, breed, birth_date, region,
			diagnosis, symptoms, temperature, heart_rate, respiratory_rate,
			visit_date, followup_date
		FROM medical_records
		WHERE diagnosis IS NOT NULL AND diagnosis != ''
		ORDER BY visit_date, record_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []MedicalRecord
	for rows.Next() {
		var (
			r         MedicalRecord
			species   sql.NullString
			breed     sql.NullString
			birth     sql.NullTime
			region    sql.NullString
			diagnosis sql.NullString
			symptoms  sql.NullString
			temp      sql.NullFloat64
			heart     sql.NullInt64
			resp      sql.NullInt64
			followup  sql.NullTime
		)
		if err := rows.Scan(
			&r.RecordID,
			&r.PetID,
			&species,
			&breed,
			&birth,
			&region,
			&diagnosis,
			&symptoms,
			&temp,
			&heart,
			&resp,
			&r.VisitDate,
			&followup,
		); err != nil {
			return nil, err
		}
		r.Species = species.String
		r.Breed = breed.String
		r.Diagnosis = diagnosis.String
		r.Symptoms = symptoms.String
		if birth.Valid {
			r.BirthDate = &birth.Time
		}
		if region.Valid {
			r.Region = &region.String
		}
		if temp.Valid {
			r.Temperature = &temp.Float64
		}
		if heart.Valid {
			h := int(heart.Int64)
			r.HeartRate = &h
		}
		if resp.Valid {
			rr := int(resp.Int64)
			r.RespiratoryRate = &rr
		}
		if followup.Valid {
			r.FollowupDate = &followup.Time
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	// create a tailSQL instance and point it to our DB
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://clinic.db", db.DB, &tailsql.DBOptions{
		Label: "Disease DB",
	})

	// mount the tailSQL server on the debug /tailsql path
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		unixTime := time.Now().Unix()
		backupPath := fmt.Sprintf("backup-%d.db", unixTime)
		if _, err := db.DB.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", backupPath))
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Encoding", "gzip")

		// Send the backup file to the client
		backupFile, err := os.Open(backupPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
			return
		}

		// close the backup file after sending it
		// and remove it from the filesystem
		defer func() {
			backupFile.Close()
			if err := os.Remove(backupPath); err != nil {
				log.Printf("Failed to remove backup file: %v", err)
			}
		}()

		gzipWriter := gzip.NewWriter(w)
		defer gzipWriter.Close()
		if _, err := gzipWriter.Write([]byte{}); err != nil {
			// Need to write something to initialize the gzip header
			http.Error(w, fmt.Sprintf("Failed to initialize gzip writer: %v", err), http.StatusInternalServerError)
			return
		}

		// Copy the backup file content to the gzip writer
		if _, err := io.Copy(gzipWriter, backupFile); err != nil {
			http.Error(w, fmt.Sprintf("Failed to write backup file: %v", err), http.StatusInternalServerError)
			return
		}
	}))
}
