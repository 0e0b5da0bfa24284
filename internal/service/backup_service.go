package service

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"memtrainer/internal/database"
)

// BackupData represents the complete database backup structure
type BackupData struct {
	Version      string            `json:"version"`
	ExportedAt   time.Time         `json:"exported_at"`
	DatabaseType string            `json:"database_type"`
	Paragraphs   []ParagraphBackup `json:"paragraphs"`
	Attempts     []AttemptBackup   `json:"attempts"`
	Results      []ResultBackup    `json:"results"`
	State        []StateBackup     `json:"state"`
}

// ParagraphBackup represents a paragraph record for backup
type ParagraphBackup struct {
	ID           int64     `json:"id"`
	ParagraphID  string    `json:"paragraph_id"`
	DisplayID    string    `json:"display_id"`
	Name         string    `json:"name"`
	Text         string    `json:"text"`
	Chunks       string    `json:"chunks"`
	LastModified time.Time `json:"last_modified"`
}

// AttemptBackup represents an attempt record for backup. Audio travels as
// base64 so the backup file stays valid JSON.
type AttemptBackup struct {
	ID              int64     `json:"id"`
	ParagraphID     string    `json:"paragraph_id"`
	ChunkIndex      int       `json:"chunk_index"`
	Audio           string    `json:"audio"`
	MimeType        string    `json:"mime_type"`
	DurationSeconds float64   `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
	IsReference     bool      `json:"is_reference"`
}

// ResultBackup represents a check result record for backup
type ResultBackup struct {
	ParagraphID string    `json:"paragraph_id"`
	StepKey     string    `json:"step_key"`
	Pass        bool      `json:"pass"`
	MarkedAt    time.Time `json:"marked_at"`
}

// StateBackup represents an app state entry for backup
type StateBackup struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(outputPath string) error {
	log.Println("Starting database export...")

	backup, err := s.collect()
	if err != nil {
		return err
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Printf("Database exported successfully to %s", outputPath)
	log.Printf("Exported: %d paragraphs, %d attempts, %d results, %d state entries",
		len(backup.Paragraphs), len(backup.Attempts), len(backup.Results), len(backup.State))

	return nil
}

// ExportToWriter exports the database to an io.Writer (useful for HTTP responses)
func (s *BackupService) ExportToWriter(w io.Writer) error {
	backup, err := s.collect()
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(backup)
}

func (s *BackupService) collect() (*BackupData, error) {
	backup := &BackupData{
		Version:      "1.0",
		ExportedAt:   time.Now(),
		DatabaseType: "universal",
	}

	if err := s.exportParagraphs(backup); err != nil {
		return nil, fmt.Errorf("failed to export paragraphs: %w", err)
	}
	if err := s.exportAttempts(backup); err != nil {
		return nil, fmt.Errorf("failed to export attempts: %w", err)
	}
	if err := s.exportResults(backup); err != nil {
		return nil, fmt.Errorf("failed to export results: %w", err)
	}
	if err := s.exportState(backup); err != nil {
		return nil, fmt.Errorf("failed to export state: %w", err)
	}
	return backup, nil
}

// Import restores a database from a backup file
func (s *BackupService) Import(inputPath string) error {
	log.Printf("Starting database import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(file)
}

// ImportFromReader restores a database from a backup reader (for file uploads)
func (s *BackupService) ImportFromReader(reader io.Reader) error {
	var backup BackupData
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	if err := s.importParagraphs(backup.Paragraphs); err != nil {
		return fmt.Errorf("failed to import paragraphs: %w", err)
	}
	if err := s.importAttempts(backup.Attempts); err != nil {
		return fmt.Errorf("failed to import attempts: %w", err)
	}
	if err := s.importResults(backup.Results); err != nil {
		return fmt.Errorf("failed to import results: %w", err)
	}
	if err := s.importState(backup.State); err != nil {
		return fmt.Errorf("failed to import state: %w", err)
	}

	log.Println("Database import completed successfully")
	return nil
}

func (s *BackupService) exportParagraphs(backup *BackupData) error {
	query := "SELECT id, paragraph_id, display_id, name, text, chunks, last_modified FROM paragraphs ORDER BY id"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p ParagraphBackup
		if err := rows.Scan(&p.ID, &p.ParagraphID, &p.DisplayID, &p.Name, &p.Text, &p.Chunks, &p.LastModified); err != nil {
			return err
		}
		backup.Paragraphs = append(backup.Paragraphs, p)
	}
	return rows.Err()
}

func (s *BackupService) exportAttempts(backup *BackupData) error {
	query := "SELECT id, paragraph_id, chunk_index, audio, mime_type, duration_seconds, created_at, is_reference FROM attempts ORDER BY id"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var a AttemptBackup
		var audio []byte
		if err := rows.Scan(&a.ID, &a.ParagraphID, &a.ChunkIndex, &audio, &a.MimeType, &a.DurationSeconds, &a.CreatedAt, &a.IsReference); err != nil {
			return err
		}
		a.Audio = base64.StdEncoding.EncodeToString(audio)
		backup.Attempts = append(backup.Attempts, a)
	}
	return rows.Err()
}

func (s *BackupService) exportResults(backup *BackupData) error {
	query := "SELECT paragraph_id, step_key, pass, marked_at FROM check_results ORDER BY paragraph_id, step_key"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var r ResultBackup
		if err := rows.Scan(&r.ParagraphID, &r.StepKey, &r.Pass, &r.MarkedAt); err != nil {
			return err
		}
		backup.Results = append(backup.Results, r)
	}
	return rows.Err()
}

func (s *BackupService) exportState(backup *BackupData) error {
	query := "SELECT name, value FROM app_state ORDER BY name"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var st StateBackup
		if err := rows.Scan(&st.Name, &st.Value); err != nil {
			return err
		}
		backup.State = append(backup.State, st)
	}
	return rows.Err()
}

func (s *BackupService) importParagraphs(paragraphs []ParagraphBackup) error {
	log.Printf("Importing %d paragraphs...", len(paragraphs))
	for _, p := range paragraphs {
		query := "INSERT INTO paragraphs (id, paragraph_id, display_id, name, text, chunks, last_modified) VALUES (?, ?, ?, ?, ?, ?, ?)"
		_, err := s.db.Exec(query, p.ID, p.ParagraphID, p.DisplayID, p.Name, p.Text, p.Chunks, p.LastModified)
		if err != nil {
			return fmt.Errorf("failed to import paragraph %d: %w", p.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importAttempts(attempts []AttemptBackup) error {
	log.Printf("Importing %d attempts...", len(attempts))
	for _, a := range attempts {
		audio, err := base64.StdEncoding.DecodeString(a.Audio)
		if err != nil {
			return fmt.Errorf("failed to decode audio for attempt %d: %w", a.ID, err)
		}
		query := "INSERT INTO attempts (id, paragraph_id, chunk_index, audio, mime_type, duration_seconds, created_at, is_reference) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
		_, err = s.db.Exec(query, a.ID, a.ParagraphID, a.ChunkIndex, audio, a.MimeType, a.DurationSeconds, a.CreatedAt, a.IsReference)
		if err != nil {
			return fmt.Errorf("failed to import attempt %d: %w", a.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importResults(results []ResultBackup) error {
	log.Printf("Importing %d results...", len(results))
	for _, r := range results {
		query := "INSERT INTO check_results (paragraph_id, step_key, pass, marked_at) VALUES (?, ?, ?, ?)"
		_, err := s.db.Exec(query, r.ParagraphID, r.StepKey, r.Pass, r.MarkedAt)
		if err != nil {
			return fmt.Errorf("failed to import result %s/%s: %w", r.ParagraphID, r.StepKey, err)
		}
	}
	return nil
}

func (s *BackupService) importState(entries []StateBackup) error {
	log.Printf("Importing %d state entries...", len(entries))
	for _, st := range entries {
		query := "INSERT INTO app_state (name, value) VALUES (?, ?)"
		_, err := s.db.Exec(query, st.Name, st.Value)
		if err != nil {
			return fmt.Errorf("failed to import state %s: %w", st.Name, err)
		}
	}
	return nil
}
