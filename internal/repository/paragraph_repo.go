package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"memtrainer/internal/database"
	"memtrainer/internal/models"
)

// ParagraphRepository handles paragraph storage. Identity for training data
// is the content-hash paragraph_id; display_id exists only so the UI list
// can address records independently of their text.
type ParagraphRepository struct {
	db *database.DB
}

// NewParagraphRepository creates a new paragraph repository
func NewParagraphRepository(db *database.DB) *ParagraphRepository {
	return &ParagraphRepository{db: db}
}

// GetByParagraphID retrieves a paragraph by its content-hash id
func (r *ParagraphRepository) GetByParagraphID(paragraphID string) (*models.Paragraph, error) {
	return r.getWhere("paragraph_id", paragraphID)
}

// GetByDisplayID retrieves a paragraph by its display id
func (r *ParagraphRepository) GetByDisplayID(displayID string) (*models.Paragraph, error) {
	return r.getWhere("display_id", displayID)
}

func (r *ParagraphRepository) getWhere(column, value string) (*models.Paragraph, error) {
	query := `
		SELECT id, paragraph_id, display_id, name, text, chunks, last_modified
		FROM paragraphs
		WHERE ` + column + ` = ?
	`

	p := &models.Paragraph{}
	var chunksJSON string

	err := r.db.QueryRow(query, value).Scan(
		&p.ID,
		&p.ParagraphID,
		&p.DisplayID,
		&p.Name,
		&p.Text,
		&chunksJSON,
		&p.LastModified,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(chunksJSON), &p.Chunks); err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a new paragraph record
func (r *ParagraphRepository) Create(p *models.Paragraph) error {
	chunksJSON, err := json.Marshal(p.Chunks)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO paragraphs (paragraph_id, display_id, name, text, chunks, last_modified)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	id, err := r.db.ExecReturningID(query, p.ParagraphID, p.DisplayID, p.Name, p.Text, string(chunksJSON), p.LastModified)
	if err != nil {
		return err
	}

	p.ID = id
	return nil
}

// Update overwrites text, chunks, name and timestamp of an existing record
func (r *ParagraphRepository) Update(p *models.Paragraph) error {
	chunksJSON, err := json.Marshal(p.Chunks)
	if err != nil {
		return err
	}

	query := `
		UPDATE paragraphs
		SET name = ?, text = ?, chunks = ?, last_modified = ?
		WHERE paragraph_id = ?
	`

	_, err = r.db.Exec(query, p.Name, p.Text, string(chunksJSON), p.LastModified, p.ParagraphID)
	return err
}

// List returns all paragraphs in insertion order
func (r *ParagraphRepository) List() ([]models.Paragraph, error) {
	query := `
		SELECT id, paragraph_id, display_id, name, text, chunks, last_modified
		FROM paragraphs
		ORDER BY id ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Paragraph
	for rows.Next() {
		var p models.Paragraph
		var chunksJSON string

		err := rows.Scan(
			&p.ID,
			&p.ParagraphID,
			&p.DisplayID,
			&p.Name,
			&p.Text,
			&chunksJSON,
			&p.LastModified,
		)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal([]byte(chunksJSON), &p.Chunks); err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	return out, rows.Err()
}

// Count returns the number of stored paragraphs
func (r *ParagraphRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM paragraphs").Scan(&count)
	return count, err
}

// Rename updates a paragraph's name; a no-op when the display id is absent
func (r *ParagraphRepository) Rename(displayID, newName string) error {
	_, err := r.db.Exec(
		"UPDATE paragraphs SET name = ?, last_modified = ? WHERE display_id = ?",
		newName, time.Now(), displayID,
	)
	return err
}

// Delete removes a paragraph by display id; a no-op when absent
func (r *ParagraphRepository) Delete(displayID string) error {
	_, err := r.db.Exec("DELETE FROM paragraphs WHERE display_id = ?", displayID)
	return err
}
