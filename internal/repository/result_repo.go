package repository

import (
	"time"

	"memtrainer/internal/database"
	"memtrainer/internal/models"
)

// ResultRepository persists manual pass/fail grades, one row per
// (paragraph, step key), overwritten on re-grading.
type ResultRepository struct {
	db *database.DB
}

// NewResultRepository creates a new result repository
func NewResultRepository(db *database.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// Save records a grade for one step, replacing any previous grade
func (r *ResultRepository) Save(paragraphID, stepKey string, pass bool) error {
	query := r.db.Dialect.UpsertResultQuery()
	_, err := r.db.Exec(query, paragraphID, stepKey, pass, time.Now())
	return err
}

// For returns all grades for a paragraph keyed by step key
func (r *ResultRepository) For(paragraphID string) (map[string]models.CheckResult, error) {
	query := `
		SELECT paragraph_id, step_key, pass, marked_at
		FROM check_results
		WHERE paragraph_id = ?
	`

	rows, err := r.db.Query(query, paragraphID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]models.CheckResult)
	for rows.Next() {
		var cr models.CheckResult
		if err := rows.Scan(&cr.ParagraphID, &cr.StepKey, &cr.Pass, &cr.MarkedAt); err != nil {
			return nil, err
		}
		out[cr.StepKey] = cr
	}

	return out, rows.Err()
}

// DeleteFor removes all grades for a paragraph
func (r *ResultRepository) DeleteFor(paragraphID string) error {
	_, err := r.db.Exec("DELETE FROM check_results WHERE paragraph_id = ?", paragraphID)
	return err
}
