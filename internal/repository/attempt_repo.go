package repository

import (
	"database/sql"
	"time"

	"memtrainer/internal/database"
	"memtrainer/internal/models"
)

// AttemptRepository handles recorded attempt storage. Attempts are keyed by
// (paragraph_id, chunk_index); at most one per key carries is_reference,
// which SetReference maintains transactionally.
type AttemptRepository struct {
	db *database.DB
}

// NewAttemptRepository creates a new attempt repository
func NewAttemptRepository(db *database.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

const attemptColumns = "id, paragraph_id, chunk_index, audio, mime_type, duration_seconds, created_at, is_reference"

// Insert appends a new attempt and returns its id. Reference uniqueness is
// not enforced here; callers must not insert a reference for a chunk that
// already has one without following up with SetReference.
func (r *AttemptRepository) Insert(paragraphID string, chunkIndex int, clip models.Clip, isReference bool) (int64, error) {
	query := `
		INSERT INTO attempts (paragraph_id, chunk_index, audio, mime_type, duration_seconds, created_at, is_reference)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	return r.db.ExecReturningID(query,
		paragraphID, chunkIndex, clip.Data, clip.MimeType, clip.DurationSeconds, time.Now(), isReference)
}

// GetByID retrieves one attempt, or nil when absent
func (r *AttemptRepository) GetByID(id int64) (*models.Attempt, error) {
	row := r.db.QueryRow("SELECT "+attemptColumns+" FROM attempts WHERE id = ?", id)
	return scanAttempt(row)
}

// ListByParagraph returns all attempts for a paragraph. Order is not part of
// the contract; callers group by chunk themselves.
func (r *AttemptRepository) ListByParagraph(paragraphID string) ([]models.Attempt, error) {
	return r.list("SELECT "+attemptColumns+" FROM attempts WHERE paragraph_id = ?", paragraphID)
}

// ListByChunk returns all attempts for one chunk of a paragraph
func (r *AttemptRepository) ListByChunk(paragraphID string, chunkIndex int) ([]models.Attempt, error) {
	return r.list(
		"SELECT "+attemptColumns+" FROM attempts WHERE paragraph_id = ? AND chunk_index = ?",
		paragraphID, chunkIndex,
	)
}

// Reference returns the reference attempt for a chunk, or nil when the chunk
// has none yet
func (r *AttemptRepository) Reference(paragraphID string, chunkIndex int) (*models.Attempt, error) {
	row := r.db.QueryRow(
		"SELECT "+attemptColumns+" FROM attempts WHERE paragraph_id = ? AND chunk_index = ? AND is_reference = ?",
		paragraphID, chunkIndex, true,
	)
	return scanAttempt(row)
}

// SetReference makes the attempt with the given id the sole reference among
// its chunk siblings. Runs as one transaction so a crash cannot leave the
// chunk with zero or two references. A no-op when no attempts match the
// chunk.
func (r *AttemptRepository) SetReference(paragraphID string, chunkIndex int, id int64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var count int
	err = tx.QueryRow(
		"SELECT COUNT(*) FROM attempts WHERE paragraph_id = ? AND chunk_index = ?",
		paragraphID, chunkIndex,
	).Scan(&count)
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}

	_, err = tx.Exec(
		"UPDATE attempts SET is_reference = ? WHERE paragraph_id = ? AND chunk_index = ?",
		false, paragraphID, chunkIndex,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(
		"UPDATE attempts SET is_reference = ? WHERE id = ? AND paragraph_id = ? AND chunk_index = ?",
		true, id, paragraphID, chunkIndex,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes one attempt unconditionally
func (r *AttemptRepository) Delete(id int64) error {
	_, err := r.db.Exec("DELETE FROM attempts WHERE id = ?", id)
	return err
}

// DeleteByParagraph removes all attempts for a paragraph, used when the
// paragraph itself is deleted
func (r *AttemptRepository) DeleteByParagraph(paragraphID string) error {
	_, err := r.db.Exec("DELETE FROM attempts WHERE paragraph_id = ?", paragraphID)
	return err
}

func (r *AttemptRepository) list(query string, args ...interface{}) ([]models.Attempt, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Attempt
	for rows.Next() {
		var a models.Attempt
		err := rows.Scan(
			&a.ID,
			&a.ParagraphID,
			&a.ChunkIndex,
			&a.Audio,
			&a.MimeType,
			&a.DurationSeconds,
			&a.CreatedAt,
			&a.IsReference,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}

	return out, rows.Err()
}

func scanAttempt(row *sql.Row) (*models.Attempt, error) {
	a := &models.Attempt{}
	err := row.Scan(
		&a.ID,
		&a.ParagraphID,
		&a.ChunkIndex,
		&a.Audio,
		&a.MimeType,
		&a.DurationSeconds,
		&a.CreatedAt,
		&a.IsReference,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}
