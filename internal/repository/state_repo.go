package repository

import (
	"database/sql"
	"encoding/json"

	"memtrainer/internal/database"
	"memtrainer/internal/models"
)

// State keys. AppState is one JSON blob overwritten wholesale; the other two
// are small scalars that change independently of it.
const (
	stateKeyAppState      = "app_state"
	stateKeyRecallMode    = "recall_mode"
	stateKeyLastParagraph = "last_paragraph"
)

// AppState is the last-used home screen state: paragraph text, slider
// values and the chunk list derived from the last split.
type AppState struct {
	Paragraph    string   `json:"paragraph"`
	ChunkSize    int      `json:"chunk_size"`
	MemorizeTime int      `json:"memorize_time"`
	Chunks       []string `json:"chunks"`
	RecallMode   string   `json:"recall_mode"`
}

// StateRepository is a small key-value store for app-wide settings
type StateRepository struct {
	db *database.DB
}

// NewStateRepository creates a new state repository
func NewStateRepository(db *database.DB) *StateRepository {
	return &StateRepository{db: db}
}

// Get retrieves a raw value; empty string when the key is absent
func (r *StateRepository) Get(name string) (string, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM app_state WHERE name = ?", name).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// Set updates or inserts a raw value
func (r *StateRepository) Set(name, value string) error {
	_, err := r.db.Exec(r.db.Dialect.UpsertStateQuery(), name, value)
	return err
}

// AppState loads the saved home screen state, or nil when none exists
func (r *StateRepository) AppState() (*AppState, error) {
	raw, err := r.Get(stateKeyAppState)
	if err != nil || raw == "" {
		return nil, err
	}

	var st AppState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// SaveAppState overwrites the home screen state wholesale
func (r *StateRepository) SaveAppState(st *AppState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return r.Set(stateKeyAppState, string(raw))
}

// RecallMode returns the saved recall mode; normal when unset or unreadable
func (r *StateRepository) RecallMode() models.RecallMode {
	value, err := r.Get(stateKeyRecallMode)
	if err != nil {
		return models.RecallNormal
	}
	return models.ParseRecallMode(value)
}

// SetRecallMode persists the recall mode setting
func (r *StateRepository) SetRecallMode(mode models.RecallMode) error {
	return r.Set(stateKeyRecallMode, string(models.ParseRecallMode(string(mode))))
}

// LastParagraph returns the display id of the paragraph touched most
// recently by an upsert, or empty when none
func (r *StateRepository) LastParagraph() (string, error) {
	return r.Get(stateKeyLastParagraph)
}

// SetLastParagraph records the most recently touched paragraph
func (r *StateRepository) SetLastParagraph(displayID string) error {
	return r.Set(stateKeyLastParagraph, displayID)
}
