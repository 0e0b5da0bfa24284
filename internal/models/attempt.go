package models

import "time"

// Clip is a finished audio capture that has not been persisted yet.
// It is held in memory by the session until a save or promote decision.
type Clip struct {
	Data            []byte
	MimeType        string
	DurationSeconds float64
}

// Attempt is a persisted recording for one chunk of one paragraph.
// At most one attempt per (paragraph, chunk) carries IsReference.
type Attempt struct {
	ID              int64
	ParagraphID     string
	ChunkIndex      int
	Audio           []byte
	MimeType        string
	DurationSeconds float64
	CreatedAt       time.Time
	IsReference     bool
}
