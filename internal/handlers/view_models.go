package handlers

import (
	"time"

	"memtrainer/internal/service"
)

type HomeViewData struct {
	Title           string
	Paragraph       string
	ChunkSize       int
	MemorizeTime    int
	Chunks          []string
	RecallMode      string
	SavedParagraphs []SavedParagraphView
}

type SavedParagraphView struct {
	DisplayID    string
	Name         string
	Preview      string
	LastModified time.Time
}

// StepProgressView is one dot in the training progress strip
type StepProgressView struct {
	Key     string
	Label   string
	Current bool
	Graded  bool
	Pass    bool
}

type TrainingViewData struct {
	Title         string
	ParagraphName string
	DisplayID     string
	Session       service.SessionView
	Progress      []StepProgressView
}

// AttemptView is one row in the saved attempts panel
type AttemptView struct {
	ID              int64
	ChunkIndex      int
	ChunkText       string
	MimeType        string
	DurationSeconds float64
	CreatedAt       time.Time
	IsReference     bool
}

type AttemptsViewData struct {
	Title         string
	ParagraphName string
	DisplayID     string
	Attempts      []AttemptView
}
