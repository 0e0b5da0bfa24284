package service

import (
	"fmt"
	"log"
	"sync"

	"memtrainer/internal/models"
	"memtrainer/internal/repository"
)

// ErrNoSession is returned when an action needs an active session and none
// is running.
var ErrNoSession = fmt.Errorf("no active training session")

// TrainingService owns the active recitation session. Only one session runs
// at a time: starting a new one replaces the old, and every handler reaches
// the session through here so replacement is race-free.
type TrainingService struct {
	mu      sync.Mutex
	session *RecitationSession

	attemptRepo *repository.AttemptRepository
	resultRepo  *repository.ResultRepository
	stateRepo   *repository.StateRepository
}

// NewTrainingService creates a new training service
func NewTrainingService(attemptRepo *repository.AttemptRepository, resultRepo *repository.ResultRepository, stateRepo *repository.StateRepository) *TrainingService {
	return &TrainingService{
		attemptRepo: attemptRepo,
		resultRepo:  resultRepo,
		stateRepo:   stateRepo,
	}
}

// Begin starts a fresh session over the paragraph, replacing any session
// already in progress. The chosen recall mode is remembered for next time.
func (t *TrainingService) Begin(p *models.Paragraph, mode models.RecallMode, memorizeSeconds int) *RecitationSession {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session != nil {
		log.Printf("Replacing training session %s", t.session.RunID())
	}
	if err := t.stateRepo.SetRecallMode(mode); err != nil {
		log.Printf("Failed to persist recall mode: %v", err)
	}

	s := NewRecitationSession(p, mode, memorizeSeconds, t.attemptRepo, t.resultRepo)
	s.Start()
	t.session = s
	return s
}

// RememberedMode returns the last recall mode the user trained with
func (t *TrainingService) RememberedMode() models.RecallMode {
	return t.stateRepo.RecallMode()
}

// Active returns the running session, or ErrNoSession
func (t *TrainingService) Active() (*RecitationSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		return nil, ErrNoSession
	}
	return t.session, nil
}

// ActiveFor returns the running session only when it matches the given run
// id, guarding against a browser tab driving a session that was replaced.
func (t *TrainingService) ActiveFor(runID string) (*RecitationSession, error) {
	s, err := t.Active()
	if err != nil {
		return nil, err
	}
	if s.RunID() != runID {
		return nil, fmt.Errorf("session %s is no longer active: %w", runID, ErrNoSession)
	}
	return s, nil
}

// End discards the active session, if any
func (t *TrainingService) End() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.session = nil
}
