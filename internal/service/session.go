package service

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"memtrainer/internal/models"
)

// AttemptStore is the persistence surface the session needs for recordings
type AttemptStore interface {
	Insert(paragraphID string, chunkIndex int, clip models.Clip, isReference bool) (int64, error)
	Reference(paragraphID string, chunkIndex int) (*models.Attempt, error)
	SetReference(paragraphID string, chunkIndex int, id int64) error
	Delete(id int64) error
}

// ResultLedger records manual pass/fail grades per step
type ResultLedger interface {
	Save(paragraphID, stepKey string, pass bool) error
}

// SessionState enumerates the recitation state machine
type SessionState string

const (
	StateIdle              SessionState = "idle"
	StateAwaitingRecording SessionState = "awaiting_recording"
	StateRecording         SessionState = "recording"
	StateReadyToSave       SessionState = "ready_to_save"
	StateComparing         SessionState = "comparing"
	StateDone              SessionState = "done"
)

// StepMode says whether the current step tests recall or teaches the text
type StepMode string

const (
	ModeStudy StepMode = "study"
	ModeTest  StepMode = "test"
)

// SaveOutcome reports what a save decision did with the captured clip
type SaveOutcome int

const (
	// SavedReference means the clip became the chunk's durable reference
	SavedReference SaveOutcome = iota
	// EnteredComparison means the clip is held transiently for grading
	EnteredComparison
	// RecordedOnly means a study-mode pair step recorded without comparison
	RecordedOnly
)

// ErrInvalidState is returned when an action is not legal in the session's
// current state, e.g. saving before a recording finished.
var ErrInvalidState = errors.New("action not valid in current session state")

// Comparison holds one transient attempt next to the stored reference(s) it
// is being graded against. References line up with the step's chunk indices;
// an entry may be nil when reference data has gone missing, in which case
// grading proceeds with what is available.
type Comparison struct {
	References []*models.Attempt
	Clip       models.Clip
}

// RecitationSession drives one training run over a paragraph, one step at a
// time. It owns its transient capture buffer and re-reads reference state
// from the attempt store at every decision point, so rapid UI actions never
// act on stale mode information. All entry points are mutex-guarded; the
// browser's button-disabling is convenience, not a safety mechanism.
type RecitationSession struct {
	mu sync.Mutex

	runID     string
	paragraph *models.Paragraph
	steps     []models.Step

	stepIndex    int
	state        SessionState
	mode         StepMode
	pending      *models.Clip
	comparison   *Comparison
	stepComplete bool

	// once every chunk has a reference the rest of the run is test mode
	allReferenced bool

	memorizeSeconds int
	countdown       *Countdown

	attempts AttemptStore
	results  ResultLedger
}

// NewRecitationSession builds a session for one paragraph and recall mode.
// Call Start to enter the first step.
func NewRecitationSession(p *models.Paragraph, mode models.RecallMode, memorizeSeconds int, attempts AttemptStore, results ResultLedger) *RecitationSession {
	return &RecitationSession{
		runID:           uuid.New().String(),
		paragraph:       p,
		steps:           BuildSteps(p.Chunks, mode),
		state:           StateIdle,
		memorizeSeconds: memorizeSeconds,
		attempts:        attempts,
		results:         results,
	}
}

// RunID identifies this training run
func (s *RecitationSession) RunID() string { return s.runID }

// Paragraph returns the paragraph under training
func (s *RecitationSession) Paragraph() *models.Paragraph { return s.paragraph }

// Steps returns the planned step sequence
func (s *RecitationSession) Steps() []models.Step { return s.steps }

// Start enters the first step
func (s *RecitationSession) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enterStep()
}

// enterStep resets transient state and evaluates the new step's mode.
// Caller holds the mutex.
func (s *RecitationSession) enterStep() {
	s.pending = nil
	s.comparison = nil
	s.stepComplete = false
	s.countdown = nil

	if s.stepIndex >= len(s.steps) {
		s.state = StateDone
		return
	}

	step := s.steps[s.stepIndex]
	s.mode = s.evalMode(step)
	if s.mode == ModeTest {
		s.countdown = NewCountdown(s.memorizeSeconds, time.Now())
	}
	s.state = StateAwaitingRecording
}

// evalMode decides study vs test for a step. A single-chunk step tests when
// its chunk has a reference; a pair step only when both chunks do. Lookup
// failures fall back to study, which just shows the text.
func (s *RecitationSession) evalMode(step models.Step) StepMode {
	if s.allReferenced {
		return ModeTest
	}
	for _, idx := range step.ChunkIndices {
		ref, err := s.attempts.Reference(s.paragraph.ParagraphID, idx)
		if err != nil {
			log.Printf("Reference lookup failed for chunk %d: %v", idx, err)
			return ModeStudy
		}
		if ref == nil {
			return ModeStudy
		}
	}
	return ModeTest
}

// BeginRecording moves into the recording state. Any running countdown is
// discarded: recording takes precedence over the memorize timer. Legal from
// AwaitingRecording, and from ReadyToSave to re-record an unsaved take.
func (s *RecitationSession) BeginRecording() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateAwaitingRecording, StateReadyToSave:
	default:
		return fmt.Errorf("begin recording in %s: %w", s.state, ErrInvalidState)
	}

	s.countdown = nil
	s.pending = nil
	s.state = StateRecording
	return nil
}

// FinishRecording accepts the finished capture and holds it, unsaved
func (s *RecitationSession) FinishRecording(clip models.Clip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRecording {
		return fmt.Errorf("finish recording in %s: %w", s.state, ErrInvalidState)
	}

	s.pending = &clip
	s.state = StateReadyToSave
	return nil
}

// AbortRecording returns to AwaitingRecording after a capture failure so the
// user can retry. A no-op outside the recording state.
func (s *RecitationSession) AbortRecording() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRecording {
		s.state = StateAwaitingRecording
	}
}

// Save decides what the captured clip becomes. The reference check happens
// here, at save time, not at step entry: a reference created moments earlier
// must be honored.
//
//   - single step, chunk has no reference: the clip is persisted as the
//     chunk's reference and the step completes;
//   - single step, reference exists: the clip is NOT persisted; the session
//     enters comparison against the stored reference;
//   - pair step: a combined reference is never created; in test mode the
//     session enters comparison against both chunk references, in study mode
//     the take simply completes the step.
func (s *RecitationSession) Save() (SaveOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReadyToSave || s.pending == nil {
		return 0, fmt.Errorf("save in %s: %w", s.state, ErrInvalidState)
	}

	step := s.steps[s.stepIndex]
	clip := *s.pending

	if step.IsPair() {
		refs, allPresent := s.loadReferences(step)
		if allPresent {
			s.comparison = &Comparison{References: refs, Clip: clip}
			s.mode = ModeTest
			s.state = StateComparing
			return EnteredComparison, nil
		}
		s.mode = ModeStudy
		s.stepComplete = true
		s.state = StateIdle
		return RecordedOnly, nil
	}

	chunk := step.ChunkIndices[0]
	ref, err := s.attempts.Reference(s.paragraph.ParagraphID, chunk)
	if err != nil {
		// state unchanged; the user can hit save again
		return 0, fmt.Errorf("reference lookup: %w", err)
	}

	if ref == nil {
		if _, err := s.attempts.Insert(s.paragraph.ParagraphID, chunk, clip, true); err != nil {
			return 0, fmt.Errorf("save reference: %w", err)
		}
		s.stepComplete = true
		s.state = StateIdle
		s.refreshAllReferenced()
		return SavedReference, nil
	}

	s.comparison = &Comparison{References: []*models.Attempt{ref}, Clip: clip}
	s.state = StateComparing
	return EnteredComparison, nil
}

// loadReferences fetches each chunk's reference for a step, best effort.
// allPresent is true only when every chunk has one.
func (s *RecitationSession) loadReferences(step models.Step) (refs []*models.Attempt, allPresent bool) {
	refs = make([]*models.Attempt, len(step.ChunkIndices))
	allPresent = true
	for i, idx := range step.ChunkIndices {
		ref, err := s.attempts.Reference(s.paragraph.ParagraphID, idx)
		if err != nil {
			log.Printf("Reference lookup failed for chunk %d: %v", idx, err)
			allPresent = false
			continue
		}
		if ref == nil {
			allPresent = false
		}
		refs[i] = ref
	}
	return refs, allPresent
}

// refreshAllReferenced flips the session into all-test mode once every chunk
// holds a reference. Called after a reference save so completing the last
// missing reference affects the remainder of this run, not just the next
// lookup. Caller holds the mutex.
func (s *RecitationSession) refreshAllReferenced() {
	if s.allReferenced {
		return
	}
	for i := range s.paragraph.Chunks {
		ref, err := s.attempts.Reference(s.paragraph.ParagraphID, i)
		if err != nil || ref == nil {
			return
		}
	}
	s.allReferenced = true
}

// MarkCorrect grades the comparison as a pass and advances. A failed grade
// write is logged but never blocks progress.
func (s *RecitationSession) MarkCorrect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateComparing {
		return fmt.Errorf("mark correct in %s: %w", s.state, ErrInvalidState)
	}

	step := s.steps[s.stepIndex]
	if err := s.results.Save(s.paragraph.ParagraphID, step.Key, true); err != nil {
		log.Printf("Failed to record pass for %s: %v", step.Key, err)
	}

	s.stepIndex++
	s.enterStep()
	return nil
}

// MarkIncorrect grades the comparison as a fail and restarts the same step
func (s *RecitationSession) MarkIncorrect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateComparing {
		return fmt.Errorf("mark incorrect in %s: %w", s.state, ErrInvalidState)
	}

	step := s.steps[s.stepIndex]
	if err := s.results.Save(s.paragraph.ParagraphID, step.Key, false); err != nil {
		log.Printf("Failed to record fail for %s: %v", step.Key, err)
	}

	s.enterStep()
	return nil
}

// Promote makes the compared attempt the chunk's new reference, demoting the
// previous one. Single-chunk steps only; pair steps never gain a combined
// reference. The clip is inserted unflagged and SetReference flips it to the
// sole reference in one transaction, so the uniqueness invariant holds even
// if the process dies between the two calls. No check result is written.
func (s *RecitationSession) Promote() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateComparing || s.comparison == nil {
		return fmt.Errorf("promote in %s: %w", s.state, ErrInvalidState)
	}

	step := s.steps[s.stepIndex]
	if step.IsPair() {
		return fmt.Errorf("promote on pair step %s: %w", step.Key, ErrInvalidState)
	}

	chunk := step.ChunkIndices[0]
	id, err := s.attempts.Insert(s.paragraph.ParagraphID, chunk, s.comparison.Clip, false)
	if err != nil {
		return fmt.Errorf("store promoted attempt: %w", err)
	}
	if err := s.attempts.SetReference(s.paragraph.ParagraphID, chunk, id); err != nil {
		return fmt.Errorf("set reference: %w", err)
	}

	// refresh the comparison so the view shows the new reference
	if ref, err := s.attempts.Reference(s.paragraph.ParagraphID, chunk); err == nil && ref != nil {
		s.comparison.References[0] = ref
	}
	return nil
}

// Next advances to the following step. Legal after a comparison or after a
// completed save.
func (s *RecitationSession) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateComparing && !(s.state == StateIdle && s.stepComplete) {
		return fmt.Errorf("next in %s: %w", s.state, ErrInvalidState)
	}

	s.stepIndex++
	s.enterStep()
	return nil
}

// LearnAgain restarts the current step from scratch
func (s *RecitationSession) LearnAgain() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDone {
		return fmt.Errorf("learn again in %s: %w", s.state, ErrInvalidState)
	}

	s.enterStep()
	return nil
}

// PauseCountdown freezes the memorize timer if one is running
func (s *RecitationSession) PauseCountdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.countdown != nil {
		s.countdown.Pause(time.Now())
	}
}

// ResumeCountdown resumes a paused memorize timer
func (s *RecitationSession) ResumeCountdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.countdown != nil {
		s.countdown.Resume(time.Now())
	}
}

// CurrentClip returns the clip a comparison or pending save holds, for
// playback of the not-yet-persisted take
func (s *RecitationSession) CurrentClip() (models.Clip, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.comparison != nil {
		return s.comparison.Clip, true
	}
	if s.pending != nil {
		return *s.pending, true
	}
	return models.Clip{}, false
}
