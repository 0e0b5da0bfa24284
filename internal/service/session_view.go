package service

import (
	"time"

	"memtrainer/internal/models"
)

// SessionView is an immutable snapshot of a session for rendering. It never
// exposes raw audio; clips are served through dedicated endpoints.
type SessionView struct {
	RunID       string
	ParagraphID string
	State       SessionState
	Mode        StepMode

	StepIndex  int
	StepCount  int
	Step       models.Step
	StepText   string
	Done       bool
	HasPending bool

	// comparison details, valid while State == StateComparing
	ReferenceIDs []int64
	CanPromote   bool

	CountdownSeconds int
	CountdownPaused  bool
}

// View captures the session's current state under the lock
func (s *RecitationSession) View(now time.Time) SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := SessionView{
		RunID:       s.runID,
		ParagraphID: s.paragraph.ParagraphID,
		State:       s.state,
		Mode:        s.mode,
		StepIndex:   s.stepIndex,
		StepCount:   len(s.steps),
		Done:        s.state == StateDone,
		HasPending:  s.pending != nil,
	}

	if s.stepIndex < len(s.steps) {
		v.Step = s.steps[s.stepIndex]
		v.StepText = StepText(s.paragraph.Chunks, v.Step)
	}

	if s.comparison != nil {
		for _, ref := range s.comparison.References {
			if ref != nil {
				v.ReferenceIDs = append(v.ReferenceIDs, ref.ID)
			}
		}
		v.CanPromote = !v.Step.IsPair()
	}

	if s.countdown != nil {
		v.CountdownSeconds = s.countdown.Remaining(now)
		v.CountdownPaused = s.countdown.Paused()
	}

	return v
}
