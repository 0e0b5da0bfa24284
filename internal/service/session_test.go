package service

import (
	"fmt"
	"testing"
	"time"

	"memtrainer/internal/models"
)

type storedAttempt struct {
	id          int64
	chunkIndex  int
	clip        models.Clip
	isReference bool
}

// fakeAttempts is an in-memory AttemptStore
type fakeAttempts struct {
	nextID   int64
	attempts map[int64]*storedAttempt
	byChunk  map[int][]int64
	failNext bool
}

func newFakeAttempts() *fakeAttempts {
	return &fakeAttempts{
		nextID:   1,
		attempts: make(map[int64]*storedAttempt),
		byChunk:  make(map[int][]int64),
	}
}

func (f *fakeAttempts) Insert(paragraphID string, chunkIndex int, clip models.Clip, isReference bool) (int64, error) {
	if f.failNext {
		f.failNext = false
		return 0, fmt.Errorf("store unavailable")
	}
	id := f.nextID
	f.nextID++
	if isReference {
		for _, existing := range f.byChunk[chunkIndex] {
			f.attempts[existing].isReference = false
		}
	}
	f.attempts[id] = &storedAttempt{id: id, chunkIndex: chunkIndex, clip: clip, isReference: isReference}
	f.byChunk[chunkIndex] = append(f.byChunk[chunkIndex], id)
	return id, nil
}

func (f *fakeAttempts) Reference(paragraphID string, chunkIndex int) (*models.Attempt, error) {
	for _, id := range f.byChunk[chunkIndex] {
		a := f.attempts[id]
		if a.isReference {
			return &models.Attempt{ID: a.id, ChunkIndex: a.chunkIndex, Audio: a.clip.Data, MimeType: a.clip.MimeType, IsReference: true}, nil
		}
	}
	return nil, nil
}

func (f *fakeAttempts) SetReference(paragraphID string, chunkIndex int, id int64) error {
	target, ok := f.attempts[id]
	if !ok || target.chunkIndex != chunkIndex {
		return nil
	}
	for _, other := range f.byChunk[chunkIndex] {
		f.attempts[other].isReference = false
	}
	target.isReference = true
	return nil
}

func (f *fakeAttempts) Delete(id int64) error {
	a, ok := f.attempts[id]
	if !ok {
		return nil
	}
	delete(f.attempts, id)
	ids := f.byChunk[a.chunkIndex]
	for i, v := range ids {
		if v == id {
			f.byChunk[a.chunkIndex] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// referenceCount reports how many attempts for a chunk carry the flag
func (f *fakeAttempts) referenceCount(chunkIndex int) int {
	n := 0
	for _, id := range f.byChunk[chunkIndex] {
		if f.attempts[id].isReference {
			n++
		}
	}
	return n
}

type gradedResult struct {
	stepKey string
	pass    bool
}

type fakeResults struct {
	saved []gradedResult
}

func (f *fakeResults) Save(paragraphID, stepKey string, pass bool) error {
	f.saved = append(f.saved, gradedResult{stepKey: stepKey, pass: pass})
	return nil
}

func testParagraph(chunks ...string) *models.Paragraph {
	return &models.Paragraph{
		ID:          1,
		ParagraphID: "abc123",
		DisplayID:   "d-abc",
		Name:        "Paragraph 1",
		Chunks:      chunks,
	}
}

func clip(tag string) models.Clip {
	return models.Clip{Data: []byte(tag), MimeType: "audio/webm", DurationSeconds: 1.5}
}

func recordAndFinish(t *testing.T, s *RecitationSession, tag string) {
	t.Helper()
	if err := s.BeginRecording(); err != nil {
		t.Fatalf("BeginRecording: %v", err)
	}
	if err := s.FinishRecording(clip(tag)); err != nil {
		t.Fatalf("FinishRecording: %v", err)
	}
}

func TestSessionFirstSaveBecomesReference(t *testing.T) {
	attempts := newFakeAttempts()
	results := &fakeResults{}
	s := NewRecitationSession(testParagraph("one", "two"), models.RecallNormal, 0, attempts, results)
	s.Start()

	recordAndFinish(t, s, "take1")
	outcome, err := s.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if outcome != SavedReference {
		t.Errorf("outcome = %v, want SavedReference", outcome)
	}
	ref, _ := attempts.Reference("abc123", 0)
	if ref == nil {
		t.Fatal("no reference stored for chunk 0")
	}
	if string(ref.Audio) != "take1" {
		t.Errorf("reference audio = %q, want %q", ref.Audio, "take1")
	}
}

func TestSessionSecondSaveEntersComparisonWithoutPersisting(t *testing.T) {
	attempts := newFakeAttempts()
	results := &fakeResults{}
	attempts.Insert("abc123", 0, clip("ref"), true)

	s := NewRecitationSession(testParagraph("one", "two"), models.RecallNormal, 0, attempts, results)
	s.Start()

	if v := s.View(time.Now()); v.Mode != ModeTest {
		t.Errorf("mode = %v, want test once chunk has a reference", v.Mode)
	}

	recordAndFinish(t, s, "take2")
	outcome, err := s.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if outcome != EnteredComparison {
		t.Errorf("outcome = %v, want EnteredComparison", outcome)
	}
	if len(attempts.attempts) != 1 {
		t.Errorf("stored attempts = %d, want 1 (comparison takes are transient)", len(attempts.attempts))
	}
	if got, ok := s.CurrentClip(); !ok || string(got.Data) != "take2" {
		t.Errorf("CurrentClip = %q, %v; want take2", got.Data, ok)
	}
}

func TestSessionSaveChecksReferenceAtSaveTime(t *testing.T) {
	attempts := newFakeAttempts()
	results := &fakeResults{}
	s := NewRecitationSession(testParagraph("one"), models.RecallNormal, 0, attempts, results)
	s.Start()

	if v := s.View(time.Now()); v.Mode != ModeStudy {
		t.Fatalf("mode = %v, want study with no reference", v.Mode)
	}

	// a reference appears after the step was entered but before save
	attempts.Insert("abc123", 0, clip("ref"), true)

	recordAndFinish(t, s, "take")
	outcome, err := s.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if outcome != EnteredComparison {
		t.Errorf("outcome = %v, want EnteredComparison when a reference exists at save time", outcome)
	}
	if attempts.referenceCount(0) != 1 {
		t.Errorf("reference count = %d, want 1", attempts.referenceCount(0))
	}
}

func TestSessionPairStepNeverCreatesReference(t *testing.T) {
	attempts := newFakeAttempts()
	results := &fakeResults{}
	p := testParagraph("one", "two")
	s := NewRecitationSession(p, models.RecallPairs, 0, attempts, results)
	s.Start()

	// complete both single steps, creating references
	for i := 0; i < 2; i++ {
		recordAndFinish(t, s, fmt.Sprintf("ref%d", i))
		if _, err := s.Save(); err != nil {
			t.Fatalf("Save step %d: %v", i, err)
		}
		if err := s.Next(); err != nil {
			t.Fatalf("Next step %d: %v", i, err)
		}
	}

	v := s.View(time.Now())
	if !v.Step.IsPair() {
		t.Fatalf("step %q, want pair step", v.Step.Key)
	}
	if v.Mode != ModeTest {
		t.Errorf("pair mode = %v, want test when both chunks have references", v.Mode)
	}

	recordAndFinish(t, s, "pairtake")
	outcome, err := s.Save()
	if err != nil {
		t.Fatalf("Save pair: %v", err)
	}
	if outcome != EnteredComparison {
		t.Errorf("outcome = %v, want EnteredComparison", outcome)
	}
	if len(attempts.attempts) != 2 {
		t.Errorf("stored attempts = %d, want 2 (no combined reference)", len(attempts.attempts))
	}
	// both constituent references must be exposed for playback
	if v := s.View(time.Now()); len(v.ReferenceIDs) != 2 {
		t.Errorf("comparison exposes %d references, want both chunks'", len(v.ReferenceIDs))
	}
	if err := s.Promote(); err == nil {
		t.Error("Promote on pair step succeeded, want error")
	}
}

func TestSessionPairStepStudyModeRecordsOnly(t *testing.T) {
	attempts := newFakeAttempts()
	results := &fakeResults{}
	attempts.Insert("abc123", 0, clip("ref0"), true)

	p := testParagraph("one", "two")
	s := NewRecitationSession(p, models.RecallPairs, 0, attempts, results)
	s.steps = s.steps[2:3] // jump to the pair step; chunk 1 has no reference
	s.Start()

	if v := s.View(time.Now()); v.Mode != ModeStudy {
		t.Fatalf("pair mode = %v, want study when a chunk lacks a reference", v.Mode)
	}

	recordAndFinish(t, s, "take")
	outcome, err := s.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if outcome != RecordedOnly {
		t.Errorf("outcome = %v, want RecordedOnly", outcome)
	}
	if len(attempts.attempts) != 1 {
		t.Errorf("stored attempts = %d, want 1 (study pair takes are not persisted)", len(attempts.attempts))
	}
}

func TestSessionPromoteKeepsSingleReference(t *testing.T) {
	attempts := newFakeAttempts()
	results := &fakeResults{}
	attempts.Insert("abc123", 0, clip("old"), true)

	s := NewRecitationSession(testParagraph("one"), models.RecallNormal, 0, attempts, results)
	s.Start()

	recordAndFinish(t, s, "better")
	if _, err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Promote(); err != nil {
		t.Fatalf("Promote: %v", err)
	}

	if n := attempts.referenceCount(0); n != 1 {
		t.Fatalf("reference count = %d, want exactly 1 after promotion", n)
	}
	ref, _ := attempts.Reference("abc123", 0)
	if string(ref.Audio) != "better" {
		t.Errorf("reference audio = %q, want %q", ref.Audio, "better")
	}
	if len(attempts.attempts) != 2 {
		t.Errorf("stored attempts = %d, want 2 (old reference demoted, not deleted)", len(attempts.attempts))
	}
	if v := s.View(time.Now()); v.State != StateComparing {
		t.Errorf("state after promote = %v, want comparing", v.State)
	}
}

func TestSessionMarkCorrectAdvancesMarkIncorrectRepeats(t *testing.T) {
	attempts := newFakeAttempts()
	results := &fakeResults{}
	attempts.Insert("abc123", 0, clip("ref0"), true)
	attempts.Insert("abc123", 1, clip("ref1"), true)

	s := NewRecitationSession(testParagraph("one", "two"), models.RecallNormal, 0, attempts, results)
	s.Start()

	recordAndFinish(t, s, "take")
	if _, err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.MarkIncorrect(); err != nil {
		t.Fatalf("MarkIncorrect: %v", err)
	}
	if v := s.View(time.Now()); v.StepIndex != 0 || v.State != StateAwaitingRecording {
		t.Errorf("after incorrect: step %d state %v, want step 0 awaiting_recording", v.StepIndex, v.State)
	}

	recordAndFinish(t, s, "take2")
	if _, err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.MarkCorrect(); err != nil {
		t.Fatalf("MarkCorrect: %v", err)
	}
	if v := s.View(time.Now()); v.StepIndex != 1 {
		t.Errorf("after correct: step %d, want 1", v.StepIndex)
	}

	want := []gradedResult{{stepKey: "c:0", pass: false}, {stepKey: "c:0", pass: true}}
	if len(results.saved) != len(want) {
		t.Fatalf("saved results = %v, want %v", results.saved, want)
	}
	for i := range want {
		if results.saved[i] != want[i] {
			t.Errorf("result[%d] = %v, want %v", i, results.saved[i], want[i])
		}
	}
}

func TestSessionAllReferencedForcesTestMode(t *testing.T) {
	attempts := newFakeAttempts()
	results := &fakeResults{}
	attempts.Insert("abc123", 1, clip("ref1"), true)

	s := NewRecitationSession(testParagraph("one", "two"), models.RecallNormal, 0, attempts, results)
	s.Start()

	// saving chunk 0's reference completes the set
	recordAndFinish(t, s, "ref0")
	if _, err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !s.allReferenced {
		t.Error("allReferenced = false after every chunk gained a reference")
	}
	if got := s.evalMode(models.Step{Key: "c:1", ChunkIndices: []int{1}}); got != ModeTest {
		t.Errorf("evalMode = %v, want test once all chunks are referenced", got)
	}
}

func TestSessionInvalidStateTransitions(t *testing.T) {
	attempts := newFakeAttempts()
	results := &fakeResults{}
	s := NewRecitationSession(testParagraph("one"), models.RecallNormal, 0, attempts, results)
	s.Start()

	if _, err := s.Save(); err == nil {
		t.Error("Save before recording succeeded, want error")
	}
	if err := s.FinishRecording(clip("x")); err == nil {
		t.Error("FinishRecording before BeginRecording succeeded, want error")
	}
	if err := s.MarkCorrect(); err == nil {
		t.Error("MarkCorrect outside comparison succeeded, want error")
	}
	if err := s.Promote(); err == nil {
		t.Error("Promote outside comparison succeeded, want error")
	}
	if err := s.Next(); err == nil {
		t.Error("Next before completing the step succeeded, want error")
	}
}

func TestSessionRunsToDone(t *testing.T) {
	attempts := newFakeAttempts()
	results := &fakeResults{}
	s := NewRecitationSession(testParagraph("one", "two"), models.RecallNormal, 0, attempts, results)
	s.Start()

	for i := 0; i < 2; i++ {
		recordAndFinish(t, s, fmt.Sprintf("ref%d", i))
		if _, err := s.Save(); err != nil {
			t.Fatalf("Save step %d: %v", i, err)
		}
		if err := s.Next(); err != nil {
			t.Fatalf("Next step %d: %v", i, err)
		}
	}

	v := s.View(time.Now())
	if !v.Done || v.State != StateDone {
		t.Errorf("state = %v done = %v, want done", v.State, v.Done)
	}
	if err := s.BeginRecording(); err == nil {
		t.Error("BeginRecording after done succeeded, want error")
	}
}

func TestSessionReRecordDiscardsUnsavedTake(t *testing.T) {
	attempts := newFakeAttempts()
	results := &fakeResults{}
	s := NewRecitationSession(testParagraph("one"), models.RecallNormal, 0, attempts, results)
	s.Start()

	recordAndFinish(t, s, "first")
	recordAndFinish(t, s, "second")
	if _, err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	ref, _ := attempts.Reference("abc123", 0)
	if string(ref.Audio) != "second" {
		t.Errorf("reference audio = %q, want the re-recorded take", ref.Audio)
	}
}
