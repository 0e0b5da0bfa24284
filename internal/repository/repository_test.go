package repository

import (
	"path/filepath"
	"testing"
	"time"

	"memtrainer/internal/database"
	"memtrainer/internal/models"
)

// setupTestDB opens a throwaway SQLite database with the real migrations
func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.InitializeSQLite(dbPath)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func createTestParagraph(t *testing.T, repo *ParagraphRepository, paragraphID, displayID string) *models.Paragraph {
	t.Helper()
	p := &models.Paragraph{
		ParagraphID:  paragraphID,
		DisplayID:    displayID,
		Name:         "Paragraph 1",
		Text:         "To be or not to be. That is the question.",
		Chunks:       []string{"To be or not to be.", "That is the question."},
		LastModified: time.Now(),
	}
	if err := repo.Create(p); err != nil {
		t.Fatalf("Failed to create paragraph: %v", err)
	}
	return p
}

func TestParagraphRepositoryRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewParagraphRepository(db)

	created := createTestParagraph(t, repo, "abc123", "display-1")
	if created.ID == 0 {
		t.Error("Create did not assign an id")
	}

	got, err := repo.GetByParagraphID("abc123")
	if err != nil {
		t.Fatalf("GetByParagraphID: %v", err)
	}
	if got == nil {
		t.Fatal("paragraph not found by content id")
	}
	if got.DisplayID != "display-1" || len(got.Chunks) != 2 {
		t.Errorf("got display %q chunks %d, want display-1 with 2 chunks", got.DisplayID, len(got.Chunks))
	}

	missing, err := repo.GetByParagraphID("nope")
	if err != nil {
		t.Fatalf("GetByParagraphID missing: %v", err)
	}
	if missing != nil {
		t.Error("lookup of unknown id returned a paragraph")
	}
}

func TestParagraphRepositoryUpdateRenameDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewParagraphRepository(db)

	p := createTestParagraph(t, repo, "abc123", "display-1")

	p.Text = "New text entirely."
	p.Chunks = []string{"New text entirely."}
	if err := repo.Update(p); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := repo.GetByDisplayID("display-1")
	if got.Text != "New text entirely." || len(got.Chunks) != 1 {
		t.Errorf("update not persisted: %q / %d chunks", got.Text, len(got.Chunks))
	}

	if err := repo.Rename("display-1", "My Speech"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	got, _ = repo.GetByDisplayID("display-1")
	if got.Name != "My Speech" {
		t.Errorf("name = %q, want My Speech", got.Name)
	}

	if err := repo.Delete("display-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, _ = repo.GetByDisplayID("display-1")
	if got != nil {
		t.Error("paragraph still present after delete")
	}
}

func TestParagraphRepositoryListAndCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewParagraphRepository(db)

	createTestParagraph(t, repo, "aaa", "d-1")
	createTestParagraph(t, repo, "bbb", "d-2")

	list, err := repo.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List returned %d paragraphs, want 2", len(list))
	}
	if list[0].ParagraphID != "aaa" || list[1].ParagraphID != "bbb" {
		t.Errorf("List order = %s, %s; want creation order", list[0].ParagraphID, list[1].ParagraphID)
	}

	count, err := repo.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 2 {
		t.Errorf("Count = %d, want 2", count)
	}
}

func TestAttemptRepositoryReferenceLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttemptRepository(db)

	clip := models.Clip{Data: []byte("audio-bytes"), MimeType: "audio/webm", DurationSeconds: 2.5}

	id1, err := repo.Insert("abc123", 0, clip, true)
	if err != nil {
		t.Fatalf("Insert reference: %v", err)
	}

	ref, err := repo.Reference("abc123", 0)
	if err != nil {
		t.Fatalf("Reference: %v", err)
	}
	if ref == nil || ref.ID != id1 {
		t.Fatalf("Reference = %v, want attempt %d", ref, id1)
	}
	if string(ref.Audio) != "audio-bytes" || ref.MimeType != "audio/webm" {
		t.Errorf("reference clip = %q %q, want stored values", ref.Audio, ref.MimeType)
	}

	// promote a second attempt; the old reference must be demoted, not removed
	id2, err := repo.Insert("abc123", 0, clip, false)
	if err != nil {
		t.Fatalf("Insert attempt: %v", err)
	}
	if err := repo.SetReference("abc123", 0, id2); err != nil {
		t.Fatalf("SetReference: %v", err)
	}

	ref, _ = repo.Reference("abc123", 0)
	if ref == nil || ref.ID != id2 {
		t.Fatalf("reference after promotion = %v, want attempt %d", ref, id2)
	}

	all, err := repo.ListByChunk("abc123", 0)
	if err != nil {
		t.Fatalf("ListByChunk: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListByChunk returned %d attempts, want 2", len(all))
	}
	refCount := 0
	for _, a := range all {
		if a.IsReference {
			refCount++
		}
	}
	if refCount != 1 {
		t.Errorf("reference count = %d, want exactly 1", refCount)
	}

	// other chunks are untouched
	other, err := repo.Reference("abc123", 1)
	if err != nil {
		t.Fatalf("Reference chunk 1: %v", err)
	}
	if other != nil {
		t.Error("chunk 1 has a reference it never received")
	}
}

func TestAttemptRepositorySetReferenceUnknownParagraph(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttemptRepository(db)

	// no attempts exist; must be a clean no-op
	if err := repo.SetReference("missing", 0, 99); err != nil {
		t.Fatalf("SetReference on empty chunk: %v", err)
	}
}

func TestAttemptRepositoryDeleteByParagraph(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttemptRepository(db)

	clip := models.Clip{Data: []byte("x"), MimeType: "audio/webm"}
	repo.Insert("abc123", 0, clip, true)
	repo.Insert("abc123", 1, clip, true)
	repo.Insert("other", 0, clip, true)

	if err := repo.DeleteByParagraph("abc123"); err != nil {
		t.Fatalf("DeleteByParagraph: %v", err)
	}

	left, err := repo.ListByParagraph("abc123")
	if err != nil {
		t.Fatalf("ListByParagraph: %v", err)
	}
	if len(left) != 0 {
		t.Errorf("%d attempts remain after cascade delete, want 0", len(left))
	}
	kept, _ := repo.ListByParagraph("other")
	if len(kept) != 1 {
		t.Errorf("unrelated paragraph lost attempts: %d, want 1", len(kept))
	}
}

func TestResultRepositoryUpsert(t *testing.T) {
	db := setupTestDB(t)
	repo := NewResultRepository(db)

	if err := repo.Save("abc123", "c:0", false); err != nil {
		t.Fatalf("Save fail: %v", err)
	}
	// re-grading the same step overwrites the earlier verdict
	if err := repo.Save("abc123", "c:0", true); err != nil {
		t.Fatalf("Save pass: %v", err)
	}
	if err := repo.Save("abc123", "p:0+1", true); err != nil {
		t.Fatalf("Save pair: %v", err)
	}

	results, err := repo.For("abc123")
	if err != nil {
		t.Fatalf("For: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("For returned %d results, want 2", len(results))
	}
	if !results["c:0"].Pass {
		t.Error("c:0 = fail, want the later pass verdict")
	}
	if !results["p:0+1"].Pass {
		t.Error("p:0+1 = fail, want pass")
	}

	if err := repo.DeleteFor("abc123"); err != nil {
		t.Fatalf("DeleteFor: %v", err)
	}
	results, _ = repo.For("abc123")
	if len(results) != 0 {
		t.Errorf("%d results remain after DeleteFor, want 0", len(results))
	}
}

func TestStateRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStateRepository(db)

	// unknown keys read as empty, not as errors
	val, err := repo.Get("never_set")
	if err != nil {
		t.Fatalf("Get unknown: %v", err)
	}
	if val != "" {
		t.Errorf("Get unknown = %q, want empty", val)
	}

	if err := repo.SetRecallMode(models.RecallPairs); err != nil {
		t.Fatalf("SetRecallMode: %v", err)
	}
	if got := repo.RecallMode(); got != models.RecallPairs {
		t.Errorf("RecallMode = %s, want pairs", got)
	}

	if err := repo.SetLastParagraph("display-9"); err != nil {
		t.Fatalf("SetLastParagraph: %v", err)
	}
	last, err := repo.LastParagraph()
	if err != nil {
		t.Fatalf("LastParagraph: %v", err)
	}
	if last != "display-9" {
		t.Errorf("LastParagraph = %q, want display-9", last)
	}

	st := &AppState{Paragraph: "text", ChunkSize: 14, MemorizeTime: 30, Chunks: []string{"text"}, RecallMode: "pairs"}
	if err := repo.SaveAppState(st); err != nil {
		t.Fatalf("SaveAppState: %v", err)
	}
	got, err := repo.AppState()
	if err != nil {
		t.Fatalf("AppState: %v", err)
	}
	if got == nil || got.ChunkSize != 14 || got.MemorizeTime != 30 {
		t.Errorf("AppState round trip = %+v", got)
	}
}
