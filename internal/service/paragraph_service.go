package service

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"memtrainer/internal/models"
	"memtrainer/internal/repository"
	"memtrainer/internal/textsplit"
	"memtrainer/internal/validation"
)

// ParagraphService handles the paragraph registry business logic
type ParagraphService struct {
	paragraphRepo *repository.ParagraphRepository
	attemptRepo   *repository.AttemptRepository
	resultRepo    *repository.ResultRepository
	stateRepo     *repository.StateRepository
}

// NewParagraphService creates a new paragraph service
func NewParagraphService(paragraphRepo *repository.ParagraphRepository, attemptRepo *repository.AttemptRepository, resultRepo *repository.ResultRepository, stateRepo *repository.StateRepository) *ParagraphService {
	return &ParagraphService{
		paragraphRepo: paragraphRepo,
		attemptRepo:   attemptRepo,
		resultRepo:    resultRepo,
		stateRepo:     stateRepo,
	}
}

// Upsert registers the given text, keyed by its content id. The caller's
// chunk list is authoritative when present, so a hand-tuned "split smaller"
// result survives into the stored paragraph; an empty list falls back to a
// fresh split. Re-saving registered text touches its timestamp and chunks;
// new text gets a generated name and display id. The returned paragraph is
// what the caller should train against even when persistence fails: registry
// errors are logged, not surfaced, so a broken database never blocks
// practice.
func (s *ParagraphService) Upsert(text string, chunks []string, maxWords int) *models.Paragraph {
	text = strings.TrimSpace(text)
	paragraphID := contentOrFallbackID(text)
	if len(chunks) == 0 {
		chunks = textsplit.Chunks(text, maxWords)
	}

	existing, err := s.paragraphRepo.GetByParagraphID(paragraphID)
	if err != nil {
		log.Printf("Paragraph lookup failed: %v", err)
	}

	if existing != nil {
		existing.Text = text
		existing.Chunks = chunks
		existing.LastModified = time.Now()
		if err := s.paragraphRepo.Update(existing); err != nil {
			log.Printf("Failed to update paragraph %s: %v", existing.DisplayID, err)
		}
		s.rememberLast(existing.DisplayID)
		return existing
	}

	count, err := s.paragraphRepo.Count()
	if err != nil {
		log.Printf("Paragraph count failed: %v", err)
	}

	p := &models.Paragraph{
		ParagraphID:  paragraphID,
		DisplayID:    uuid.New().String(),
		Name:         fmt.Sprintf("Paragraph %d", count+1),
		Text:         text,
		Chunks:       chunks,
		LastModified: time.Now(),
	}
	if err := s.paragraphRepo.Create(p); err != nil {
		log.Printf("Failed to save paragraph: %v", err)
	}
	s.rememberLast(p.DisplayID)
	return p
}

// contentOrFallbackID hashes the text for a stable id. Empty text cannot
// hash to anything useful, so it falls back to a timestamp id.
func contentOrFallbackID(text string) string {
	if text == "" {
		return "p" + strconv.FormatInt(time.Now().UnixMilli(), 36)
	}
	return models.ContentID(text)
}

// Get looks a paragraph up by its display id
func (s *ParagraphService) Get(displayID string) (*models.Paragraph, error) {
	return s.paragraphRepo.GetByDisplayID(displayID)
}

// List returns every saved paragraph in creation order
func (s *ParagraphService) List() ([]models.Paragraph, error) {
	return s.paragraphRepo.List()
}

// Rename changes a paragraph's display name
func (s *ParagraphService) Rename(displayID, newName string) error {
	if err := validation.ValidateParagraphName(newName); err != nil {
		return err
	}
	return s.paragraphRepo.Rename(displayID, strings.TrimSpace(newName))
}

// Delete removes a paragraph along with its attempts and check results.
// The paragraph row goes first so the list updates even if cleanup fails.
func (s *ParagraphService) Delete(displayID string) error {
	p, err := s.paragraphRepo.GetByDisplayID(displayID)
	if err != nil {
		return fmt.Errorf("lookup paragraph: %w", err)
	}
	if p == nil {
		return nil
	}

	if err := s.paragraphRepo.Delete(displayID); err != nil {
		return fmt.Errorf("delete paragraph: %w", err)
	}
	if err := s.attemptRepo.DeleteByParagraph(p.ParagraphID); err != nil {
		log.Printf("Failed to delete attempts for %s: %v", p.ParagraphID, err)
	}
	if err := s.resultRepo.DeleteFor(p.ParagraphID); err != nil {
		log.Printf("Failed to delete results for %s: %v", p.ParagraphID, err)
	}

	if last, _ := s.stateRepo.LastParagraph(); last == displayID {
		if err := s.stateRepo.SetLastParagraph(""); err != nil {
			log.Printf("Failed to clear last paragraph: %v", err)
		}
	}
	return nil
}

// MostRecent returns the paragraph the user last worked on, or nil
func (s *ParagraphService) MostRecent() (*models.Paragraph, error) {
	displayID, err := s.stateRepo.LastParagraph()
	if err != nil || displayID == "" {
		return nil, err
	}
	return s.paragraphRepo.GetByDisplayID(displayID)
}

func (s *ParagraphService) rememberLast(displayID string) {
	if err := s.stateRepo.SetLastParagraph(displayID); err != nil {
		log.Printf("Failed to remember last paragraph: %v", err)
	}
}
