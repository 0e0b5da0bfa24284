package handlers

import (
	"html/template"
	"net/http"
	"strconv"

	"memtrainer/internal/repository"
	"memtrainer/internal/service"
)

// AttemptHandler serves the saved attempts panel and stored audio
type AttemptHandler struct {
	paragraphService *service.ParagraphService
	attemptRepo      *repository.AttemptRepository
	templates        *template.Template
}

// NewAttemptHandler creates a new attempt handler
func NewAttemptHandler(paragraphService *service.ParagraphService, attemptRepo *repository.AttemptRepository, templates *template.Template) *AttemptHandler {
	return &AttemptHandler{
		paragraphService: paragraphService,
		attemptRepo:      attemptRepo,
		templates:        templates,
	}
}

// List renders every stored attempt for a paragraph, references first
func (h *AttemptHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := h.paragraphService.Get(r.PathValue("displayId"))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to load paragraph", err)
		return
	}
	if p == nil {
		http.NotFound(w, r)
		return
	}

	attempts, err := h.attemptRepo.ListByParagraph(p.ParagraphID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to list attempts", err)
		return
	}

	data := AttemptsViewData{
		Title:         "Saved attempts",
		ParagraphName: p.Name,
		DisplayID:     p.DisplayID,
	}
	for _, a := range attempts {
		chunkText := ""
		if a.ChunkIndex >= 0 && a.ChunkIndex < len(p.Chunks) {
			chunkText = p.Chunks[a.ChunkIndex]
		}
		data.Attempts = append(data.Attempts, AttemptView{
			ID:              a.ID,
			ChunkIndex:      a.ChunkIndex,
			ChunkText:       chunkText,
			MimeType:        a.MimeType,
			DurationSeconds: a.DurationSeconds,
			CreatedAt:       a.CreatedAt,
			IsReference:     a.IsReference,
		})
	}

	if err := h.templates.ExecuteTemplate(w, "attempts.tmpl", data); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to render attempts", err)
	}
}

// Audio streams one stored attempt's recording
func (h *AttemptHandler) Audio(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid attempt ID", "", err)
		return
	}

	attempt, err := h.attemptRepo.GetByID(id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to load attempt", err)
		return
	}
	if attempt == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", attempt.MimeType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(attempt.Audio)
}

// MakeReference promotes one stored attempt to its chunk's reference
func (h *AttemptHandler) MakeReference(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid attempt ID", "", err)
		return
	}

	attempt, err := h.attemptRepo.GetByID(id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to load attempt", err)
		return
	}
	if attempt == nil {
		http.NotFound(w, r)
		return
	}

	if err := h.attemptRepo.SetReference(attempt.ParagraphID, attempt.ChunkIndex, attempt.ID); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to set reference", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete removes one stored attempt. Deleting a reference simply leaves the
// chunk without one; the next saved take becomes the new reference.
func (h *AttemptHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid attempt ID", "", err)
		return
	}

	if err := h.attemptRepo.Delete(id); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to delete attempt", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
