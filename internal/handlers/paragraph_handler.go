package handlers

import (
	"net/http"

	"memtrainer/internal/service"
)

// ParagraphHandler manages the saved paragraphs bar
type ParagraphHandler struct {
	paragraphService *service.ParagraphService
}

// NewParagraphHandler creates a new paragraph handler
func NewParagraphHandler(paragraphService *service.ParagraphService) *ParagraphHandler {
	return &ParagraphHandler{paragraphService: paragraphService}
}

// Rename changes a saved paragraph's name
func (h *ParagraphHandler) Rename(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidFormData, "", err)
		return
	}

	displayID := r.PathValue("displayId")
	if err := h.paragraphService.Rename(displayID, r.FormValue("name")); err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to rename paragraph", "", err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Delete removes a saved paragraph and everything recorded for it
func (h *ParagraphHandler) Delete(w http.ResponseWriter, r *http.Request) {
	displayID := r.PathValue("displayId")
	if err := h.paragraphService.Delete(displayID); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to delete paragraph", err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Load returns a saved paragraph's text for the entry screen
func (h *ParagraphHandler) Load(w http.ResponseWriter, r *http.Request) {
	p, err := h.paragraphService.Get(r.PathValue("displayId"))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to load paragraph", err)
		return
	}
	if p == nil {
		http.NotFound(w, r)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"display_id": p.DisplayID,
		"name":       p.Name,
		"text":       p.Text,
		"chunks":     p.Chunks,
	})
}
