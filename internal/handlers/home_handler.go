package handlers

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"

	"memtrainer/internal/repository"
	"memtrainer/internal/service"
	"memtrainer/internal/textsplit"
)

// HomeHandler serves the paragraph entry screen
type HomeHandler struct {
	paragraphService *service.ParagraphService
	stateRepo        *repository.StateRepository
	templates        *template.Template
}

// NewHomeHandler creates a new home handler
func NewHomeHandler(paragraphService *service.ParagraphService, stateRepo *repository.StateRepository, templates *template.Template) *HomeHandler {
	return &HomeHandler{
		paragraphService: paragraphService,
		stateRepo:        stateRepo,
		templates:        templates,
	}
}

// Home renders the entry screen with the last session's text and slider
// values restored
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	data := HomeViewData{
		Title:        "Memory Trainer",
		ChunkSize:    textsplit.DefaultMaxWords,
		MemorizeTime: DefaultMemorizeSeconds,
		RecallMode:   string(h.stateRepo.RecallMode()),
	}

	if st, err := h.stateRepo.AppState(); err == nil && st != nil {
		data.Paragraph = st.Paragraph
		data.Chunks = st.Chunks
		if st.ChunkSize > 0 {
			data.ChunkSize = st.ChunkSize
		}
		if st.MemorizeTime > 0 {
			data.MemorizeTime = st.MemorizeTime
		}
		if st.RecallMode != "" {
			data.RecallMode = st.RecallMode
		}
	}

	// no saved screen state: fall back to the last paragraph trained
	if data.Paragraph == "" {
		if p, err := h.paragraphService.MostRecent(); err == nil && p != nil {
			data.Paragraph = p.Text
			data.Chunks = p.Chunks
		}
	}

	paragraphs, err := h.paragraphService.List()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to list paragraphs", err)
		return
	}
	for _, p := range paragraphs {
		data.SavedParagraphs = append(data.SavedParagraphs, SavedParagraphView{
			DisplayID:    p.DisplayID,
			Name:         p.Name,
			Preview:      truncatePreview(p.Text, 60),
			LastModified: p.LastModified,
		})
	}

	if err := h.templates.ExecuteTemplate(w, "home.tmpl", data); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to render home", err)
	}
}

// Split chunks the submitted text for preview
func (h *HomeHandler) Split(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidFormData, "", err)
		return
	}

	text := r.FormValue("text")
	maxWords := formInt(r, "chunk_size", textsplit.DefaultMaxWords)

	chunks := textsplit.Chunks(text, maxWords)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"chunks": chunks})
}

// SplitSmaller re-splits already chunked text at clause boundaries
func (h *HomeHandler) SplitSmaller(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Chunks   []string `json:"chunks"`
		MaxWords int      `json:"max_words"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidFormData, "", err)
		return
	}
	if req.MaxWords <= 0 {
		req.MaxWords = textsplit.DefaultMaxWords
	}

	chunks := textsplit.SplitSmaller(req.Chunks, req.MaxWords)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"chunks": chunks})
}

// SaveState persists the entry screen state so a reload restores it
func (h *HomeHandler) SaveState(w http.ResponseWriter, r *http.Request) {
	var st repository.AppState
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidFormData, "", err)
		return
	}

	if err := h.stateRepo.SaveAppState(&st); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to save state", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// truncatePreview shortens text to at most max runes for list display
func truncatePreview(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}

// formInt reads an integer form value with a default
func formInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.FormValue(name))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
