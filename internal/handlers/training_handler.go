package handlers

import (
	"errors"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"time"

	"memtrainer/internal/models"
	"memtrainer/internal/repository"
	"memtrainer/internal/service"
	"memtrainer/internal/textsplit"
	"memtrainer/internal/validation"
)

// TrainingHandler drives the recitation session over HTTP. The browser does
// the capture; every decision lives server-side in the session.
type TrainingHandler struct {
	trainingService  *service.TrainingService
	paragraphService *service.ParagraphService
	resultRepo       *repository.ResultRepository
	templates        *template.Template
}

// NewTrainingHandler creates a new training handler
func NewTrainingHandler(trainingService *service.TrainingService, paragraphService *service.ParagraphService, resultRepo *repository.ResultRepository, templates *template.Template) *TrainingHandler {
	return &TrainingHandler{
		trainingService:  trainingService,
		paragraphService: paragraphService,
		resultRepo:       resultRepo,
		templates:        templates,
	}
}

// Start registers the submitted text and begins a session over it
func (h *TrainingHandler) Start(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidFormData, "", err)
		return
	}

	text := r.FormValue("text")
	if err := validation.ValidateParagraphText(text); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	maxWords := formInt(r, "chunk_size", textsplit.DefaultMaxWords)
	memorize := formInt(r, "memorize_time", DefaultMemorizeSeconds)
	if err := validation.ValidateChunkSize(maxWords); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	if err := validation.ValidateMemorizeTime(memorize); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	mode := models.ParseRecallMode(r.FormValue("recall_mode"))

	// the previewed chunk list, when submitted, overrides a fresh split
	p := h.paragraphService.Upsert(text, r.Form["chunks"], maxWords)
	if len(p.Chunks) == 0 {
		respondWithError(w, http.StatusBadRequest, "Nothing to train: the text is empty", "", nil)
		return
	}

	h.trainingService.Begin(p, mode, memorize)
	http.Redirect(w, r, "/training", http.StatusSeeOther)
}

// StartSaved begins a session over an already saved paragraph
func (h *TrainingHandler) StartSaved(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidFormData, "", err)
		return
	}

	p, err := h.paragraphService.Get(r.PathValue("displayId"))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to load paragraph", err)
		return
	}
	if p == nil {
		http.NotFound(w, r)
		return
	}

	memorize := formInt(r, "memorize_time", DefaultMemorizeSeconds)
	mode := h.trainingService.RememberedMode()
	if v := r.FormValue("recall_mode"); v != "" {
		mode = models.ParseRecallMode(v)
	}

	h.trainingService.Begin(p, mode, memorize)
	http.Redirect(w, r, "/training", http.StatusSeeOther)
}

// Show renders the training screen for the active session
func (h *TrainingHandler) Show(w http.ResponseWriter, r *http.Request) {
	session, err := h.trainingService.Active()
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	p := session.Paragraph()
	data := TrainingViewData{
		Title:         "Training",
		ParagraphName: p.Name,
		DisplayID:     p.DisplayID,
		Session:       session.View(time.Now()),
		Progress:      h.progress(session),
	}

	if err := h.templates.ExecuteTemplate(w, "training.tmpl", data); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to render training", err)
	}
}

// State returns the session snapshot the training page polls
func (h *TrainingHandler) State(w http.ResponseWriter, r *http.Request) {
	session, err := h.trainingService.Active()
	if err != nil {
		respondWithError(w, http.StatusNotFound, ErrNoActiveSession, "", nil)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"session":  session.View(time.Now()),
		"progress": h.progress(session),
	})
}

// progress builds the step dot strip from the stored verdicts
func (h *TrainingHandler) progress(session *service.RecitationSession) []StepProgressView {
	p := session.Paragraph()
	view := session.View(time.Now())

	results, err := h.resultRepo.For(p.ParagraphID)
	if err != nil {
		results = nil
	}

	steps := session.Steps()
	progress := make([]StepProgressView, len(steps))
	for i, step := range steps {
		pv := StepProgressView{
			Key:     step.Key,
			Label:   step.Label,
			Current: i == view.StepIndex && !view.Done,
		}
		if res, ok := results[step.Key]; ok {
			pv.Graded = true
			pv.Pass = res.Pass
		}
		progress[i] = pv
	}
	return progress
}

// activeSession resolves the session a mutating request targets. Every
// mutation carries the run id it was rendered for, so a tab left open on a
// replaced session cannot write into the new one.
func (h *TrainingHandler) activeSession(r *http.Request) (*service.RecitationSession, error) {
	return h.trainingService.ActiveFor(r.FormValue("run_id"))
}

// RecordStart moves the session into the recording state
func (h *TrainingHandler) RecordStart(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, func(s *service.RecitationSession) error {
		return s.BeginRecording()
	})
}

// RecordFinish accepts the captured audio from the browser
func (h *TrainingHandler) RecordFinish(w http.ResponseWriter, r *http.Request) {
	session, err := h.activeSession(r)
	if err != nil {
		respondWithError(w, http.StatusNotFound, ErrNoActiveSession, "", nil)
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing audio upload", "", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to read audio upload", "", err)
		return
	}

	duration, _ := strconv.ParseFloat(r.FormValue("duration"), 64)
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "audio/webm"
	}

	clip := models.Clip{Data: data, MimeType: mimeType, DurationSeconds: duration}
	if err := session.FinishRecording(clip); err != nil {
		respondWithError(w, http.StatusConflict, "Recording is not in progress", "", err)
		return
	}
	h.respondState(w, session)
}

// RecordAbort discards an in-flight recording after a capture failure
func (h *TrainingHandler) RecordAbort(w http.ResponseWriter, r *http.Request) {
	session, err := h.activeSession(r)
	if err != nil {
		respondWithError(w, http.StatusNotFound, ErrNoActiveSession, "", nil)
		return
	}
	session.AbortRecording()
	h.respondState(w, session)
}

// Save commits the captured take; the response says what it became
func (h *TrainingHandler) Save(w http.ResponseWriter, r *http.Request) {
	session, err := h.activeSession(r)
	if err != nil {
		respondWithError(w, http.StatusNotFound, ErrNoActiveSession, "", nil)
		return
	}

	outcome, err := session.Save()
	if err != nil {
		if errors.Is(err, service.ErrInvalidState) {
			respondWithError(w, http.StatusConflict, "Nothing to save", "", err)
		} else {
			respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to save attempt", err)
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"outcome": outcomeLabel(outcome),
		"session": session.View(time.Now()),
	})
}

func outcomeLabel(o service.SaveOutcome) string {
	switch o {
	case service.SavedReference:
		return "saved_reference"
	case service.EnteredComparison:
		return "comparison"
	default:
		return "recorded"
	}
}

// Correct grades the comparison as a pass
func (h *TrainingHandler) Correct(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, func(s *service.RecitationSession) error {
		return s.MarkCorrect()
	})
}

// Incorrect grades the comparison as a fail and repeats the step
func (h *TrainingHandler) Incorrect(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, func(s *service.RecitationSession) error {
		return s.MarkIncorrect()
	})
}

// Promote makes the compared take the chunk's new reference
func (h *TrainingHandler) Promote(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, func(s *service.RecitationSession) error {
		return s.Promote()
	})
}

// NextStep advances to the following step
func (h *TrainingHandler) NextStep(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, func(s *service.RecitationSession) error {
		return s.Next()
	})
}

// LearnAgain restarts the current step
func (h *TrainingHandler) LearnAgain(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, func(s *service.RecitationSession) error {
		return s.LearnAgain()
	})
}

// PauseCountdown freezes the memorize timer
func (h *TrainingHandler) PauseCountdown(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, func(s *service.RecitationSession) error {
		s.PauseCountdown()
		return nil
	})
}

// ResumeCountdown resumes the memorize timer
func (h *TrainingHandler) ResumeCountdown(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, func(s *service.RecitationSession) error {
		s.ResumeCountdown()
		return nil
	})
}

// CurrentAudio serves the unsaved take held by the session
func (h *TrainingHandler) CurrentAudio(w http.ResponseWriter, r *http.Request) {
	session, err := h.trainingService.Active()
	if err != nil {
		respondWithError(w, http.StatusNotFound, ErrNoActiveSession, "", nil)
		return
	}

	clip, ok := session.CurrentClip()
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", clip.MimeType)
	w.Header().Set("Cache-Control", "no-store")
	w.Write(clip.Data)
}

// End discards the active session and returns home
func (h *TrainingHandler) End(w http.ResponseWriter, r *http.Request) {
	h.trainingService.End()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// sessionAction runs one session method and responds with the fresh state
func (h *TrainingHandler) sessionAction(w http.ResponseWriter, r *http.Request, action func(*service.RecitationSession) error) {
	session, err := h.activeSession(r)
	if err != nil {
		respondWithError(w, http.StatusNotFound, ErrNoActiveSession, "", nil)
		return
	}

	if err := action(session); err != nil {
		if errors.Is(err, service.ErrInvalidState) {
			respondWithError(w, http.StatusConflict, "Action not available right now", "", err)
		} else {
			respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Session action failed", err)
		}
		return
	}
	h.respondState(w, session)
}

func (h *TrainingHandler) respondState(w http.ResponseWriter, session *service.RecitationSession) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"session": session.View(time.Now()),
	})
}
