package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"memtrainer/internal/service"
)

// BackupHandler exposes export/import over HTTP in addition to the CLI tool
type BackupHandler struct {
	backupService *service.BackupService
}

// NewBackupHandler creates a new backup handler
func NewBackupHandler(backupService *service.BackupService) *BackupHandler {
	return &BackupHandler{backupService: backupService}
}

// Export streams a full backup as a JSON download
func (h *BackupHandler) Export(w http.ResponseWriter, r *http.Request) {
	filename := fmt.Sprintf("memtrainer-backup-%s.json", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	if err := h.backupService.ExportToWriter(w); err != nil {
		// the response is already partially written; all we can do is log
		log.Printf("Failed to export backup: %v", err)
	}
}

// Import restores a backup uploaded from the browser
func (h *BackupHandler) Import(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("backup")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing backup file", "", err)
		return
	}
	defer file.Close()

	if err := h.backupService.ImportFromReader(file); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to import backup", "", err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
