package main

import (
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"memtrainer/internal/config"
	"memtrainer/internal/database"
	"memtrainer/internal/handlers"
	"memtrainer/internal/repository"
	"memtrainer/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database (supports sqlite, postgres, mysql)
	db, err := database.Initialize(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Load templates
	templates, err := loadTemplates(cfg.TemplatesPath)
	if err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}

	log.Println("Templates loaded successfully")

	// Initialize repositories
	paragraphRepo := repository.NewParagraphRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	resultRepo := repository.NewResultRepository(db)
	stateRepo := repository.NewStateRepository(db)

	// Initialize services
	paragraphService := service.NewParagraphService(paragraphRepo, attemptRepo, resultRepo, stateRepo)
	trainingService := service.NewTrainingService(attemptRepo, resultRepo, stateRepo)
	backupService := service.NewBackupService(db)

	// Initialize handlers
	homeHandler := handlers.NewHomeHandler(paragraphService, stateRepo, templates)
	trainingHandler := handlers.NewTrainingHandler(trainingService, paragraphService, resultRepo, templates)
	paragraphHandler := handlers.NewParagraphHandler(paragraphService)
	attemptHandler := handlers.NewAttemptHandler(paragraphService, attemptRepo, templates)
	backupHandler := handlers.NewBackupHandler(backupService)

	// Setup routes
	mux := http.NewServeMux()

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticFilesPath))))

	// Entry screen
	mux.HandleFunc("GET /{$}", homeHandler.Home)
	mux.HandleFunc("POST /split", homeHandler.Split)
	mux.HandleFunc("POST /split/smaller", homeHandler.SplitSmaller)
	mux.HandleFunc("POST /state", homeHandler.SaveState)

	// Saved paragraphs
	mux.HandleFunc("POST /paragraphs/{displayId}/train", trainingHandler.StartSaved)
	mux.HandleFunc("GET /paragraphs/{displayId}", paragraphHandler.Load)
	mux.HandleFunc("POST /paragraphs/{displayId}/rename", paragraphHandler.Rename)
	mux.HandleFunc("POST /paragraphs/{displayId}/delete", paragraphHandler.Delete)
	mux.HandleFunc("GET /paragraphs/{displayId}/attempts", attemptHandler.List)

	// Training session
	mux.HandleFunc("POST /training/start", trainingHandler.Start)
	mux.HandleFunc("GET /training", trainingHandler.Show)
	mux.HandleFunc("GET /training/state", trainingHandler.State)
	mux.HandleFunc("POST /training/record/start", trainingHandler.RecordStart)
	mux.HandleFunc("POST /training/record/finish", handlers.LimitUpload(cfg.UploadMaxSize, trainingHandler.RecordFinish))
	mux.HandleFunc("POST /training/record/abort", trainingHandler.RecordAbort)
	mux.HandleFunc("POST /training/save", trainingHandler.Save)
	mux.HandleFunc("POST /training/correct", trainingHandler.Correct)
	mux.HandleFunc("POST /training/incorrect", trainingHandler.Incorrect)
	mux.HandleFunc("POST /training/promote", trainingHandler.Promote)
	mux.HandleFunc("POST /training/next", trainingHandler.NextStep)
	mux.HandleFunc("POST /training/learn-again", trainingHandler.LearnAgain)
	mux.HandleFunc("POST /training/countdown/pause", trainingHandler.PauseCountdown)
	mux.HandleFunc("POST /training/countdown/resume", trainingHandler.ResumeCountdown)
	mux.HandleFunc("GET /training/audio", trainingHandler.CurrentAudio)
	mux.HandleFunc("POST /training/end", trainingHandler.End)

	// Stored attempts
	mux.HandleFunc("GET /attempts/{id}/audio", attemptHandler.Audio)
	mux.HandleFunc("POST /attempts/{id}/reference", attemptHandler.MakeReference)
	mux.HandleFunc("DELETE /attempts/{id}", attemptHandler.Delete)

	// Backup
	mux.HandleFunc("GET /backup/export", backupHandler.Export)
	mux.HandleFunc("POST /backup/import", handlers.LimitUpload(cfg.UploadMaxSize, backupHandler.Import))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
}

// loadTemplates loads all template files
func loadTemplates(templatesPath string) (*template.Template, error) {
	files, err := filepath.Glob(filepath.Join(templatesPath, "*.tmpl"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob templates: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no templates found in %s", templatesPath)
	}

	return template.ParseFiles(files...)
}
