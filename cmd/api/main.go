package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	"recruitai/interview-orchestrator/internal/audio"
	"recruitai/interview-orchestrator/internal/config"
	"recruitai/interview-orchestrator/internal/handlers"
	"recruitai/interview-orchestrator/internal/logger"
	"recruitai/interview-orchestrator/internal/models"
	"recruitai/interview-orchestrator/internal/realtime"
	"recruitai/interview-orchestrator/internal/repositories"
	"recruitai/interview-orchestrator/internal/services"
	"recruitai/interview-orchestrator/internal/session"
)

func main() {
	cfg := config.Load()

	log := logger.New(cfg.Server.Env)
	log.Info("config loaded")

	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	sessionRepo := repositories.NewSessionRepository(db)
	subRepo := repositories.NewSubmissionRepository(db)

	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		log.Fatalf("failed to create upload directory: %v", err)
	}
	parser := services.NewResumeParserService()

	geminiService, err := services.NewGeminiService(cfg.Gemini.APIKey)
	if err != nil {
		log.Fatalf("failed to initialize analysis model: %v", err)
	}

	qdrantService, err := services.NewQdrantService(
		cfg.Qdrant.URL,
		cfg.Qdrant.APIKey,
		cfg.Qdrant.Collection,
	)
	if err != nil {
		log.Fatalf("failed to initialize vector store: %v", err)
	}
	if err := qdrantService.InitCollection(); err != nil {
		log.Fatalf("failed to initialize vector collection: %v", err)
	}

	analyzer := services.NewResumeAnalyzer(
		geminiService,
		qdrantService,
		cfg.Worker.RetryMaxAttempts,
		log.WithField("component", "analyzer"),
	)

	counter, err := services.NewTokenCounter()
	if err != nil {
		log.Fatalf("failed to load tokenizer: %v", err)
	}
	estimator := services.NewCostEstimator(cfg.Pricing)

	submitter := services.NewSubmitterService(
		cfg.Submission,
		cfg.Worker.RetryMaxAttempts,
		log.WithField("component", "submitter"),
	)
	worker := services.NewWorker(
		subRepo,
		submitter,
		cfg.Worker.Concurrency,
		cfg.Worker.PollInterval,
		log.WithField("component", "worker"),
	)
	worker.Start(context.Background())

	manager := session.NewManager()

	// onComplete persists each finished interview as a queued submission and
	// hands it to the delivery worker.
	onComplete := func(sessionID uuid.UUID, payload *models.SubmissionPayload) {
		slog := log.WithSession(sessionID.String())

		data, err := json.Marshal(payload)
		if err != nil {
			slog.WithField("error", err.Error()).Error("failed to marshal submission payload")
			return
		}

		role := ""
		if record, err := sessionRepo.FindByID(sessionID); err == nil {
			role = record.Role
		}

		sub := &models.Submission{
			ID:           uuid.New(),
			SessionID:    sessionID,
			Status:       models.SubmissionQueued,
			FullName:     payload.RaFullName,
			Role:         role,
			Language:     payload.LanguagePref,
			AverageScore: payload.IntAverageScore,
			RoleFitScore: payload.RaRolefitScore,
			TotalCostUSD: payload.TotalCostUSD,
			PayloadJSON:  string(data),
		}
		if err := subRepo.Create(sub); err != nil {
			slog.WithField("error", err.Error()).Error("failed to persist submission")
			return
		}

		sessionRepo.UpdateState(sessionID, map[string]interface{}{
			"phase":       models.PhaseEnding,
			"scores_json": string(payload.RawScores),
		})

		worker.EnqueueJob(sub.ID)
		slog.WithField("submission_id", sub.ID).Info("submission queued")
	}

	deps := session.Deps{
		Analyzer:   analyzer,
		Realtime:   realtime.NewFactory(cfg.Realtime, log.WithField("component", "realtime")),
		Audio:      audio.NewNullChannel(),
		Counter:    counter,
		Estimator:  estimator,
		OnComplete: onComplete,
		Log:        log.WithField("component", "session"),
	}

	registry := services.NewRoleRegistry()
	exportService := services.NewExportService()

	sessionHandler := handlers.NewSessionHandler(
		manager,
		sessionRepo,
		registry,
		storageService,
		parser,
		deps,
		cfg.Storage.MaxFileSize,
	)
	resultHandler := handlers.NewResultHandler(subRepo)
	exportHandler := handlers.NewExportHandler(subRepo, exportService)

	app := fiber.New(fiber.Config{
		AppName:      "Interview Orchestrator API",
		ReadTimeout:  120 * time.Second,
		WriteTimeout: 120 * time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize),
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "healthy",
			"sessions": manager.Len(),
			"time":     time.Now(),
		})
	})

	api.Post("/sessions", sessionHandler.HandleCreate)
	api.Get("/sessions/:id", sessionHandler.HandleGet)
	api.Post("/sessions/:id/resume", sessionHandler.HandleResume)
	api.Patch("/sessions/:id/profile", sessionHandler.HandleContact)
	api.Post("/sessions/:id/proceed", sessionHandler.HandleProceed)
	api.Post("/sessions/:id/end", sessionHandler.HandleEnd)
	api.Post("/sessions/:id/back", sessionHandler.HandleBack)
	api.Post("/sessions/:id/restart", sessionHandler.HandleRestart)
	api.Delete("/sessions/:id", sessionHandler.HandleDelete)
	api.Get("/sessions/:id/result", resultHandler.HandleGetResult)
	api.Get("/submissions/export", exportHandler.HandleExport)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Interview Orchestrator API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/sessions",
				"GET /api/v1/sessions/:id",
				"POST /api/v1/sessions/:id/resume",
				"PATCH /api/v1/sessions/:id/profile",
				"POST /api/v1/sessions/:id/proceed",
				"POST /api/v1/sessions/:id/end",
				"POST /api/v1/sessions/:id/back",
				"POST /api/v1/sessions/:id/restart",
				"DELETE /api/v1/sessions/:id",
				"GET /api/v1/sessions/:id/result",
				"GET /api/v1/submissions/export",
			},
		})
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info("shutting down")
		manager.Shutdown()
		worker.Stop()
		if err := app.Shutdown(); err != nil {
			log.WithField("error", err.Error()).Error("server forced to shutdown")
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.WithField("addr", addr).Info("server starting")

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
