package handlers

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"recruitai/interview-orchestrator/internal/models"
	"recruitai/interview-orchestrator/internal/repositories"
	"recruitai/interview-orchestrator/internal/services"
	"recruitai/interview-orchestrator/internal/session"
)

type SessionHandler struct {
	manager        *session.Manager
	sessionRepo    repositories.SessionRepository
	registry       *services.RoleRegistry
	storageService services.StorageService
	parser         services.ResumeParserService
	deps           session.Deps
	maxFileSize    int64
}

func NewSessionHandler(
	manager *session.Manager,
	sessionRepo repositories.SessionRepository,
	registry *services.RoleRegistry,
	storageService services.StorageService,
	parser services.ResumeParserService,
	deps session.Deps,
	maxFileSize int64,
) *SessionHandler {
	return &SessionHandler{
		manager:        manager,
		sessionRepo:    sessionRepo,
		registry:       registry,
		storageService: storageService,
		parser:         parser,
		deps:           deps,
		maxFileSize:    maxFileSize,
	}
}

// HandleCreate handles POST /sessions
func (h *SessionHandler) HandleCreate(c *fiber.Ctx) error {
	var req models.CreateSessionRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	if req.CandidateToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "candidate_token is required",
		})
	}
	if req.Role == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "role is required",
		})
	}
	if req.Language == "" {
		req.Language = "English"
	}

	role, err := h.registry.Lookup(req.Role)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	id := uuid.New()
	orch := session.NewOrchestrator(session.Config{
		ID:             id,
		CandidateToken: req.CandidateToken,
		Role:           role,
		Language:       req.Language,
	}, h.deps)

	if err := orch.Bootstrap(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to initialize session",
		})
	}

	record := &models.InterviewSession{
		ID:             id,
		CandidateToken: req.CandidateToken,
		Role:           role.Key,
		Language:       req.Language,
		Phase:          models.PhaseWelcome,
	}
	if err := h.sessionRepo.Create(record); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create session record",
		})
	}

	h.manager.Add(id, orch)

	return c.Status(fiber.StatusCreated).JSON(orch.Snapshot())
}

// HandleGet handles GET /sessions/:id
func (h *SessionHandler) HandleGet(c *fiber.Ctx) error {
	orch, err := h.lookup(c)
	if orch == nil {
		return err
	}
	return c.JSON(orch.Snapshot())
}

// HandleResume handles POST /sessions/:id/resume. Expects a multipart form
// with a "name" field and a "resume" PDF file.
func (h *SessionHandler) HandleResume(c *fiber.Ctx) error {
	orch, err := h.lookup(c)
	if orch == nil {
		return err
	}

	name := c.FormValue("name")

	file, err := c.FormFile("resume")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "resume file is required",
		})
	}
	if file.Size > h.maxFileSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Resume file too large. Max size: %d bytes", h.maxFileSize),
		})
	}

	filename, filePath, err := h.storageService.SaveResume(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to save resume: %v", err),
		})
	}
	defer h.storageService.DeleteFile(filename)

	resumeText, err := h.parser.ExtractText(filePath)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to read resume: %v", err),
		})
	}

	if err := orch.SubmitResume(c.Context(), name, resumeText); err != nil {
		return h.phaseError(c, orch, err)
	}

	h.persistState(orch)
	return c.JSON(orch.Snapshot())
}

// HandleContact handles PATCH /sessions/:id/profile
func (h *SessionHandler) HandleContact(c *fiber.Ctx) error {
	orch, err := h.lookup(c)
	if orch == nil {
		return err
	}

	var req models.UpdateContactRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	if err := orch.UpdateContact(req.Email, req.Phone); err != nil {
		return h.phaseError(c, orch, err)
	}

	h.persistState(orch)
	return c.JSON(orch.Snapshot())
}

// HandleProceed handles POST /sessions/:id/proceed
func (h *SessionHandler) HandleProceed(c *fiber.Ctx) error {
	orch, err := h.lookup(c)
	if orch == nil {
		return err
	}

	if err := orch.Proceed(c.Context()); err != nil {
		if errors.Is(err, session.ErrInvalidTransition) {
			return h.phaseError(c, orch, err)
		}
		// The session stays in preparation; the candidate may retry.
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	h.persistState(orch)
	return c.JSON(orch.Snapshot())
}

// HandleEnd handles POST /sessions/:id/end. The interviewer wraps up and
// scores before the session actually terminates.
func (h *SessionHandler) HandleEnd(c *fiber.Ctx) error {
	orch, err := h.lookup(c)
	if orch == nil {
		return err
	}

	if err := orch.RequestEnd(); err != nil {
		return h.phaseError(c, orch, err)
	}
	return c.JSON(orch.Snapshot())
}

// HandleBack handles POST /sessions/:id/back
func (h *SessionHandler) HandleBack(c *fiber.Ctx) error {
	orch, err := h.lookup(c)
	if orch == nil {
		return err
	}

	if err := orch.Back(); err != nil {
		return h.phaseError(c, orch, err)
	}

	h.persistState(orch)
	return c.JSON(orch.Snapshot())
}

// HandleRestart handles POST /sessions/:id/restart
func (h *SessionHandler) HandleRestart(c *fiber.Ctx) error {
	orch, err := h.lookup(c)
	if orch == nil {
		return err
	}

	if err := orch.Restart(); err != nil {
		return h.phaseError(c, orch, err)
	}

	h.persistState(orch)
	return c.JSON(orch.Snapshot())
}

// HandleDelete handles DELETE /sessions/:id. Disposal is synchronous: the
// realtime client is disconnected and capture stopped before the response
// goes out. The persisted record keeps whatever phase the session was in.
func (h *SessionHandler) HandleDelete(c *fiber.Ctx) error {
	orch, err := h.lookup(c)
	if orch == nil {
		return err
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid session id format",
		})
	}

	h.manager.Remove(id)
	h.persistState(orch)

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *SessionHandler) lookup(c *fiber.Ctx) (*session.Orchestrator, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid session id format",
		})
	}

	orch, err := h.manager.Get(id)
	if err != nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}
	return orch, nil
}

func (h *SessionHandler) phaseError(c *fiber.Ctx, orch *session.Orchestrator, err error) error {
	status := fiber.StatusUnprocessableEntity
	if errors.Is(err, session.ErrInvalidTransition) {
		status = fiber.StatusConflict
	} else if errors.Is(err, session.ErrValidation) {
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
		"phase": string(orch.Phase()),
	})
}

// persistState mirrors the in-memory session state into the database.
// Persistence failures are not surfaced to the candidate; the in-memory
// session remains authoritative.
func (h *SessionHandler) persistState(orch *session.Orchestrator) {
	snap := orch.Snapshot()

	updates := map[string]interface{}{
		"phase":          snap.Phase,
		"candidate_name": snap.CandidateName,
	}
	if snap.Profile != nil {
		if data, err := json.Marshal(snap.Profile); err == nil {
			updates["profile_json"] = string(data)
		}
	}
	if snap.ErrorMessage != "" {
		updates["error_message"] = snap.ErrorMessage
	}

	id, err := uuid.Parse(snap.ID)
	if err != nil {
		return
	}
	h.sessionRepo.UpdateState(id, updates)
}
