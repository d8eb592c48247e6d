package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"recruitai/interview-orchestrator/internal/models"
	"recruitai/interview-orchestrator/internal/repositories"
)

type ResultHandler struct {
	subRepo repositories.SubmissionRepository
}

func NewResultHandler(subRepo repositories.SubmissionRepository) *ResultHandler {
	return &ResultHandler{subRepo: subRepo}
}

// HandleGetResult handles GET /sessions/:id/result
func (h *ResultHandler) HandleGetResult(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid session id format",
		})
	}

	sub, err := h.subRepo.FindBySessionID(sessionID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No submission for this session",
		})
	}

	resp := models.ResultResponse{
		SessionID:    sessionID.String(),
		Status:       string(sub.Status),
		ErrorMessage: sub.ErrorMessage,
	}

	var payload models.SubmissionPayload
	if err := json.Unmarshal([]byte(sub.PayloadJSON), &payload); err == nil {
		resp.Payload = &payload
	}

	return c.JSON(resp)
}
