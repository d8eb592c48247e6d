package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"recruitai/interview-orchestrator/internal/repositories"
	"recruitai/interview-orchestrator/internal/services"
)

type ExportHandler struct {
	subRepo       repositories.SubmissionRepository
	exportService services.ExportService
}

func NewExportHandler(subRepo repositories.SubmissionRepository, exportService services.ExportService) *ExportHandler {
	return &ExportHandler{
		subRepo:       subRepo,
		exportService: exportService,
	}
}

// HandleExport handles GET /submissions/export
func (h *ExportHandler) HandleExport(c *fiber.Ctx) error {
	subs, err := h.subRepo.FindCompleted()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list submissions",
		})
	}

	workbook, err := h.exportService.ExportSubmissions(subs)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build export",
		})
	}

	filename := fmt.Sprintf("submissions_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	return c.Send(workbook)
}
