package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	businessflow "github.com/turnixpro/turnix/business_flow"
)

// ArchiveHandlerInterface defines the contract for archive handlers
type ArchiveHandlerInterface interface {
	Backup(c fiber.Ctx) error
	ClearHistorial(c fiber.Ctx) error
	Archive(c fiber.Ctx) error
}

// ArchiveHandler serves the xlsx backup and the historial maintenance endpoints
type ArchiveHandler struct {
	flow    businessflow.ArchiveFlow
	timeout time.Duration
}

// NewArchiveHandler creates a new archive handler
func NewArchiveHandler(flow businessflow.ArchiveFlow, timeout time.Duration) *ArchiveHandler {
	return &ArchiveHandler{flow: flow, timeout: timeout}
}

// Backup downloads every gestion as an xlsx workbook
// @Summary Download xlsx backup
// @Tags Archivo
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file "xlsx workbook"
// @Failure 400 {object} dto.APIResponse "Nothing to export"
// @Failure 502 {object} dto.APIResponse "Backing sheet unavailable"
// @Router /api/v1/archivo/backup [get]
func (h *ArchiveHandler) Backup(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/archivo/backup", h.timeout)
	defer cancel()

	filename, data, err := h.flow.BackupExcel(ctx, clientMetadata(c))
	if err != nil {
		if !businessflow.IsNothingToExport(err) {
			log.Println("Backup export failed:", err)
		}
		return handleBusinessError(c, err, "Failed to generate backup")
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}

// ClearHistorial removes resolved gestiones and compacts the sheet
// @Summary Clear historial
// @Description Drops resolved and blank rows and rewrites the remaining ones in id order
// @Tags Archivo
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ClearHistorialResponse}
// @Failure 502 {object} dto.APIResponse "Backing sheet unavailable"
// @Router /api/v1/archivo/clear [post]
func (h *ArchiveHandler) ClearHistorial(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/archivo/clear", h.timeout)
	defer cancel()

	result, err := h.flow.ClearHistorial(ctx, clientMetadata(c))
	if err != nil {
		log.Println("Clear historial failed:", err)
		return handleBusinessError(c, err, "Failed to clear historial")
	}
	return successResponse(c, fiber.StatusOK, result.Message, result)
}

// Archive writes a backup to the archive directory and then clears the historial
// @Summary Archive and clear
// @Tags Archivo
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ArchiveResponse}
// @Failure 409 {object} dto.APIResponse "An archive is already running"
// @Failure 500 {object} dto.APIResponse "Archive could not be written"
// @Failure 502 {object} dto.APIResponse "Backing sheet unavailable"
// @Router /api/v1/archivo/archive [post]
func (h *ArchiveHandler) Archive(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/archivo/archive", h.timeout)
	defer cancel()

	result, err := h.flow.ArchiveAndClear(ctx, clientMetadata(c))
	if err != nil {
		if !businessflow.IsArchiveRunning(err) {
			log.Println("Archive failed:", err)
		}
		return handleBusinessError(c, err, "Failed to archive")
	}
	return successResponse(c, fiber.StatusOK, result.Message, result)
}
