package handlers

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/turnixpro/turnix/app/dto"
	businessflow "github.com/turnixpro/turnix/business_flow"
	"github.com/turnixpro/turnix/repository"
	"github.com/turnixpro/turnix/utils"
)

// HealthHandlerInterface defines the contract for health handlers
type HealthHandlerInterface interface {
	Live(c fiber.Ctx) error
	Store(c fiber.Ctx) error
}

// HealthHandler reports process liveness and backing sheet reachability
type HealthHandler struct {
	repo        repository.GestionRepository
	provider    string
	sheet       string
	clientEmail func() string
	version     string
	timeout     time.Duration
}

// NewHealthHandler creates a new health handler. clientEmail may be nil.
func NewHealthHandler(repo repository.GestionRepository, provider, sheet, version string, clientEmail func() string, timeout time.Duration) *HealthHandler {
	return &HealthHandler{
		repo:        repo,
		provider:    provider,
		sheet:       sheet,
		clientEmail: clientEmail,
		version:     version,
		timeout:     timeout,
	}
}

// Live
// @Summary Liveness
// @Tags Health
// @Produce json
// @Success 200 {object} dto.APIResponse
// @Router /api/v1/health [get]
func (h *HealthHandler) Live(c fiber.Ctx) error {
	return successResponse(c, fiber.StatusOK, "Service is healthy", fiber.Map{
		"status":    "ok",
		"timestamp": utils.UTCNow().Unix(),
		"version":   h.version,
		"service":   "turnix-api",
	})
}

// Store probes the backing sheet with a small read
// @Summary Backing store health
// @Tags Health
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.StoreHealthResponse}
// @Failure 502 {object} dto.APIResponse "Backing sheet unavailable"
// @Router /api/v1/health/store [get]
func (h *HealthHandler) Store(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/health/store", h.timeout)
	defer cancel()

	resp := &dto.StoreHealthResponse{
		Provider: h.provider,
		Sheet:    h.sheet,
	}
	if h.clientEmail != nil {
		resp.ClientEmail = h.clientEmail()
	}

	rows, err := h.repo.Probe(ctx)
	if err != nil {
		resp.Status = "unavailable"
		return errorResponse(c, fiber.StatusBadGateway, "Backing store unreachable", businessflow.CodeBackingStore, resp)
	}

	resp.Status = "ok"
	resp.RowsProbed = rows
	return successResponse(c, fiber.StatusOK, "Backing store reachable", resp)
}
