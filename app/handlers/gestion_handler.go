package handlers

import (
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/turnixpro/turnix/app/dto"
	businessflow "github.com/turnixpro/turnix/business_flow"
)

// GestionHandlerInterface defines the contract for gestion handlers
type GestionHandlerInterface interface {
	Create(c fiber.Ctx) error
	List(c fiber.Ctx) error
	Historial(c fiber.Ctx) error
	UpdateEstado(c fiber.Ctx) error
}

// GestionHandler handles gestion queue HTTP requests
type GestionHandler struct {
	flow      businessflow.GestionFlow
	validator *validator.Validate
	timeout   time.Duration
}

// NewGestionHandler creates a new gestion handler
func NewGestionHandler(flow businessflow.GestionFlow, timeout time.Duration) *GestionHandler {
	return &GestionHandler{
		flow:      flow,
		validator: validator.New(),
		timeout:   timeout,
	}
}

// Create Gestion
// @Summary Create gestion
// @Description Register a citizen request and assign the next queue id (A001..Z999)
// @Tags Gestiones
// @Accept json
// @Produce json
// @Param request body dto.CreateGestionRequest true "Citizen data"
// @Success 201 {object} dto.APIResponse{data=dto.CreateGestionResponse} "Gestion created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Could not confirm a unique id, retry"
// @Failure 502 {object} dto.APIResponse "Backing sheet unavailable, retry"
// @Failure 503 {object} dto.APIResponse "Allocation timed out, retry"
// @Failure 507 {object} dto.APIResponse "Id space exhausted, archive required"
// @Router /api/v1/gestiones [post]
func (h *GestionHandler) Create(c fiber.Ctx) error {
	var req dto.CreateGestionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", businessflow.CodeValidation, validationErrorDetails(err))
	}

	ctx, cancel := createRequestContext(c, "/api/v1/gestiones", h.timeout)
	defer cancel()

	result, err := h.flow.CreateGestion(ctx, &req, clientMetadata(c))
	if err != nil {
		log.Printf("Create gestion failed: %v", err)
		return handleBusinessError(c, err, "Failed to create gestion")
	}

	return successResponse(c, fiber.StatusCreated, result.Message, result)
}

// List Gestiones
// @Summary List gestiones
// @Description List every gestion in sheet order, optionally filtered by estado (case-insensitive)
// @Tags Gestiones
// @Produce json
// @Param estado query string false "Pendiente, Por Llamar or Resuelto"
// @Success 200 {object} dto.APIResponse{data=dto.ListGestionesResponse}
// @Failure 502 {object} dto.APIResponse "Backing sheet unavailable"
// @Router /api/v1/gestiones [get]
func (h *GestionHandler) List(c fiber.Ctx) error {
	req := &dto.ListGestionesRequest{}
	if estado := strings.TrimSpace(c.Query("estado")); estado != "" {
		req.Estado = &estado
	}
	if err := h.validator.Struct(req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", businessflow.CodeValidation, validationErrorDetails(err))
	}

	ctx, cancel := createRequestContext(c, "/api/v1/gestiones", h.timeout)
	defer cancel()

	result, err := h.flow.ListGestiones(ctx, req)
	if err != nil {
		return handleBusinessError(c, err, "Failed to list gestiones")
	}
	return successResponse(c, fiber.StatusOK, "Gestiones retrieved successfully", result)
}

// Historial
// @Summary List resolved gestiones
// @Tags Gestiones
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ListGestionesResponse}
// @Failure 502 {object} dto.APIResponse "Backing sheet unavailable"
// @Router /api/v1/gestiones/historial [get]
func (h *GestionHandler) Historial(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/gestiones/historial", h.timeout)
	defer cancel()

	result, err := h.flow.ListHistorial(ctx)
	if err != nil {
		return handleBusinessError(c, err, "Failed to list historial")
	}
	return successResponse(c, fiber.StatusOK, "Historial retrieved successfully", result)
}

// UpdateEstado
// @Summary Change the estado of a gestion
// @Description Resuelto also stamps FechaResuelto
// @Tags Gestiones
// @Accept json
// @Produce json
// @Param id path string true "Gestion id, e.g. A001"
// @Param request body dto.UpdateEstadoRequest true "New estado"
// @Success 200 {object} dto.APIResponse{data=dto.UpdateEstadoResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Gestion not found"
// @Failure 502 {object} dto.APIResponse "Backing sheet unavailable"
// @Router /api/v1/gestiones/{id}/estado [put]
func (h *GestionHandler) UpdateEstado(c fiber.Ctx) error {
	var req dto.UpdateEstadoRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", businessflow.CodeValidation, validationErrorDetails(err))
	}
	req.ID = c.Params("id")

	ctx, cancel := createRequestContext(c, "/api/v1/gestiones/:id/estado", h.timeout)
	defer cancel()

	result, err := h.flow.UpdateEstado(ctx, &req, clientMetadata(c))
	if err != nil {
		if !businessflow.IsGestionNotFound(err) && !businessflow.IsValidation(err) {
			log.Printf("Update estado of %s failed: %v", req.ID, err)
		}
		return handleBusinessError(c, err, "Failed to update estado")
	}
	return successResponse(c, fiber.StatusOK, result.Message, result)
}
