package businessflow

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/turnixpro/turnix/app/dto"
	"github.com/turnixpro/turnix/app/services"
	"github.com/turnixpro/turnix/models"
	"github.com/turnixpro/turnix/repository"
	"github.com/turnixpro/turnix/utils"
	"golang.org/x/sync/singleflight"
)

// GestionFlow handles the gestion queue use cases
type GestionFlow interface {
	CreateGestion(ctx context.Context, req *dto.CreateGestionRequest, metadata *ClientMetadata) (*dto.CreateGestionResponse, error)
	ListGestiones(ctx context.Context, req *dto.ListGestionesRequest) (*dto.ListGestionesResponse, error)
	ListHistorial(ctx context.Context) (*dto.ListGestionesResponse, error)
	UpdateEstado(ctx context.Context, req *dto.UpdateEstadoRequest, metadata *ClientMetadata) (*dto.UpdateEstadoResponse, error)
}

// ArchiveTrigger starts an archive run in the background; concurrent triggers collapse into one run
type ArchiveTrigger interface {
	TriggerArchive(reason string) bool
}

// GestionFlowImpl implements GestionFlow
type GestionFlowImpl struct {
	repo     repository.GestionRepository
	writer   GestionWriter
	cache    services.GestionCache
	audit    auditRecorder
	archiver ArchiveTrigger
	logger   *log.Logger
	now      func() time.Time

	listGroup singleflight.Group
}

// NewGestionFlow creates a new gestion flow. cache, auditRepo and archiver may be nil.
func NewGestionFlow(
	repo repository.GestionRepository,
	writer GestionWriter,
	cache services.GestionCache,
	auditRepo repository.AuditLogRepository,
	archiver ArchiveTrigger,
	timeZone string,
	logger *log.Logger,
) GestionFlow {
	if cache == nil {
		cache = services.NewNoopGestionCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &GestionFlowImpl{
		repo:     repo,
		writer:   writer,
		cache:    cache,
		audit:    auditRecorder{repo: auditRepo, logger: logger},
		archiver: archiver,
		logger:   logger,
		now:      func() time.Time { return utils.LocalNow(timeZone) },
	}
}

// CreateGestion allocates the next queue id and appends the row with Estado Pendiente
func (f *GestionFlowImpl) CreateGestion(ctx context.Context, req *dto.CreateGestionRequest, metadata *ClientMetadata) (*dto.CreateGestionResponse, error) {
	if err := validateCreateGestion(req); err != nil {
		return nil, err
	}

	fechaRegistro := utils.FormatTimestamp(f.now())
	buildRow := func(id string) []string {
		g := models.Gestion{
			ID:              id,
			Nombres:         strings.TrimSpace(req.Nombres),
			Apellidos:       strings.TrimSpace(req.Apellidos),
			Genero:          strings.TrimSpace(req.Genero),
			FechaNacimiento: strings.TrimSpace(req.FechaNacimiento),
			NombrePadre:     strings.TrimSpace(req.NombrePadre),
			NombreMadre:     strings.TrimSpace(req.NombreMadre),
			LugarNacimiento: strings.TrimSpace(req.LugarNacimiento),
			Comentarios:     strings.TrimSpace(req.Comentarios),
			Estado:          utils.EstadoPendiente,
			FechaRegistro:   fechaRegistro,
		}
		return g.ToRow()
	}

	id, err := f.writer.Write(ctx, buildRow)
	if err != nil {
		errMsg := fmt.Sprintf("Gestion creation failed: %s", err.Error())
		f.audit.record(ctx, nil, models.AuditActionGestionFailed, errMsg, err, metadata)

		if IsSpaceExhausted(err) {
			f.audit.record(ctx, nil, models.AuditActionSpaceExhausted, "Gestion id space exhausted", err, metadata)
			if f.archiver != nil && f.archiver.TriggerArchive("id space exhausted") {
				f.logger.Printf("gestion flow: archive triggered after id space exhaustion")
			}
		}
		return nil, err
	}

	f.invalidateList(ctx)

	msg := fmt.Sprintf("Gestion created successfully: %s", id)
	f.audit.record(ctx, &id, models.AuditActionGestionCreated, msg, nil, metadata)

	return &dto.CreateGestionResponse{
		Message:       "Gestion created successfully",
		ID:            id,
		FechaRegistro: fechaRegistro,
	}, nil
}

// ListGestiones returns every non-blank row, optionally filtered by estado
func (f *GestionFlowImpl) ListGestiones(ctx context.Context, req *dto.ListGestionesRequest) (*dto.ListGestionesResponse, error) {
	all, err := f.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	var estado string
	if req != nil && req.Estado != nil {
		estado = strings.TrimSpace(*req.Estado)
	}

	items := make([]models.Gestion, 0, len(all))
	for _, g := range all {
		if estado != "" && !g.HasEstado(estado) {
			continue
		}
		items = append(items, g)
	}

	return &dto.ListGestionesResponse{Items: items, Total: len(items)}, nil
}

// ListHistorial returns the resolved gestiones
func (f *GestionFlowImpl) ListHistorial(ctx context.Context) (*dto.ListGestionesResponse, error) {
	estado := utils.EstadoResuelto
	return f.ListGestiones(ctx, &dto.ListGestionesRequest{Estado: &estado})
}

// UpdateEstado moves one gestion to a new estado; Resuelto also stamps FechaResuelto
func (f *GestionFlowImpl) UpdateEstado(ctx context.Context, req *dto.UpdateEstadoRequest, metadata *ClientMetadata) (*dto.UpdateEstadoResponse, error) {
	if req == nil {
		return nil, newValidationError("Request is required", ErrIDRequired)
	}

	id := strings.ToUpper(strings.TrimSpace(req.ID))
	if id == "" {
		return nil, newValidationError("Gestion id is required", ErrIDRequired)
	}
	if !IsGestionID(id) {
		return nil, newValidationError("Gestion id must look like A001", ErrInvalidGestionID)
	}

	estado, ok := canonicalEstado(req.NuevoEstado)
	if !ok {
		return nil, newValidationError(
			fmt.Sprintf("Estado must be one of %s, %s, %s", utils.EstadoPendiente, utils.EstadoPorLlamar, utils.EstadoResuelto),
			ErrInvalidEstado,
		)
	}

	g, rowNumber, err := f.repo.ByID(ctx, id)
	if err != nil {
		return nil, newStoreError("lookup gestion", err)
	}
	if g == nil {
		return nil, NewBusinessErrorf(CodeGestionNotFound, "Gestion %s not found", ErrGestionNotFound, id)
	}

	var fechaResuelto *string
	if estado == utils.EstadoResuelto {
		fechaResuelto = utils.ToPtr(utils.FormatTimestamp(f.now()))
	}

	if err := f.repo.UpdateEstado(ctx, rowNumber, estado, fechaResuelto); err != nil {
		storeErr := newStoreError("update estado", err)
		f.audit.record(ctx, &id, models.AuditActionEstadoChanged, fmt.Sprintf("Estado change of %s failed", id), storeErr, metadata)
		return nil, storeErr
	}

	f.invalidateList(ctx)

	msg := fmt.Sprintf("Estado of %s changed from %q to %q", id, g.Estado, estado)
	f.audit.record(ctx, &id, models.AuditActionEstadoChanged, msg, nil, metadata)
	f.logger.Printf("gestion flow: %s", msg)

	return &dto.UpdateEstadoResponse{
		Message:       "Estado updated successfully",
		ID:            id,
		Estado:        estado,
		FechaResuelto: fechaResuelto,
	}, nil
}

// loadAll serves the full listing from cache, collapsing concurrent misses into one store read
func (f *GestionFlowImpl) loadAll(ctx context.Context) ([]models.Gestion, error) {
	if cached, ok, err := f.cache.Get(ctx); err != nil {
		f.logger.Printf("gestion flow: cache read failed: %v", err)
	} else if ok {
		return cached, nil
	}

	v, err, _ := f.listGroup.Do(utils.GestionesCacheKey, func() (any, error) {
		rows, err := f.repo.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		gestiones := make([]models.Gestion, 0, len(rows))
		for _, g := range rows {
			if models.IsBlankRow(g.ToRow()) {
				continue
			}
			gestiones = append(gestiones, g)
		}
		if err := f.cache.Set(ctx, gestiones); err != nil {
			f.logger.Printf("gestion flow: cache write failed: %v", err)
		}
		return gestiones, nil
	})
	if err != nil {
		return nil, newStoreError("list gestiones", err)
	}
	return v.([]models.Gestion), nil
}

func (f *GestionFlowImpl) invalidateList(ctx context.Context) {
	if err := f.cache.Invalidate(ctx); err != nil {
		f.logger.Printf("gestion flow: cache invalidation failed: %v", err)
	}
}

func validateCreateGestion(req *dto.CreateGestionRequest) error {
	if req == nil || strings.TrimSpace(req.Nombres) == "" {
		return newValidationError("Nombres is required", ErrNombresRequired)
	}
	return nil
}

// canonicalEstado maps user input onto one of the known estados, ignoring case and blanks
func canonicalEstado(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, e := range []string{utils.EstadoPendiente, utils.EstadoPorLlamar, utils.EstadoResuelto} {
		if strings.EqualFold(s, e) {
			return e, true
		}
	}
	return "", false
}
