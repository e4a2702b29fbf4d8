package businessflow

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/turnixpro/turnix/app/services"
	"github.com/turnixpro/turnix/models"
	"github.com/turnixpro/turnix/repository"
)

const testSheet = "Gestiones"

var discardLogger = log.New(io.Discard, "", 0)

// memoryCache is a GestionCache held in process memory
type memoryCache struct {
	mu            sync.Mutex
	items         []models.Gestion
	hit           bool
	sets          int
	invalidations int
	locks         map[string]bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{locks: make(map[string]bool)}
}

func (c *memoryCache) Get(context.Context) ([]models.Gestion, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hit {
		return nil, false, nil
	}
	out := make([]models.Gestion, len(c.items))
	copy(out, c.items)
	return out, true, nil
}

func (c *memoryCache) Set(_ context.Context, gestiones []models.Gestion) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = gestiones
	c.hit = true
	c.sets++
	return nil
}

func (c *memoryCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.hit = false
	c.invalidations++
	return nil
}

func (c *memoryCache) Lock(_ context.Context, name string, _ time.Duration) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locks[name] {
		return nil, services.ErrLockBusy
	}
	c.locks[name] = true
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.locks, name)
	}, nil
}

// recordingAuditRepo keeps saved audit entries in a slice
type recordingAuditRepo struct {
	mu      sync.Mutex
	entries []*models.AuditLog
}

func (r *recordingAuditRepo) ByID(_ context.Context, id uint) (*models.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, nil
}

func (r *recordingAuditRepo) ByFilter(_ context.Context, filter models.AuditLogFilter, _ string, _, _ int) ([]*models.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.AuditLog
	for _, e := range r.entries {
		if filter.Action != nil && e.Action != *filter.Action {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *recordingAuditRepo) Save(_ context.Context, entity *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entity.ID = uint(len(r.entries) + 1)
	r.entries = append(r.entries, entity)
	return nil
}

func (r *recordingAuditRepo) SaveBatch(ctx context.Context, entities []*models.AuditLog) error {
	for _, e := range entities {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *recordingAuditRepo) Count(ctx context.Context, filter models.AuditLogFilter) (int64, error) {
	out, err := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(out)), err
}

func (r *recordingAuditRepo) ListByGestion(_ context.Context, gestionID string, _, _ int) ([]*models.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.AuditLog
	for _, e := range r.entries {
		if e.GestionID != nil && *e.GestionID == gestionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *recordingAuditRepo) ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error) {
	return r.ByFilter(ctx, models.AuditLogFilter{Action: &action}, "", limit, offset)
}

func (r *recordingAuditRepo) ListFailedActions(_ context.Context, _, _ int) ([]*models.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.AuditLog
	for _, e := range r.entries {
		if e.IsFailed() {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *recordingAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

// countingArchiver records archive triggers
type countingArchiver struct {
	mu      sync.Mutex
	reasons []string
}

func (a *countingArchiver) TriggerArchive(reason string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reasons = append(a.reasons, reason)
	return true
}

// seededSheet returns a memory store holding the header followed by rows
func seededSheet(rows ...[]string) (*repository.MemorySheetStore, repository.GestionRepository) {
	store := repository.NewMemorySheetStore(testSheet)
	store.Seed(testSheet, append([][]string{models.GestionHeader}, rows...))
	return store, repository.NewGestionRepository(store, testSheet, discardLogger)
}

func sheetRow(id, nombres, estado string) []string {
	g := models.Gestion{ID: id, Nombres: nombres, Estado: estado, FechaRegistro: "2026-01-01T08:00:00-06:00"}
	return g.ToRow()
}
