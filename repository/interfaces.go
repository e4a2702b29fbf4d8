// Package repository provides data access layer implementations and interfaces for the backing sheet and the audit database
package repository

import (
	"context"

	"github.com/turnixpro/turnix/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByGestion(ctx context.Context, gestionID string, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}

// CellUpdate is a value written to a single A1 range
type CellUpdate struct {
	Range  string
	Values [][]string
}

// SheetStore is a grid of string cells addressed in A1 notation ("Sheet1!A2:L").
// Implementations give no cross-call atomicity and may acknowledge writes that are never
// visible to later reads.
type SheetStore interface {
	Values(ctx context.Context, a1Range string) ([][]string, error)
	// Append writes rows after the last non-empty row of the table found in a1Range and
	// returns the number of cells the store reports as updated
	Append(ctx context.Context, a1Range string, rows [][]string) (int64, error)
	Update(ctx context.Context, a1Range string, rows [][]string) error
	BatchUpdate(ctx context.Context, updates []CellUpdate) error
	Clear(ctx context.Context, a1Range string) error
}

// GestionRepository is the gestiones sheet: a header in row 1 and one gestion per row below
type GestionRepository interface {
	ReadIDColumn(ctx context.Context) ([]string, error)
	AppendRow(ctx context.Context, row []string) error
	ListAll(ctx context.Context) ([]models.Gestion, error)
	ByID(ctx context.Context, id string) (*models.Gestion, int, error)
	UpdateEstado(ctx context.Context, rowNumber int, estado string, fechaResuelto *string) error
	ReplaceAll(ctx context.Context, gestiones []models.Gestion) error
	EnsureHeader(ctx context.Context) error
	Probe(ctx context.Context) (int, error)
}
