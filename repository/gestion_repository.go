package repository

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/turnixpro/turnix/models"
)

// GestionRepositoryImpl maps gestiones onto a single sheet of a SheetStore
type GestionRepositoryImpl struct {
	store  SheetStore
	sheet  string
	logger *log.Logger
}

// NewGestionRepository creates a repository over the named sheet. A nil logger logs through log.Default.
func NewGestionRepository(store SheetStore, sheet string, logger *log.Logger) GestionRepository {
	if logger == nil {
		logger = log.Default()
	}
	return &GestionRepositoryImpl{store: store, sheet: sheet, logger: logger}
}

func (r *GestionRepositoryImpl) rng(a1 string) string {
	return SheetRange(r.sheet, a1)
}

// ReadIDColumn returns column A as stored, header included, one entry per row
func (r *GestionRepositoryImpl) ReadIDColumn(ctx context.Context) ([]string, error) {
	rows, err := r.store.Values(ctx, r.rng(models.IDColumnLetter+":"+models.IDColumnLetter))
	if err != nil {
		return nil, err
	}
	column := make([]string, len(rows))
	for i, row := range rows {
		if len(row) > 0 {
			column[i] = row[0]
		}
	}
	return column, nil
}

// AppendRow appends one gestion row after the last row of the table. A zero updated-cell count
// is only logged; whether the row landed is for the caller to verify.
func (r *GestionRepositoryImpl) AppendRow(ctx context.Context, row []string) error {
	headerRange := cellRange(models.IDColumnLetter, models.LastColumnLetter, 1)
	updated, err := r.store.Append(ctx, r.rng(headerRange), [][]string{row})
	if err != nil {
		return err
	}
	if updated == 0 {
		r.logger.Printf("gestion repository: append to %s reported no updated cells", r.sheet)
	}
	return nil
}

// ListAll returns every data row below the header, blank rows included
func (r *GestionRepositoryImpl) ListAll(ctx context.Context) ([]models.Gestion, error) {
	rows, err := r.store.Values(ctx, r.rng(models.IDColumnLetter+":"+models.LastColumnLetter))
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return []models.Gestion{}, nil
	}

	gestiones := make([]models.Gestion, 0, len(rows)-1)
	for _, row := range rows[1:] {
		gestiones = append(gestiones, models.GestionFromRow(row))
	}
	return gestiones, nil
}

// ByID finds the first data row whose id matches and returns it with its 1-based sheet row number.
// A missing id yields (nil, 0, nil).
func (r *GestionRepositoryImpl) ByID(ctx context.Context, id string) (*models.Gestion, int, error) {
	column, err := r.ReadIDColumn(ctx)
	if err != nil {
		return nil, 0, err
	}

	rowNumber := 0
	for i := 1; i < len(column); i++ {
		if strings.EqualFold(strings.TrimSpace(column[i]), id) {
			rowNumber = i + 1
			break
		}
	}
	if rowNumber == 0 {
		return nil, 0, nil
	}

	rows, err := r.store.Values(ctx, r.rng(cellRange(models.IDColumnLetter, models.LastColumnLetter, rowNumber)))
	if err != nil {
		return nil, 0, err
	}
	var row []string
	if len(rows) > 0 {
		row = rows[0]
	}
	g := models.GestionFromRow(row)
	return &g, rowNumber, nil
}

// UpdateEstado sets column J of rowNumber and, when fechaResuelto is given, column L, in one batch
func (r *GestionRepositoryImpl) UpdateEstado(ctx context.Context, rowNumber int, estado string, fechaResuelto *string) error {
	if rowNumber < 2 {
		return fmt.Errorf("row %d is not a data row", rowNumber)
	}
	updates := []CellUpdate{{
		Range:  r.rng(cellRange(models.EstadoColumnLetter, models.EstadoColumnLetter, rowNumber)),
		Values: [][]string{{estado}},
	}}
	if fechaResuelto != nil {
		updates = append(updates, CellUpdate{
			Range:  r.rng(cellRange(models.FechaResueltoColumnLetter, models.FechaResueltoColumnLetter, rowNumber)),
			Values: [][]string{{*fechaResuelto}},
		})
	}
	return r.store.BatchUpdate(ctx, updates)
}

// ReplaceAll clears columns A..L and writes the header followed by gestiones
func (r *GestionRepositoryImpl) ReplaceAll(ctx context.Context, gestiones []models.Gestion) error {
	if err := r.store.Clear(ctx, r.rng(models.IDColumnLetter+":"+models.LastColumnLetter)); err != nil {
		return err
	}

	rows := make([][]string, 0, len(gestiones)+1)
	rows = append(rows, models.GestionHeader)
	for _, g := range gestiones {
		rows = append(rows, g.ToRow())
	}
	target := fmt.Sprintf("%s1:%s%d", models.IDColumnLetter, models.LastColumnLetter, len(rows))
	return r.store.Update(ctx, r.rng(target), rows)
}

// EnsureHeader writes the header row when row 1 is empty
func (r *GestionRepositoryImpl) EnsureHeader(ctx context.Context) error {
	headerRange := r.rng(cellRange(models.IDColumnLetter, models.LastColumnLetter, 1))
	rows, err := r.store.Values(ctx, headerRange)
	if err != nil {
		return err
	}
	if len(rows) > 0 && !models.IsBlankRow(rows[0]) {
		return nil
	}
	r.logger.Printf("gestion repository: writing header to empty sheet %s", r.sheet)
	return r.store.Update(ctx, headerRange, [][]string{models.GestionHeader})
}

// Probe reads the top-left block of the sheet and returns how many rows came back
func (r *GestionRepositoryImpl) Probe(ctx context.Context) (int, error) {
	rows, err := r.store.Values(ctx, r.rng("A1:K10"))
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}
