package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemorySheetStore is a process-local SheetStore used for development and tests.
// Reads follow the Sheets API shape: trailing empty cells and trailing empty rows are omitted.
type MemorySheetStore struct {
	mu     sync.RWMutex
	sheets map[string][][]string
}

// NewMemorySheetStore creates a store with the given, initially empty, sheets
func NewMemorySheetStore(sheetNames ...string) *MemorySheetStore {
	m := &MemorySheetStore{sheets: make(map[string][][]string)}
	for _, name := range sheetNames {
		m.sheets[name] = nil
	}
	return m
}

// Seed replaces the contents of sheet with rows
func (m *MemorySheetStore) Seed(sheet string, rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sheets[sheet] = copyGrid(rows)
}

// Rows returns a copy of the raw grid of sheet
func (m *MemorySheetStore) Rows(sheet string) [][]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyGrid(m.sheets[sheet])
}

func (m *MemorySheetStore) Values(ctx context.Context, a1Range string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	grid, g, err := m.resolve(a1Range)
	if err != nil {
		return nil, err
	}

	last := len(grid)
	if g.lastRow != 0 && g.lastRow < last {
		last = g.lastRow
	}

	var out [][]string
	for r := g.firstRow; r <= last; r++ {
		row := grid[r-1]
		var cells []string
		for c := g.firstCol; c <= g.lastCol && c <= len(row); c++ {
			cells = append(cells, row[c-1])
		}
		out = append(out, trimTrailingEmpty(cells))
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *MemorySheetStore) Append(ctx context.Context, a1Range string, rows [][]string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	sheet, _ := splitSheetRange(a1Range)
	grid, g, err := m.resolve(a1Range)
	if err != nil {
		return 0, err
	}

	// the table ends at the last row with content inside the range's columns
	end := 0
	for r := len(grid); r >= 1; r-- {
		if rowHasContent(grid[r-1], g.firstCol, g.lastCol) {
			end = r
			break
		}
	}

	var updated int64
	for i, row := range rows {
		for j, v := range row {
			grid = setCell(grid, end+1+i, g.firstCol+j, v)
			updated++
		}
	}
	m.sheets[sheet] = grid
	return updated, nil
}

func (m *MemorySheetStore) Update(ctx context.Context, a1Range string, rows [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.update(a1Range, rows)
}

func (m *MemorySheetStore) BatchUpdate(ctx context.Context, updates []CellUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	// validate everything first so a bad range leaves the sheet untouched
	for _, u := range updates {
		if _, _, err := m.resolve(u.Range); err != nil {
			return err
		}
	}
	for _, u := range updates {
		if err := m.update(u.Range, u.Values); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemorySheetStore) Clear(ctx context.Context, a1Range string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	sheet, _ := splitSheetRange(a1Range)
	grid, g, err := m.resolve(a1Range)
	if err != nil {
		return err
	}

	last := len(grid)
	if g.lastRow != 0 && g.lastRow < last {
		last = g.lastRow
	}
	for r := g.firstRow; r <= last; r++ {
		row := grid[r-1]
		for c := g.firstCol; c <= g.lastCol && c <= len(row); c++ {
			row[c-1] = ""
		}
	}
	m.sheets[sheet] = grid
	return nil
}

func (m *MemorySheetStore) update(a1Range string, rows [][]string) error {
	sheet, _ := splitSheetRange(a1Range)
	grid, g, err := m.resolve(a1Range)
	if err != nil {
		return err
	}
	for i, row := range rows {
		for j, v := range row {
			grid = setCell(grid, g.firstRow+i, g.firstCol+j, v)
		}
	}
	m.sheets[sheet] = grid
	return nil
}

func (m *MemorySheetStore) resolve(a1Range string) ([][]string, gridRange, error) {
	sheet, a1 := splitSheetRange(a1Range)
	grid, ok := m.sheets[sheet]
	if !ok {
		return nil, gridRange{}, fmt.Errorf("unable to parse range: %s", a1Range)
	}
	g, err := parseGridRange(a1)
	if err != nil {
		return nil, gridRange{}, err
	}
	return grid, g, nil
}

func setCell(grid [][]string, row, col int, v string) [][]string {
	for len(grid) < row {
		grid = append(grid, nil)
	}
	r := grid[row-1]
	for len(r) < col {
		r = append(r, "")
	}
	r[col-1] = v
	grid[row-1] = r
	return grid
}

func rowHasContent(row []string, firstCol, lastCol int) bool {
	for c := firstCol; c <= lastCol && c <= len(row); c++ {
		if strings.TrimSpace(row[c-1]) != "" {
			return true
		}
	}
	return false
}

func trimTrailingEmpty(cells []string) []string {
	n := len(cells)
	for n > 0 && cells[n-1] == "" {
		n--
	}
	if n == 0 {
		return []string{}
	}
	return cells[:n]
}

func copyGrid(rows [][]string) [][]string {
	if rows == nil {
		return nil
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
