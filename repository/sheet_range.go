package repository

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SheetRange qualifies an A1 range with a sheet name, quoting names that are not plain identifiers
func SheetRange(sheet, a1 string) string {
	if sheet == "" {
		return a1
	}
	if needsQuoting(sheet) {
		sheet = "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	}
	return sheet + "!" + a1
}

func needsQuoting(sheet string) bool {
	for _, r := range sheet {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return true
		}
	}
	return false
}

// splitSheetRange is the inverse of SheetRange
func splitSheetRange(rng string) (string, string) {
	i := strings.LastIndex(rng, "!")
	if i < 0 {
		return "", rng
	}
	sheet := rng[:i]
	if len(sheet) >= 2 && strings.HasPrefix(sheet, "'") && strings.HasSuffix(sheet, "'") {
		sheet = strings.ReplaceAll(sheet[1:len(sheet)-1], "''", "'")
	}
	return sheet, rng[i+1:]
}

// gridRange is a rectangle of 1-based cell coordinates; lastRow 0 means open-ended
type gridRange struct {
	firstCol, firstRow int
	lastCol, lastRow   int
}

// parseGridRange accepts "A1", "A:A", "A2:L", "A1:K10"
func parseGridRange(a1 string) (gridRange, error) {
	parts := strings.Split(strings.ToUpper(strings.TrimSpace(a1)), ":")
	if len(parts) == 0 || len(parts) > 2 {
		return gridRange{}, fmt.Errorf("invalid range %q", a1)
	}

	firstCol, firstRow, err := parseEndpoint(parts[0])
	if err != nil {
		return gridRange{}, fmt.Errorf("invalid range %q: %w", a1, err)
	}
	g := gridRange{firstCol: firstCol, firstRow: firstRow, lastCol: firstCol, lastRow: firstRow}
	if g.firstRow == 0 {
		g.firstRow = 1
	}

	if len(parts) == 2 {
		lastCol, lastRow, err := parseEndpoint(parts[1])
		if err != nil {
			return gridRange{}, fmt.Errorf("invalid range %q: %w", a1, err)
		}
		g.lastCol, g.lastRow = lastCol, lastRow
	}

	if g.lastCol < g.firstCol || (g.lastRow != 0 && g.lastRow < g.firstRow) {
		return gridRange{}, fmt.Errorf("invalid range %q: end before start", a1)
	}
	return g, nil
}

// parseEndpoint splits "AB12" into column 28 and row 12; a missing row yields 0
func parseEndpoint(s string) (int, int, error) {
	i := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		i++
	}
	if i == 0 {
		return 0, 0, fmt.Errorf("missing column in %q", s)
	}
	col, err := excelize.ColumnNameToNumber(s[:i])
	if err != nil {
		return 0, 0, err
	}
	if i == len(s) {
		return col, 0, nil
	}
	row, err := strconv.Atoi(s[i:])
	if err != nil || row < 1 {
		return 0, 0, fmt.Errorf("invalid row in %q", s)
	}
	return col, row, nil
}

// cellRange renders a single-row range such as "J7" or "A1:L1"
func cellRange(firstCol string, lastCol string, row int) string {
	if firstCol == lastCol {
		return fmt.Sprintf("%s%d", firstCol, row)
	}
	return fmt.Sprintf("%s%d:%s%d", firstCol, row, lastCol, row)
}
