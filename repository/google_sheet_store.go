package repository

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/sheets/v4"
)

const (
	valueRenderFormatted  = "FORMATTED_VALUE"
	valueInputUserEntered = "USER_ENTERED"
	valueInputRaw         = "RAW"
	insertDataInsertRows  = "INSERT_ROWS"
)

// GoogleSheetStore is a SheetStore backed by one Google spreadsheet
type GoogleSheetStore struct {
	svc           *sheets.Service
	spreadsheetID string
	timeout       time.Duration
}

// NewGoogleSheetStore wraps an authenticated Sheets service. Each call is bounded by timeout when positive.
func NewGoogleSheetStore(svc *sheets.Service, spreadsheetID string, timeout time.Duration) *GoogleSheetStore {
	return &GoogleSheetStore{svc: svc, spreadsheetID: spreadsheetID, timeout: timeout}
}

func (s *GoogleSheetStore) Values(ctx context.Context, a1Range string) ([][]string, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, a1Range).
		ValueRenderOption(valueRenderFormatted).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("sheets get %s: %w", a1Range, err)
	}
	return fromSheetValues(resp.Values), nil
}

func (s *GoogleSheetStore) Append(ctx context.Context, a1Range string, rows [][]string) (int64, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	resp, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, a1Range, &sheets.ValueRange{Values: toSheetValues(rows)}).
		ValueInputOption(valueInputUserEntered).
		InsertDataOption(insertDataInsertRows).
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("sheets append %s: %w", a1Range, err)
	}
	if resp.Updates == nil {
		return 0, nil
	}
	return resp.Updates.UpdatedCells, nil
}

func (s *GoogleSheetStore) Update(ctx context.Context, a1Range string, rows [][]string) error {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, a1Range, &sheets.ValueRange{Values: toSheetValues(rows)}).
		ValueInputOption(valueInputRaw).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets update %s: %w", a1Range, err)
	}
	return nil
}

func (s *GoogleSheetStore) BatchUpdate(ctx context.Context, updates []CellUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	data := make([]*sheets.ValueRange, 0, len(updates))
	for _, u := range updates {
		data = append(data, &sheets.ValueRange{Range: u.Range, Values: toSheetValues(u.Values)})
	}
	req := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: valueInputUserEntered,
		Data:             data,
	}
	if _, err := s.svc.Spreadsheets.Values.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("sheets batch update: %w", err)
	}
	return nil
}

func (s *GoogleSheetStore) Clear(ctx context.Context, a1Range string) error {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	if _, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, a1Range, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("sheets clear %s: %w", a1Range, err)
	}
	return nil
}

func (s *GoogleSheetStore) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func toSheetValues(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		out[i] = cells
	}
	return out
}

func fromSheetValues(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			if v == nil {
				continue
			}
			cells[j] = fmt.Sprint(v)
		}
		out[i] = cells
	}
	return out
}
