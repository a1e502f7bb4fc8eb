package export

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"

	"github.com/Dosada05/competition-system/models"
)

// SheetsExporter выгружает строки в отдельный лист Google-таблицы.
type SheetsExporter struct {
	srv           *sheetsv4.Service
	spreadsheetID string
}

func NewSheetsExporter(ctx context.Context, serviceAccountJSONPath, spreadsheetID string) (*SheetsExporter, error) {
	if _, err := os.Stat(serviceAccountJSONPath); err != nil {
		return nil, fmt.Errorf("service account json: %w", err)
	}
	srv, err := sheetsv4.NewService(ctx,
		option.WithCredentialsFile(serviceAccountJSONPath),
		option.WithScopes(sheetsv4.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &SheetsExporter{srv: srv, spreadsheetID: spreadsheetID}, nil
}

// ExportRows replaces the content of the sheet named title and returns the updated range.
func (e *SheetsExporter) ExportRows(ctx context.Context, title string, rows []models.ExportRow) (string, error) {
	if err := e.ensureSheet(ctx, title); err != nil {
		return "", err
	}

	rng := title + "!A:Z"
	if _, err := e.srv.Spreadsheets.Values.Clear(e.spreadsheetID, rng, &sheetsv4.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear sheet %q: %w", title, err)
	}

	vr := &sheetsv4.ValueRange{Values: sheetValues(rows)}
	resp, err := e.srv.Spreadsheets.Values.Update(e.spreadsheetID, title+"!A1", vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("write sheet %q: %w", title, err)
	}
	return resp.UpdatedRange, nil
}

func (e *SheetsExporter) ensureSheet(ctx context.Context, title string) error {
	ss, err := e.srv.Spreadsheets.Get(e.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("load spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return nil
		}
	}

	req := &sheetsv4.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsv4.Request{{
			AddSheet: &sheetsv4.AddSheetRequest{Properties: &sheetsv4.SheetProperties{Title: title}},
		}},
	}
	if _, err := e.srv.Spreadsheets.BatchUpdate(e.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %q: %w", title, err)
	}
	return nil
}

func sheetValues(rows []models.ExportRow) [][]interface{} {
	values := make([][]interface{}, 0, len(rows)+1)
	values = append(values, toInterfaces(Header))
	for _, r := range rows {
		values = append(values, toInterfaces(formatRow(r)))
	}
	return values
}

func toInterfaces(cells []string) []interface{} {
	out := make([]interface{}, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}
