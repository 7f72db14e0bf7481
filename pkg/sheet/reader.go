package sheet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Scopes are the read-only scopes requested for the service account.
var Scopes = []string{sheets.SpreadsheetsReadonlyScope, drive.DriveReadonlyScope}

// ValuesReader returns the raw cell grid of the first worksheet, header row included.
type ValuesReader interface {
	ReadFirstWorksheet(ctx context.Context) ([][]any, error)
}

// ReaderFactory authenticates with creds and opens the spreadsheet identified by spreadsheetID.
type ReaderFactory func(ctx context.Context, creds []byte, spreadsheetID string) (ValuesReader, error)

type googleReader struct {
	svc           *sheets.Service
	spreadsheetID string
}

// NewGoogleReader builds a ValuesReader backed by the Sheets API.
func NewGoogleReader(ctx context.Context, creds []byte, spreadsheetID string) (ValuesReader, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("spreadsheet id is empty")
	}

	svc, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(creds),
		option.WithScopes(Scopes...),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &googleReader{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// ReadFirstWorksheet resolves the first tab's title, then reads its whole value range.
func (r *googleReader) ReadFirstWorksheet(ctx context.Context) ([][]any, error) {
	doc, err := r.svc.Spreadsheets.Get(r.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	if len(doc.Sheets) == 0 || doc.Sheets[0].Properties == nil {
		return nil, errors.New("spreadsheet has no worksheets")
	}

	rng := quoteSheetTitle(doc.Sheets[0].Properties.Title)
	vr, err := r.svc.Spreadsheets.Values.Get(r.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read worksheet %s: %w", rng, err)
	}

	return vr.Values, nil
}

// quoteSheetTitle renders a title as an A1 range covering the whole sheet.
func quoteSheetTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
