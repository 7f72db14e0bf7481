package sheet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Adda-Baaj/portco-news/internal/domain"
	"github.com/Adda-Baaj/portco-news/internal/logger"
)

// SourceID identifies sheet results in caches and published events.
const SourceID = "sheet"

// Config identifies the spreadsheet and where its credentials come from.
type Config struct {
	SpreadsheetID string
	// CredentialsJSON is the service-account key supplied by a secret store.
	CredentialsJSON string
	// CredentialsFile is the local fallback for the service-account key.
	CredentialsFile string
}

// Ingestor reads the first worksheet of a spreadsheet into a SheetTable.
type Ingestor struct {
	cfg       Config
	newReader ReaderFactory
	log       logger.Logger
}

// Option customizes an Ingestor.
type Option func(*Ingestor)

// WithReaderFactory replaces the Sheets API reader.
func WithReaderFactory(f ReaderFactory) Option {
	return func(i *Ingestor) {
		if f != nil {
			i.newReader = f
		}
	}
}

// NewIngestor builds a sheet Ingestor.
func NewIngestor(cfg Config, log logger.Logger, opts ...Option) *Ingestor {
	cfg.SpreadsheetID = strings.TrimSpace(cfg.SpreadsheetID)
	i := &Ingestor{
		cfg:       cfg,
		newReader: NewGoogleReader,
		log:       logger.Ensure(log),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// ID returns the source identity.
func (i *Ingestor) ID() string { return SourceID }

// SpreadsheetID returns the configured document identifier.
func (i *Ingestor) SpreadsheetID() string { return i.cfg.SpreadsheetID }

// Fetch reads the sheet. The table always carries the five expected columns; on failure it has
// no rows and the error describes the cause.
func (i *Ingestor) Fetch(ctx context.Context) (domain.SheetTable, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	values, err := i.readValues(ctx)
	if err != nil {
		i.log.WarnObj("sheet fetch failed", "sheet_fetch_error", map[string]any{
			"spreadsheet_id": i.cfg.SpreadsheetID,
			"error":          err.Error(),
		})
		return domain.EmptySheetTable(), err
	}

	if len(values) > 0 {
		if missing := MissingColumns(values[0]); len(missing) > 0 {
			i.log.InfoObj("sheet columns synthesized", "sheet_columns_missing", map[string]any{
				"spreadsheet_id": i.cfg.SpreadsheetID,
				"missing":        missing,
			})
		}
	}

	table := BuildTable(values)
	i.log.InfoObj("sheet fetched", "sheet_fetch_done", map[string]any{
		"spreadsheet_id": i.cfg.SpreadsheetID,
		"rows":           len(table.Rows),
	})
	return table, nil
}

func (i *Ingestor) readValues(ctx context.Context) ([][]any, error) {
	creds, err := LoadCredentials(i.cfg.CredentialsJSON, i.cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}
	if i.cfg.SpreadsheetID == "" {
		return nil, errors.New("spreadsheet id is empty")
	}

	reader, err := i.newReader(ctx, creds, i.cfg.SpreadsheetID)
	if err != nil {
		return nil, fmt.Errorf("authenticate spreadsheet client: %w", err)
	}

	values, err := reader.ReadFirstWorksheet(ctx)
	if err != nil {
		return nil, fmt.Errorf("read spreadsheet: %w", err)
	}
	return values, nil
}
