package backend

import (
	"context"
	"fmt"

	"muckraker/internal/log"
	"muckraker/internal/sheets"
	gsheet "muckraker/internal/sheets/google"
	"muckraker/internal/sheets/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

var _ Factory = (*DefaultFactory)(nil)

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentSheets)}
}

// CreateExporter implements Factory.CreateExporter
func (f *DefaultFactory) CreateExporter(ctx context.Context, config Config) (sheets.DataSetExporter, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case SheetsBackend:
		client, err := gsheet.New(ctx, config.SpreadsheetID, gsheet.Credentials{
			JSON: config.ServiceAccountJSON,
			File: config.ServiceAccountFile,
		}, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized Google Sheets backend", "spreadsheet_id", config.SpreadsheetID)
		return client, nil
	case MemoryBackend:
		f.logger.InfoContext(ctx, "Initialized memory backend")
		return memory.New(), nil
	default:
		return nil, nil
	}
}
