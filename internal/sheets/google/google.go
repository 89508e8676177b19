// Package google exports datasets to a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"muckraker/internal/core"
	"muckraker/internal/log"
	ports "muckraker/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *log.Logger
}

var _ ports.DataSetExporter = (*Client)(nil)

// Credentials selects the service account used for the API. JSON wins over File.
type Credentials struct {
	JSON string
	File string
}

func (c Credentials) load() ([]byte, error) {
	switch {
	case strings.TrimSpace(c.JSON) != "":
		return []byte(c.JSON), nil
	case strings.TrimSpace(c.File) != "":
		b, err := os.ReadFile(c.File)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// New creates a client authenticated with a service account.
func New(ctx context.Context, spreadsheetID string, creds Credentials, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	credentialsJSON, err := creds.load()
	if err != nil {
		return nil, err
	}
	return NewWithOptions(ctx, spreadsheetID, logger,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// NewWithOptions creates a client from raw API options, e.g. a custom endpoint.
func NewWithOptions(ctx context.Context, spreadsheetID string, logger *log.Logger, opts ...goption.ClientOption) (*Client, error) {
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		logger:        logger.WithComponent(log.ComponentSheets),
	}, nil
}

// Export writes every dataset to its own tab. Missing tabs are created,
// existing ones are cleared before writing.
func (c *Client) Export(ctx context.Context, sets []core.DataSet) error {
	if len(sets) == 0 {
		return nil
	}
	names := ports.TabNames(sets)

	if err := c.ensureTabs(ctx, names); err != nil {
		return err
	}

	ranges := make([]string, len(names))
	data := make([]*gsheet.ValueRange, len(sets))
	for i, ds := range sets {
		ranges[i] = quote(names[i])
		data[i] = &gsheet.ValueRange{
			Range:  quote(names[i]) + "!A1",
			Values: ports.Values(ds),
		}
	}

	_, err := c.svc.Spreadsheets.Values.BatchClear(c.spreadsheetID, &gsheet.BatchClearValuesRequest{Ranges: ranges}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear tabs: %w", err)
	}

	_, err = c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write datasets: %w", err)
	}

	c.logger.InfoContext(ctx, "Datasets exported",
		log.FieldOperation, log.OpExport,
		"spreadsheet_id", c.spreadsheetID,
		"tabs", len(names))
	return nil
}

func (c *Client) ensureTabs(ctx context.Context, names []string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	existing := make(map[string]bool, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			existing[sh.Properties.Title] = true
		}
	}

	var requests []*gsheet.Request
	for _, name := range names {
		if existing[name] {
			continue
		}
		requests = append(requests, &gsheet.Request{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: name}},
		})
	}
	if len(requests) == 0 {
		return nil
	}

	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{Requests: requests}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("create tabs: %w", err)
	}
	c.logger.DebugContext(ctx, "Created tabs", "count", len(requests))
	return nil
}

// quote wraps a tab name for A1 notation.
func quote(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
