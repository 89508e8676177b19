package backend

import "muckraker/internal/config"

// ConfigFromApp picks the backend for the process configuration. A dry run
// always stays in memory; without a spreadsheet id nothing is exported.
func ConfigFromApp(cfg *config.Config, dryRun bool) Config {
	c := Config{
		Type:               NoneBackend,
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	}
	switch {
	case dryRun:
		c.Type = MemoryBackend
	case cfg.GoogleSpreadsheetID != "":
		c.Type = SheetsBackend
	}
	return c
}
