// Package backend selects the spreadsheet exporter the report is published to.
package backend

import (
	"context"

	"muckraker/internal/sheets"
)

// Factory creates exporters based on configuration
type Factory interface {
	// CreateExporter returns nil without error for NoneBackend.
	CreateExporter(ctx context.Context, config Config) (sheets.DataSetExporter, error)
}

// Config holds configuration for exporter creation
type Config struct {
	Type BackendType

	// Google Sheets specific
	SpreadsheetID      string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// BackendType represents the type of export backend
type BackendType string

const (
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
	NoneBackend   BackendType = "none"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SheetsBackend, MemoryBackend, NoneBackend:
		return true
	default:
		return false
	}
}
