package models

import (
	"time"

	"github.com/google/uuid"
)

// Origin values for catalog runs
const (
	RunOriginHTTP = "http" // Uploaded through the HTTP API
	RunOriginMCP  = "mcp"  // Triggered by an MCP client
	RunOriginCLI  = "cli"  // Local command line
)

// CatalogRun is one execution of the normalization pipeline.
// Stored in engine_catalog_runs; its tables live in engine_catalog_tables.
type CatalogRun struct {
	ID               uuid.UUID    `json:"id"`
	Origin           string       `json:"origin"`
	PresentationFile string       `json:"presentation_file,omitempty"`
	SourceFile       string       `json:"source_file"`
	SourceRows       int          `json:"source_rows"`
	Diagnostics      []Diagnostic `json:"diagnostics"`
	CreatedAt        time.Time    `json:"created_at"`
	SimilarityAt     *time.Time   `json:"similarity_at,omitempty"` // Set once the similarity pass ran on the run's Table_DATA
	Tables           []*Table     `json:"tables,omitempty"`
}

// TableSummary describes a stored table without its rows.
type TableSummary struct {
	Name     string   `json:"name" yaml:"name"`
	Columns  []string `json:"columns" yaml:"columns"`
	RowCount int      `json:"row_count" yaml:"row_count"`
}

// Summary describes t without its rows.
func (t *Table) Summary() TableSummary {
	return TableSummary{Name: t.Name, Columns: t.Columns(), RowCount: t.Len()}
}
