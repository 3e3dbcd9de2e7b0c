package models

// Diagnostic codes.
const (
	DiagUnmatchedDataPoint      = "unmatched_data_point"
	DiagUnmatchedSourceOfData   = "unmatched_source_of_data"
	DiagUnmatchedTimeAxis       = "unmatched_time_axis"
	DiagDuplicatePresentation   = "duplicate_presentation_row"
	DiagEmptyReportKeyInitials  = "empty_report_key_initials"
	DiagMissingPresentationData = "missing_presentation"
)

// Diagnostic is a non-fatal finding produced while building a table.
// The catalog core returns diagnostics instead of logging them.
type Diagnostic struct {
	Table   string   `json:"table" yaml:"table"`
	Code    string   `json:"code" yaml:"code"`
	Message string   `json:"message" yaml:"message"`
	Values  []string `json:"values,omitempty" yaml:"values,omitempty"`
}
