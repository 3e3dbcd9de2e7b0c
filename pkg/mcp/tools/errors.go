package tools

import (
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ekaya-inc/ekaya-dictionary/pkg/apperrors"
)

// ErrorResponse represents a structured error in tool results.
// It is returned as tool result content so the error details stay visible
// to the MCP client instead of being swallowed as a protocol error.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use this for errors the caller can fix (bad path, missing column, wrong sheet).
// System failures (run store down, disk errors) should still return Go errors.
//
// Example:
//
//	if path == "" {
//	    return NewErrorResult("invalid_parameters", "source_path cannot be empty"), nil
//	}
func NewErrorResult(code, message string) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// NewErrorResultWithDetails creates an error result with additional context.
//
// Example:
//
//	return NewErrorResultWithDetails(
//	    "missing_column",
//	    err.Error(),
//	    map[string]any{"table": "source", "column": "KPI"},
//	), nil
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// UserErrorCode returns the error code for errors a caller can fix by changing the tool
// arguments or the input files. It returns "" for system failures, which should be
// returned as Go errors instead.
func UserErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, apperrors.ErrMissingColumn):
		return "missing_column"
	case errors.Is(err, apperrors.ErrSheetNotFound):
		return "sheet_not_found"
	case errors.Is(err, apperrors.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperrors.ErrStoreDisabled):
		return "store_disabled"
	}
	return ""
}

// errorResult turns a user error into an error result and passes anything else through.
// Missing columns carry the table and column as details.
func errorResult(err error) (*mcp.CallToolResult, error) {
	code := UserErrorCode(err)
	if code == "" {
		return nil, err
	}
	var colErr *apperrors.MissingColumnError
	if errors.As(err, &colErr) {
		return NewErrorResultWithDetails(code, err.Error(), map[string]any{
			"table":  colErr.Table,
			"column": colErr.Column,
		}), nil
	}
	return NewErrorResult(code, err.Error()), nil
}
