package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ekaya-inc/ekaya-dictionary/pkg/services"
)

// HealthToolDeps contains dependencies for the health tool.
type HealthToolDeps struct {
	Version string
	Service services.DictionaryService
	// BaseDir is the directory relative tool paths resolve against, empty when unrestricted.
	BaseDir string
}

type healthResult struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	// RunStore is "enabled" when normalization runs are persisted.
	RunStore string `json:"run_store"`
	// BaseDir is absolute. Omitted when tools accept any path.
	BaseDir string `json:"base_dir,omitempty"`
}

// RegisterHealthTool adds a health check tool to the MCP server.
// Besides status and version it tells clients whether runs are stored and where relative
// workbook paths are resolved.
func RegisterHealthTool(s *server.MCPServer, deps *HealthToolDeps) {
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Returns server health status, version, run store state and the base directory of workbook paths"),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		health := healthResult{Status: "ok", Version: deps.Version, RunStore: "disabled"}
		if deps.Service != nil && deps.Service.StoreEnabled() {
			health.RunStore = "enabled"
		}
		if deps.BaseDir != "" {
			base, err := filepath.Abs(deps.BaseDir)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve base directory: %w", err)
			}
			health.BaseDir = base
		}

		result, err := json.Marshal(health)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal health result: %w", err)
		}
		return mcp.NewToolResultText(string(result)), nil
	})
}
