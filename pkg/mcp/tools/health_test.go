package tools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-dictionary/pkg/services"
)

// storeState reports a fixed run store state; every other method panics if called.
type storeState struct {
	services.DictionaryService
	enabled bool
}

func (s storeState) StoreEnabled() bool { return s.enabled }

func callHealth(t *testing.T, deps *HealthToolDeps) healthResult {
	t.Helper()
	mcpServer := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	RegisterHealthTool(mcpServer, deps)

	r := callTool(t, mcpServer, "health", map[string]any{})
	require.False(t, r.IsError, r.Text)

	var health healthResult
	require.NoError(t, json.Unmarshal([]byte(r.Text), &health))
	return health
}

func TestRegisterHealthTool_List(t *testing.T) {
	mcpServer := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	RegisterHealthTool(mcpServer, &HealthToolDeps{Version: "test-version"})

	resultBytes, err := json.Marshal(mcpServer.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"tools/list","id":1}`)))
	require.NoError(t, err)

	var response struct {
		Result struct {
			Tools []struct {
				Name        string `json:"name"`
				Description string `json:"description"`
				Annotations struct {
					ReadOnlyHint *bool `json:"readOnlyHint"`
				} `json:"annotations"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(resultBytes, &response))

	require.Len(t, response.Result.Tools, 1)
	tool := response.Result.Tools[0]
	assert.Equal(t, "health", tool.Name)
	assert.Contains(t, tool.Description, "run store")
	require.NotNil(t, tool.Annotations.ReadOnlyHint)
	assert.True(t, *tool.Annotations.ReadOnlyHint)
}

func TestHealthTool_RunStore(t *testing.T) {
	tests := []struct {
		name    string
		service services.DictionaryService
		want    string
	}{
		{"no service", nil, "disabled"},
		{"store disabled", storeState{enabled: false}, "disabled"},
		{"store enabled", storeState{enabled: true}, "enabled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			health := callHealth(t, &HealthToolDeps{Version: "1.2.3", Service: tt.service})
			assert.Equal(t, "ok", health.Status)
			assert.Equal(t, "1.2.3", health.Version)
			assert.Equal(t, tt.want, health.RunStore)
		})
	}
}

func TestHealthTool_BaseDir(t *testing.T) {
	health := callHealth(t, &HealthToolDeps{Version: "1.2.3"})
	assert.Empty(t, health.BaseDir, "unrestricted paths report no base directory")

	dir := t.TempDir()
	health = callHealth(t, &HealthToolDeps{Version: "1.2.3", BaseDir: dir})
	assert.Equal(t, dir, health.BaseDir)

	abs, err := filepath.Abs("workbooks")
	require.NoError(t, err)
	health = callHealth(t, &HealthToolDeps{Version: "1.2.3", BaseDir: "workbooks"})
	assert.Equal(t, abs, health.BaseDir)
}

func TestHealthTool_VersionWithSpecialChars(t *testing.T) {
	version := `1.0.0-beta"test`
	health := callHealth(t, &HealthToolDeps{Version: version})
	assert.Equal(t, version, health.Version)
}

func TestHealthTool_MatchesDictionaryToolBaseDir(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, filepath.Join(dir, "Source.xlsx"), sourceTable())

	mcpServer := newDictionaryToolServer(t, dir)
	RegisterHealthTool(mcpServer, &HealthToolDeps{Version: "1.2.3", BaseDir: dir})

	r := callTool(t, mcpServer, "health", map[string]any{})
	require.False(t, r.IsError, r.Text)
	var health healthResult
	require.NoError(t, json.Unmarshal([]byte(r.Text), &health))

	// a path relative to the reported base directory is accepted by normalize_dictionary
	rel, err := filepath.Rel(health.BaseDir, filepath.Join(dir, "Source.xlsx"))
	require.NoError(t, err)
	r = callTool(t, mcpServer, "normalize_dictionary", map[string]any{"source_path": rel})
	require.False(t, r.IsError, r.Text)
}
