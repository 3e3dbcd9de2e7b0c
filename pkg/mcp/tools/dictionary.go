// Package tools provides the MCP tools of the dictionary server.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-dictionary/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/logging"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/models"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/services"
)

// Default output file names, matching the downloads of the HTTP API.
const (
	DefaultNormalizedFileName = "fichier_transforme.xlsx"
	DefaultSimilarFileName    = "Powerapp Dictionnaire des données BU Colissimo.xlsx"
)

// DictionaryToolDeps contains dependencies for the dictionary tools.
type DictionaryToolDeps struct {
	Service services.DictionaryService
	// BaseDir confines every path argument when set. Relative paths are resolved against it.
	BaseDir string
	// MaxFileBytes rejects larger input workbooks. Zero disables the check.
	MaxFileBytes int64
	Logger       *zap.Logger
}

// RegisterDictionaryTools registers the normalization tools.
func RegisterDictionaryTools(s *server.MCPServer, deps *DictionaryToolDeps) {
	registerNormalizeDictionaryTool(s, deps)
	registerEnrichSimilarDataTool(s, deps)
}

type normalizeDictionaryResult struct {
	RunID       string                `json:"run_id"`
	OutputPath  string                `json:"output_path"`
	Persisted   bool                  `json:"persisted"`
	Tables      []models.TableSummary `json:"tables"`
	Diagnostics []models.Diagnostic   `json:"diagnostics"`
}

type enrichSimilarDataResult struct {
	OutputPath string `json:"output_path"`
	Bytes      int    `json:"bytes"`
}

func registerNormalizeDictionaryTool(s *server.MCPServer, deps *DictionaryToolDeps) {
	tool := mcp.NewTool(
		"normalize_dictionary",
		mcp.WithDescription(
			"Normalize a denormalized data dictionary workbook into the seven relational tables "+
				"(Table_DATA, Table_Prompt, Table_PO_DATA, Table_Rapport_Prompt, Table_Rapport_Data, "+
				"Table_AxeTemps, Table_Rapport) and write them to a new .xlsx workbook. "+
				"Returns the run id, the output path, a summary of every table and the diagnostics "+
				"(unmatched data points, sources of data or time axes).",
		),
		mcp.WithString(
			"source_path",
			mcp.Required(),
			mcp.Description("Path of the source dictionary workbook (.xlsx)"),
		),
		mcp.WithString(
			"presentation_path",
			mcp.Description("Optional path of the presentation dictionary workbook, read from its 'Table DATA' sheet"),
		),
		mcp.WithString(
			"output_path",
			mcp.Description("Optional path of the workbook to write. Defaults to "+DefaultNormalizedFileName+" next to the source workbook"),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sourceArg, err := req.RequireString("source_path")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		if trimString(sourceArg) == "" {
			return NewErrorResult("invalid_parameters", "source_path cannot be empty"), nil
		}

		sourcePath, err := resolvePath(deps.BaseDir, trimString(sourceArg))
		if err != nil {
			return errorResult(err)
		}
		source, err := readWorkbookFile(sourcePath, deps.MaxFileBytes)
		if err != nil {
			return errorResult(err)
		}

		normalizeReq := services.NormalizeRequest{
			Origin: models.RunOriginMCP,
			Source: *source,
		}
		if p := trimString(getOptionalString(req, "presentation_path")); p != "" {
			presentationPath, err := resolvePath(deps.BaseDir, p)
			if err != nil {
				return errorResult(err)
			}
			if normalizeReq.Presentation, err = readWorkbookFile(presentationPath, deps.MaxFileBytes); err != nil {
				return errorResult(err)
			}
		}

		outputPath := filepath.Join(filepath.Dir(sourcePath), DefaultNormalizedFileName)
		if p := trimString(getOptionalString(req, "output_path")); p != "" {
			if outputPath, err = resolvePath(deps.BaseDir, p); err != nil {
				return errorResult(err)
			}
		}

		out, err := deps.Service.Normalize(ctx, normalizeReq)
		if err != nil {
			return errorResult(err)
		}
		if err := os.WriteFile(outputPath, out.Workbook, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write normalized workbook: %w", err)
		}

		deps.Logger.Info("Normalized workbook written",
			zap.String("run_id", out.Run.ID.String()),
			zap.String("output", logging.SanitizeFileName(outputPath)))

		result := normalizeDictionaryResult{
			RunID:       out.Run.ID.String(),
			OutputPath:  outputPath,
			Persisted:   out.Persisted,
			Tables:      make([]models.TableSummary, 0, len(out.Run.Tables)),
			Diagnostics: out.Result.Diagnostics,
		}
		if result.Diagnostics == nil {
			result.Diagnostics = []models.Diagnostic{}
		}
		for _, t := range out.Run.Tables {
			result.Tables = append(result.Tables, t.Summary())
		}

		jsonResult, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}

func registerEnrichSimilarDataTool(s *server.MCPServer, deps *DictionaryToolDeps) {
	tool := mcp.NewTool(
		"enrich_similar_data",
		mcp.WithDescription(
			"Add the 'données similaires' column to the Table_DATA sheet of a normalized workbook. "+
				"Data points sharing the same description are listed as similar to each other. "+
				"Every other sheet is copied unchanged.",
		),
		mcp.WithString(
			"workbook_path",
			mcp.Required(),
			mcp.Description("Path of a workbook produced by normalize_dictionary"),
		),
		mcp.WithString(
			"output_path",
			mcp.Description("Optional path of the workbook to write. Defaults to '"+DefaultSimilarFileName+"' next to the input workbook"),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		workbookArg, err := req.RequireString("workbook_path")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		if trimString(workbookArg) == "" {
			return NewErrorResult("invalid_parameters", "workbook_path cannot be empty"), nil
		}

		inputPath, err := resolvePath(deps.BaseDir, trimString(workbookArg))
		if err != nil {
			return errorResult(err)
		}
		input, err := readWorkbookFile(inputPath, deps.MaxFileBytes)
		if err != nil {
			return errorResult(err)
		}

		outputPath := filepath.Join(filepath.Dir(inputPath), DefaultSimilarFileName)
		if p := trimString(getOptionalString(req, "output_path")); p != "" {
			if outputPath, err = resolvePath(deps.BaseDir, p); err != nil {
				return errorResult(err)
			}
		}

		data, err := deps.Service.EnrichSimilar(ctx, *input)
		if err != nil {
			return errorResult(err)
		}
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write enriched workbook: %w", err)
		}

		jsonResult, err := json.Marshal(enrichSimilarDataResult{OutputPath: outputPath, Bytes: len(data)})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}

// resolvePath cleans p and, when baseDir is set, resolves it against baseDir and rejects
// anything that escapes it.
func resolvePath(baseDir, p string) (string, error) {
	if baseDir == "" {
		return filepath.Abs(p)
	}

	base, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("resolve base directory: %w", err)
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(base, p)
	}
	p = filepath.Clean(p)

	rel, err := filepath.Rel(base, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path %q is outside the allowed directory", apperrors.ErrInvalidInput, p)
	}
	return p, nil
}

func readWorkbookFile(path string, maxBytes int64) (*services.WorkbookInput, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: workbook %q", apperrors.ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat workbook: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %q is a directory", apperrors.ErrInvalidInput, path)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return nil, fmt.Errorf("%w: workbook %q is %d bytes, limit is %d", apperrors.ErrInvalidInput, path, info.Size(), maxBytes)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	return &services.WorkbookInput{Name: filepath.Base(path), Content: content}, nil
}
