package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-dictionary/pkg/adapters/workbook"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/config"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/logging"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/models"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/services"
)

const (
	etlPath     = "/api/etl"
	similarPath = "/api/similar"

	etlFileName     = "fichier_transforme.xlsx"
	similarFileName = "Powerapp Dictionnaire des données BU Colissimo.xlsx"

	// Upload names are matched on these markers when no explicit form field is used.
	presentationMarker = "Powerapp"
	sourceMarker       = "Source"

	presentationField = "presentation"
	sourceField       = "source"
	similarField      = "file"

	// HeaderRunID carries the ID of the run that produced a workbook.
	HeaderRunID = "X-Run-ID"
	// HeaderDiagnostics carries the number of warnings raised by the run.
	HeaderDiagnostics = "X-Diagnostics-Count"
)

// EtlResponse is returned by POST /api/etl?format=json.
type EtlResponse struct {
	Run       *models.CatalogRun `json:"run"`
	Persisted bool               `json:"persisted"`
}

// DictionaryHandler handles the dictionary normalization endpoints.
type DictionaryHandler struct {
	svc    services.DictionaryService
	cfg    config.DictionaryConfig
	logger *zap.Logger
}

// NewDictionaryHandler creates a new DictionaryHandler.
func NewDictionaryHandler(svc services.DictionaryService, cfg config.DictionaryConfig, logger *zap.Logger) *DictionaryHandler {
	return &DictionaryHandler{svc: svc, cfg: cfg, logger: logger}
}

// RegisterRoutes registers the dictionary routes. Run routes are only registered when the
// run store is enabled.
func (h *DictionaryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST "+etlPath, h.Normalize)
	mux.HandleFunc("POST "+similarPath, h.EnrichSimilar)

	if !h.svc.StoreEnabled() {
		return
	}
	mux.HandleFunc("GET /api/runs", h.ListRuns)
	mux.HandleFunc("GET /api/runs/{id}", h.GetRun)
	mux.HandleFunc("GET /api/runs/{id}/tables/{table}", h.GetRunTable)
	mux.HandleFunc("POST /api/runs/{id}/similar", h.EnrichRunSimilar)
}

// Normalize handles POST /api/etl
// Expects a multipart form with exactly two .xlsx files. The response is the normalized
// workbook, or the run as JSON when format=json.
func (h *DictionaryHandler) Normalize(w http.ResponseWriter, r *http.Request) {
	form, ok := h.parseForm(w, r)
	if !ok {
		return
	}

	presentation, source, err := classifyUploads(form)
	if err != nil {
		h.writeError(w, err, "Rejected ETL upload")
		return
	}

	out, err := h.svc.Normalize(r.Context(), services.NormalizeRequest{
		Origin:       models.RunOriginHTTP,
		Presentation: presentation,
		Source:       *source,
	})
	if err != nil {
		h.writeError(w, err, "Failed to normalize dictionary")
		return
	}

	w.Header().Set(HeaderRunID, out.Run.ID.String())
	w.Header().Set(HeaderDiagnostics, strconv.Itoa(len(out.Run.Diagnostics)))

	if r.URL.Query().Get("format") == "json" {
		if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: EtlResponse{Run: out.Run, Persisted: out.Persisted}}); err != nil {
			h.logger.Error("Failed to write response", zap.Error(err))
		}
		return
	}

	if err := WriteAttachment(w, etlFileName, workbook.ContentType, out.Workbook); err != nil {
		h.logger.Error("Failed to write workbook", zap.Error(err))
	}
}

// EnrichSimilar handles POST /api/similar
// Expects a multipart form with the normalized workbook in the "file" field.
func (h *DictionaryHandler) EnrichSimilar(w http.ResponseWriter, r *http.Request) {
	form, ok := h.parseForm(w, r)
	if !ok {
		return
	}

	headers := form.File[similarField]
	if len(headers) != 1 {
		h.writeError(w, fmt.Errorf("%w: expected one workbook in field %q", apperrors.ErrInvalidInput, similarField), "Rejected similar-data upload")
		return
	}

	input, err := readUpload(headers[0])
	if err != nil {
		h.writeError(w, err, "Failed to read upload")
		return
	}

	enriched, err := h.svc.EnrichSimilar(r.Context(), *input)
	if err != nil {
		h.writeError(w, err, "Failed to enrich similar data")
		return
	}

	if err := WriteAttachment(w, similarFileName, workbook.ContentType, enriched); err != nil {
		h.logger.Error("Failed to write workbook", zap.Error(err))
	}
}

// ListRuns handles GET /api/runs
func (h *DictionaryHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, ok := ParseLimit(w, r, h.logger)
	if !ok {
		return
	}

	runs, err := h.svc.ListRuns(r.Context(), limit)
	if err != nil {
		h.writeError(w, err, "Failed to list runs")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: runs}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetRun handles GET /api/runs/{id}
func (h *DictionaryHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := ParseRunID(w, r, h.logger)
	if !ok {
		return
	}

	detail, err := h.svc.GetRun(r.Context(), runID)
	if err != nil {
		h.writeError(w, err, "Failed to get run", zap.String("run_id", runID.String()))
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: detail}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetRunTable handles GET /api/runs/{id}/tables/{table}
func (h *DictionaryHandler) GetRunTable(w http.ResponseWriter, r *http.Request) {
	runID, ok := ParseRunID(w, r, h.logger)
	if !ok {
		return
	}
	name := r.PathValue("table")

	table, err := h.svc.GetRunTable(r.Context(), runID, name)
	if err != nil {
		h.writeError(w, err, "Failed to get run table",
			zap.String("run_id", runID.String()),
			zap.String("table", name))
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: table}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// EnrichRunSimilar handles POST /api/runs/{id}/similar
func (h *DictionaryHandler) EnrichRunSimilar(w http.ResponseWriter, r *http.Request) {
	runID, ok := ParseRunID(w, r, h.logger)
	if !ok {
		return
	}

	table, err := h.svc.EnrichRunSimilar(r.Context(), runID)
	if err != nil {
		h.writeError(w, err, "Failed to enrich run", zap.String("run_id", runID.String()))
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: table}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *DictionaryHandler) parseForm(w http.ResponseWriter, r *http.Request) (*multipart.Form, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes())
	if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes()); err != nil {
		h.writeError(w, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err), "Failed to parse upload")
		return nil, false
	}
	return r.MultipartForm, true
}

// writeError logs err and writes the matching error response. Client errors are logged at
// WARN, the rest at ERROR.
func (h *DictionaryHandler) writeError(w http.ResponseWriter, err error, msg string, fields ...zap.Field) {
	status, code := ErrorStatus(err)
	fields = append(fields, zap.Int("status", status), zap.String("error", logging.SanitizeError(err)))
	message := err.Error()
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		h.logger.Error(msg, fields...)
		message = "internal error"
	} else {
		h.logger.Warn(msg, fields...)
	}

	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}

// classifyUploads picks the presentation and source workbooks out of an ETL upload.
// Explicit "presentation" and "source" fields win; otherwise exactly two files are expected
// and told apart by the Powerapp and Source markers in their names.
func classifyUploads(form *multipart.Form) (*services.WorkbookInput, *services.WorkbookInput, error) {
	if src := form.File[sourceField]; len(src) == 1 {
		source, err := readUpload(src[0])
		if err != nil {
			return nil, nil, err
		}
		var presentation *services.WorkbookInput
		if pres := form.File[presentationField]; len(pres) == 1 {
			if presentation, err = readUpload(pres[0]); err != nil {
				return nil, nil, err
			}
		}
		return presentation, source, nil
	}

	var files []*multipart.FileHeader
	for _, headers := range form.File {
		files = append(files, headers...)
	}
	if len(files) != 2 {
		return nil, nil, fmt.Errorf("%w: expected exactly two workbooks (Powerapp and Source), got %d", apperrors.ErrInvalidInput, len(files))
	}

	var presHeader, sourceHeader *multipart.FileHeader
	for _, fh := range files {
		switch {
		case strings.Contains(fh.Filename, presentationMarker):
			presHeader = fh
		case strings.Contains(fh.Filename, sourceMarker):
			sourceHeader = fh
		}
	}
	if presHeader == nil || sourceHeader == nil {
		return nil, nil, fmt.Errorf("%w: file names must contain %q and %q", apperrors.ErrInvalidInput, presentationMarker, sourceMarker)
	}

	presentation, err := readUpload(presHeader)
	if err != nil {
		return nil, nil, err
	}
	source, err := readUpload(sourceHeader)
	if err != nil {
		return nil, nil, err
	}
	return presentation, source, nil
}

func readUpload(fh *multipart.FileHeader) (*services.WorkbookInput, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %q: %w", logging.SanitizeFileName(fh.Filename), err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload %q: %w", logging.SanitizeFileName(fh.Filename), err)
	}
	return &services.WorkbookInput{Name: fh.Filename, Content: content}, nil
}
