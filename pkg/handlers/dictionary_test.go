package handlers

import (
	"bytes"
	"encoding/json"
	"mime"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-dictionary/pkg/adapters/workbook"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/models"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/repositories"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/services"
)

func newDictionaryMux(t *testing.T, repo repositories.CatalogRunRepository) *http.ServeMux {
	t.Helper()
	cfg := testConfig()
	svc := services.NewDictionaryService(cfg.Dictionary, repo, zap.NewNop())
	mux := http.NewServeMux()
	NewDictionaryHandler(svc, cfg.Dictionary, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func postUploads(t *testing.T, mux *http.ServeMux, path string, uploads ...upload) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, uploads...)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func attachmentName(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	_, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	return params["filename"]
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body["error"]
}

func sheetsOf(t *testing.T, content []byte) []*models.Table {
	t.Helper()
	sheets, err := workbook.ReadAll(bytes.NewReader(content))
	require.NoError(t, err)
	return sheets
}

func TestDictionaryHandler_Normalize_ClassifiesByName(t *testing.T) {
	mux := newDictionaryMux(t, nil)

	rec := postUploads(t, mux, "/api/etl",
		upload{"files", "Source Dictionnaire des données BU Colissimo.xlsx", sourceXLSX(t)},
		upload{"files", "Powerapp Dictionnaire des données BU Colissimo.xlsx", presentationXLSX(t)},
	)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, workbook.ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, "fichier_transforme.xlsx", attachmentName(t, rec))
	assert.NotEmpty(t, rec.Header().Get(HeaderRunID))
	assert.Equal(t, "0", rec.Header().Get(HeaderDiagnostics))

	sheets := sheetsOf(t, rec.Body.Bytes())
	names := make([]string, len(sheets))
	for i, s := range sheets {
		names[i] = s.Name
	}
	assert.Equal(t, models.OutputOrder, names)
	assert.Equal(t, "Lieu de traitement", sheets[0].Text(1, models.ColDataDescription))
}

func TestDictionaryHandler_Normalize_ExplicitSourceOnly(t *testing.T) {
	mux := newDictionaryMux(t, nil)

	rec := postUploads(t, mux, "/api/etl", upload{"source", "export.xlsx", sourceXLSX(t)})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get(HeaderDiagnostics))
	assert.Len(t, sheetsOf(t, rec.Body.Bytes()), len(models.OutputOrder)+1)
}

func TestDictionaryHandler_Normalize_JSON(t *testing.T) {
	mux := newDictionaryMux(t, nil)

	rec := postUploads(t, mux, "/api/etl?format=json",
		upload{"presentation", "p.xlsx", presentationXLSX(t)},
		upload{"source", "s.xlsx", sourceXLSX(t)},
	)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Run struct {
				Origin string          `json:"origin"`
				Tables []*models.Table `json:"tables"`
			} `json:"run"`
			Persisted bool `json:"persisted"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.False(t, body.Data.Persisted)
	assert.Equal(t, models.RunOriginHTTP, body.Data.Run.Origin)
	require.Len(t, body.Data.Run.Tables, len(models.OutputOrder))
	assert.Equal(t, []string{"volume colis", "site", "agence"}, columnValues(body.Data.Run.Tables[0], models.ColData))
}

func columnValues(table *models.Table, column string) []string {
	out := make([]string, table.Len())
	for i := range out {
		out[i] = table.Text(i, column)
	}
	return out
}

func TestDictionaryHandler_Normalize_RejectsUploads(t *testing.T) {
	mux := newDictionaryMux(t, nil)

	tests := []struct {
		name     string
		uploads  []upload
		wantCode string
	}{
		{
			name:     "single unnamed file",
			uploads:  []upload{{"files", "Powerapp.xlsx", presentationXLSX(t)}},
			wantCode: "invalid_input",
		},
		{
			name: "names without markers",
			uploads: []upload{
				{"files", "a.xlsx", presentationXLSX(t)},
				{"files", "b.xlsx", sourceXLSX(t)},
			},
			wantCode: "invalid_input",
		},
		{
			name: "presentation without Table DATA sheet",
			uploads: []upload{
				{"files", "Powerapp.xlsx", sourceXLSX(t)},
				{"files", "Source.xlsx", sourceXLSX(t)},
			},
			wantCode: "sheet_not_found",
		},
		{
			name: "source missing columns",
			uploads: []upload{
				{"files", "Powerapp.xlsx", presentationXLSX(t)},
				{"files", "Source.xlsx", xlsx(t, func() *models.Table {
					tb := models.NewTable("Feuil1", models.ColReportName)
					tb.AppendRow(models.TextCell("R"))
					return tb
				}())},
			},
			wantCode: "missing_column",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postUploads(t, mux, "/api/etl", tt.uploads...)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, rec))
		})
	}
}

func TestDictionaryHandler_Normalize_NotMultipart(t *testing.T) {
	mux := newDictionaryMux(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/etl", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", errorCode(t, rec))
}

func TestDictionaryHandler_EnrichSimilar(t *testing.T) {
	mux := newDictionaryMux(t, nil)

	etl := postUploads(t, mux, "/api/etl",
		upload{"files", "Powerapp.xlsx", presentationXLSX(t)},
		upload{"files", "Source.xlsx", sourceXLSX(t)},
	)
	require.Equal(t, http.StatusOK, etl.Code)

	rec := postUploads(t, mux, "/api/similar", upload{"file", "fichier_transforme.xlsx", etl.Body.Bytes()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Powerapp Dictionnaire des données BU Colissimo.xlsx", attachmentName(t, rec))

	dataPoints := sheetsOf(t, rec.Body.Bytes())[0]
	require.Equal(t, models.TableDataPoints, dataPoints.Name)
	assert.Equal(t, []string{"", "agence", "site"}, columnValues(dataPoints, models.ColSimilarData))
}

func TestDictionaryHandler_EnrichSimilar_Errors(t *testing.T) {
	mux := newDictionaryMux(t, nil)

	rec := postUploads(t, mux, "/api/similar", upload{"other", "x.xlsx", sourceXLSX(t)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", errorCode(t, rec))

	rec = postUploads(t, mux, "/api/similar", upload{"file", "x.xlsx", sourceXLSX(t)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "sheet_not_found", errorCode(t, rec))
}

func TestDictionaryHandler_RunRoutesRequireStore(t *testing.T) {
	mux := newDictionaryMux(t, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDictionaryHandler_Runs(t *testing.T) {
	repo := newMemoryRunRepository()
	mux := newDictionaryMux(t, repo)

	etl := postUploads(t, mux, "/api/etl",
		upload{"files", "Powerapp.xlsx", presentationXLSX(t)},
		upload{"files", "Source.xlsx", sourceXLSX(t)},
	)
	require.Equal(t, http.StatusOK, etl.Code)
	runID := etl.Header().Get(HeaderRunID)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/api/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data []models.CatalogRun `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, runID, list.Data[0].ID.String())
	assert.Equal(t, "Source.xlsx", list.Data[0].SourceFile)

	rec = get("/api/runs/" + runID)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Data services.RunDetail `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&detail))
	assert.Len(t, detail.Data.Tables, len(models.OutputOrder))

	rec = get("/api/runs/" + runID + "/tables/" + models.TableReports)
	require.Equal(t, http.StatusOK, rec.Code)
	var table struct {
		Data models.Table `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&table))
	assert.Equal(t, "SV0001", table.Data.Text(0, models.ColReportID))

	rec = get("/api/runs/" + runID + "/tables/Table_Inconnue")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get("/api/runs/00000000-0000-0000-0000-000000000000")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get("/api/runs/not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	post := httptest.NewRecorder()
	mux.ServeHTTP(post, httptest.NewRequest(http.MethodPost, "/api/runs/"+runID+"/similar", nil))
	require.Equal(t, http.StatusOK, post.Code, post.Body.String())
	require.NoError(t, json.NewDecoder(post.Body).Decode(&table))
	assert.True(t, table.Data.HasColumn(models.ColSimilarData))
}
