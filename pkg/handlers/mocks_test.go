package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-dictionary/pkg/adapters/workbook"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/models"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/repositories"
)

// memoryRunRepository keeps runs in memory for handler tests.
type memoryRunRepository struct {
	mu     sync.Mutex
	runs   []*models.CatalogRun
	tables map[uuid.UUID][]*models.Table
}

func newMemoryRunRepository() *memoryRunRepository {
	return &memoryRunRepository{tables: make(map[uuid.UUID][]*models.Table)}
}

var _ repositories.CatalogRunRepository = (*memoryRunRepository)(nil)

func (m *memoryRunRepository) Create(ctx context.Context, run *models.CatalogRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *run
	stored.Tables = nil
	m.runs = append(m.runs, &stored)
	for _, t := range run.Tables {
		m.tables[run.ID] = append(m.tables[run.ID], t.Clone())
	}
	return nil
}

func (m *memoryRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CatalogRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memoryRunRepository) List(ctx context.Context, limit int) ([]*models.CatalogRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.CatalogRun(nil), m.runs...), nil
}

func (m *memoryRunRepository) ListTables(ctx context.Context, runID uuid.UUID) ([]models.TableSummary, error) {
	if _, err := m.GetByID(ctx, runID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.TableSummary, 0)
	for _, t := range m.tables[runID] {
		out = append(out, models.TableSummary{Name: t.Name, Columns: t.Columns(), RowCount: t.Len()})
	}
	return out, nil
}

func (m *memoryRunRepository) GetTable(ctx context.Context, runID uuid.UUID, name string) (*models.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tables[runID] {
		if t.Name == name {
			return t.Clone(), nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memoryRunRepository) SaveSimilarity(ctx context.Context, runID uuid.UUID, dataPoints *models.Table, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.tables[runID] {
		if t.Name == dataPoints.Name {
			m.tables[runID][i] = dataPoints.Clone()
			for _, r := range m.runs {
				if r.ID == runID {
					r.SimilarityAt = &at
				}
			}
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *memoryRunRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

// ============================================================================
// Upload fixtures
// ============================================================================

type upload struct {
	field, name string
	content     []byte
}

func xlsx(t *testing.T, tables ...*models.Table) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, workbook.Write(&buf, tables))
	return buf.Bytes()
}

func sourceXLSX(t *testing.T) []byte {
	t.Helper()
	src := models.NewTable("Feuil1", models.SourceColumns...)
	src.AppendRow(
		models.TextCell("Suivi des volumes"),
		models.TextCell("Volume Colis"),
		models.TextCell("Site, Agence"),
		models.TextCell("Equipe Logistique"),
		models.TextCell("Semaine"),
		models.TextCell("Date"),
	)
	return xlsx(t, src)
}

func presentationXLSX(t *testing.T) []byte {
	t.Helper()
	pres := models.NewTable("Table DATA", models.ColData, models.ColDataDescription)
	pres.AppendRow(models.TextCell("site"), models.TextCell("Lieu de traitement"))
	pres.AppendRow(models.TextCell("agence"), models.TextCell("Lieu de traitement"))
	return xlsx(t, pres)
}

// multipartBody encodes uploads as a multipart form and returns the body with its content type.
func multipartBody(t *testing.T, uploads ...upload) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, u := range uploads {
		part, err := mw.CreateFormFile(u.field, u.name)
		require.NoError(t, err)
		_, err = part.Write(u.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}
