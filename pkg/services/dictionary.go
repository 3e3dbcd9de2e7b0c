package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ekaya-inc/ekaya-dictionary/pkg/adapters/workbook"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/catalog"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/config"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/logging"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/models"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/repositories"
)

// WorkbookInput is an uploaded .xlsx file.
type WorkbookInput struct {
	Name    string
	Content []byte
}

// NormalizeRequest describes one pipeline run.
type NormalizeRequest struct {
	Origin string
	// Presentation is optional. Without it the data point table has no descriptive columns.
	Presentation *WorkbookInput
	Source       WorkbookInput
}

// NormalizeOutput is the outcome of a pipeline run.
type NormalizeOutput struct {
	Run      *models.CatalogRun
	Result   *catalog.Result
	Workbook []byte
	// Persisted is true when the run was stored in the run store.
	Persisted bool
}

// RunDetail is a stored run with the summaries of its tables.
type RunDetail struct {
	Run    *models.CatalogRun    `json:"run"`
	Tables []models.TableSummary `json:"tables"`
}

// DictionaryService runs the normalization pipeline over uploaded workbooks and manages stored runs.
type DictionaryService interface {
	// LoadInputs decodes the presentation (optional) and source workbooks concurrently.
	LoadInputs(ctx context.Context, presentation *WorkbookInput, source WorkbookInput) (*models.Table, *models.Table, error)

	// Normalize runs the pipeline and renders the normalized workbook.
	Normalize(ctx context.Context, req NormalizeRequest) (*NormalizeOutput, error)

	// EnrichSimilar adds the similar-data column to the Table_DATA sheet of a normalized workbook.
	EnrichSimilar(ctx context.Context, input WorkbookInput) ([]byte, error)

	// StoreEnabled reports whether runs are persisted.
	StoreEnabled() bool

	ListRuns(ctx context.Context, limit int) ([]*models.CatalogRun, error)
	GetRun(ctx context.Context, id uuid.UUID) (*RunDetail, error)
	GetRunTable(ctx context.Context, id uuid.UUID, name string) (*models.Table, error)

	// EnrichRunSimilar runs the similarity pass on a stored run and saves the result.
	EnrichRunSimilar(ctx context.Context, id uuid.UUID) (*models.Table, error)
}

type dictionaryService struct {
	cfg    config.DictionaryConfig
	runs   repositories.CatalogRunRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewDictionaryService creates a DictionaryService. runs may be nil, in which case nothing is
// persisted and the run endpoints return apperrors.ErrStoreDisabled.
func NewDictionaryService(cfg config.DictionaryConfig, runs repositories.CatalogRunRepository, logger *zap.Logger) DictionaryService {
	return &dictionaryService{
		cfg:    cfg,
		runs:   runs,
		logger: logger.Named("dictionary"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

var _ DictionaryService = (*dictionaryService)(nil)

func (s *dictionaryService) StoreEnabled() bool {
	return s.runs != nil
}

func (s *dictionaryService) similarityOptions() catalog.SimilarityOptions {
	return catalog.SimilarityOptions{GroupEmptyDescriptions: s.cfg.GroupEmptyDescriptions}
}

func (s *dictionaryService) LoadInputs(ctx context.Context, presentation *WorkbookInput, source WorkbookInput) (*models.Table, *models.Table, error) {
	var presTable, sourceTable *models.Table

	g, ctx := errgroup.WithContext(ctx)
	if presentation != nil {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := workbook.ReadTable(bytes.NewReader(presentation.Content), s.cfg.PresentationSheet, models.TablePresentation)
			if err != nil {
				return fmt.Errorf("read presentation workbook %q: %w", logging.SanitizeFileName(presentation.Name), err)
			}
			presTable = t
			return nil
		})
	}
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, err := workbook.ReadTable(bytes.NewReader(source.Content), s.cfg.SourceSheet, models.TableSource)
		if err != nil {
			return fmt.Errorf("read source workbook %q: %w", logging.SanitizeFileName(source.Name), err)
		}
		sourceTable = t
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return presTable, sourceTable, nil
}

func (s *dictionaryService) Normalize(ctx context.Context, req NormalizeRequest) (*NormalizeOutput, error) {
	presentation, source, err := s.LoadInputs(ctx, req.Presentation, req.Source)
	if err != nil {
		return nil, err
	}

	run := &models.CatalogRun{
		ID:         uuid.New(),
		Origin:     req.Origin,
		SourceFile: logging.SanitizeFileName(req.Source.Name),
		SourceRows: source.Len(),
		CreatedAt:  s.now(),
	}
	if req.Presentation != nil {
		run.PresentationFile = logging.SanitizeFileName(req.Presentation.Name)
	}

	logger := s.logger.With(zap.String("run_id", run.ID.String()), zap.String("origin", run.Origin))
	logger.Info("Normalizing dictionary",
		zap.String("source_file", run.SourceFile),
		zap.String("presentation_file", run.PresentationFile),
		zap.Int("source_rows", run.SourceRows))

	result, err := catalog.Run(presentation, source)
	if err != nil {
		logger.Error("Pipeline failed", zap.Error(err))
		return nil, err
	}

	for _, d := range result.Diagnostics {
		logger.Warn(d.Message,
			zap.String("table", d.Table),
			zap.String("code", d.Code),
			zap.Strings("values", d.Values))
	}

	run.Diagnostics = result.Diagnostics
	run.Tables = result.Tables()

	var buf bytes.Buffer
	if err := workbook.Write(&buf, run.Tables); err != nil {
		return nil, fmt.Errorf("write normalized workbook: %w", err)
	}

	out := &NormalizeOutput{Run: run, Result: result, Workbook: buf.Bytes()}

	if s.runs != nil {
		if err := s.runs.Create(ctx, run); err != nil {
			logger.Error("Failed to store run", zap.String("error", logging.SanitizeError(err)))
			return nil, fmt.Errorf("store run: %w", err)
		}
		out.Persisted = true
	}

	logger.Info("Dictionary normalized",
		zap.Int("tables", len(run.Tables)),
		zap.Int("data_points", result.DataPoints.Len()),
		zap.Int("reports", result.Reports.Len()),
		zap.Int("diagnostics", len(result.Diagnostics)),
		zap.Bool("persisted", out.Persisted))

	return out, nil
}

func (s *dictionaryService) EnrichSimilar(ctx context.Context, input WorkbookInput) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sheets, err := workbook.ReadAll(bytes.NewReader(input.Content))
	if err != nil {
		return nil, fmt.Errorf("read workbook %q: %w", logging.SanitizeFileName(input.Name), err)
	}

	enriched, err := catalog.EnrichWorkbookSimilarity(sheets, s.similarityOptions())
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := workbook.Write(&buf, enriched); err != nil {
		return nil, fmt.Errorf("write enriched workbook: %w", err)
	}

	s.logger.Info("Similar data enriched",
		zap.String("file", logging.SanitizeFileName(input.Name)),
		zap.Int("sheets", len(enriched)))
	return buf.Bytes(), nil
}

func (s *dictionaryService) ListRuns(ctx context.Context, limit int) ([]*models.CatalogRun, error) {
	if s.runs == nil {
		return nil, apperrors.ErrStoreDisabled
	}
	return s.runs.List(ctx, limit)
}

func (s *dictionaryService) GetRun(ctx context.Context, id uuid.UUID) (*RunDetail, error) {
	if s.runs == nil {
		return nil, apperrors.ErrStoreDisabled
	}

	run, err := s.runs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tables, err := s.runs.ListTables(ctx, id)
	if err != nil {
		return nil, err
	}
	return &RunDetail{Run: run, Tables: tables}, nil
}

func (s *dictionaryService) GetRunTable(ctx context.Context, id uuid.UUID, name string) (*models.Table, error) {
	if s.runs == nil {
		return nil, apperrors.ErrStoreDisabled
	}
	return s.runs.GetTable(ctx, id, name)
}

func (s *dictionaryService) EnrichRunSimilar(ctx context.Context, id uuid.UUID) (*models.Table, error) {
	if s.runs == nil {
		return nil, apperrors.ErrStoreDisabled
	}

	dataPoints, err := s.runs.GetTable(ctx, id, models.TableDataPoints)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if _, runErr := s.runs.GetByID(ctx, id); runErr != nil {
				return nil, runErr
			}
			return nil, fmt.Errorf("%w: %q", apperrors.ErrSheetNotFound, models.TableDataPoints)
		}
		return nil, err
	}

	enriched, err := catalog.EnrichSimilarity(dataPoints, s.similarityOptions())
	if err != nil {
		return nil, err
	}

	if err := s.runs.SaveSimilarity(ctx, id, enriched, s.now()); err != nil {
		return nil, fmt.Errorf("save similarity: %w", err)
	}

	s.logger.Info("Similar data enriched for stored run",
		zap.String("run_id", id.String()),
		zap.Int("data_points", enriched.Len()))
	return enriched, nil
}
