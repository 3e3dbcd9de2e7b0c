package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/ekaya-dictionary/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/database"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/models"
)

// DefaultRunListLimit caps List when the caller passes a non-positive limit.
const DefaultRunListLimit = 50

// CatalogRunRepository provides data access for pipeline runs and their normalized tables.
type CatalogRunRepository interface {
	// Create stores the run and every table in run.Tables atomically.
	// A zero run.ID is assigned a new UUID.
	Create(ctx context.Context, run *models.CatalogRun) error
	// GetByID returns the run without its tables.
	GetByID(ctx context.Context, id uuid.UUID) (*models.CatalogRun, error)
	// List returns the most recent runs first, without their tables.
	List(ctx context.Context, limit int) ([]*models.CatalogRun, error)
	ListTables(ctx context.Context, runID uuid.UUID) ([]models.TableSummary, error)
	GetTable(ctx context.Context, runID uuid.UUID, name string) (*models.Table, error)
	// SaveSimilarity replaces the run's data point table and records when the similarity pass ran.
	SaveSimilarity(ctx context.Context, runID uuid.UUID, dataPoints *models.Table, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type catalogRunRepository struct {
	db *database.DB
}

// NewCatalogRunRepository creates a new CatalogRunRepository.
func NewCatalogRunRepository(db *database.DB) CatalogRunRepository {
	return &catalogRunRepository{db: db}
}

var _ CatalogRunRepository = (*catalogRunRepository)(nil)

// ============================================================================
// Runs
// ============================================================================

func (r *catalogRunRepository) Create(ctx context.Context, run *models.CatalogRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	diagnostics, err := json.Marshal(nonNilDiagnostics(run.Diagnostics))
	if err != nil {
		return fmt.Errorf("failed to encode diagnostics: %w", err)
	}

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO engine_catalog_runs (
				id, origin, presentation_file, source_file, source_rows,
				diagnostics, created_at, similarity_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

		_, err := tx.Exec(ctx, query,
			run.ID,
			run.Origin,
			nullString(run.PresentationFile),
			run.SourceFile,
			run.SourceRows,
			diagnostics,
			run.CreatedAt,
			run.SimilarityAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create catalog run: %w", err)
		}

		for position, table := range run.Tables {
			if err := insertTable(ctx, tx, run.ID, position, table); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *catalogRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CatalogRun, error) {
	query := `
		SELECT id, origin, presentation_file, source_file, source_rows,
		       diagnostics, created_at, similarity_at
		FROM engine_catalog_runs
		WHERE id = $1`

	run, err := scanRun(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get catalog run: %w", err)
	}
	return run, nil
}

func (r *catalogRunRepository) List(ctx context.Context, limit int) ([]*models.CatalogRun, error) {
	if limit <= 0 {
		limit = DefaultRunListLimit
	}

	query := `
		SELECT id, origin, presentation_file, source_file, source_rows,
		       diagnostics, created_at, similarity_at
		FROM engine_catalog_runs
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*models.CatalogRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan catalog run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog runs: %w", err)
	}
	return runs, nil
}

func (r *catalogRunRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM engine_catalog_runs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete catalog run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ============================================================================
// Tables
// ============================================================================

func (r *catalogRunRepository) ListTables(ctx context.Context, runID uuid.UUID) ([]models.TableSummary, error) {
	if _, err := r.GetByID(ctx, runID); err != nil {
		return nil, err
	}

	query := `
		SELECT name, columns, row_count
		FROM engine_catalog_tables
		WHERE run_id = $1
		ORDER BY position`

	rows, err := r.db.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog tables: %w", err)
	}
	defer rows.Close()

	summaries := make([]models.TableSummary, 0)
	for rows.Next() {
		var s models.TableSummary
		if err := rows.Scan(&s.Name, &s.Columns, &s.RowCount); err != nil {
			return nil, fmt.Errorf("failed to scan catalog table: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog tables: %w", err)
	}
	return summaries, nil
}

func (r *catalogRunRepository) GetTable(ctx context.Context, runID uuid.UUID, name string) (*models.Table, error) {
	query := `
		SELECT content
		FROM engine_catalog_tables
		WHERE run_id = $1 AND name = $2`

	var content []byte
	if err := r.db.QueryRow(ctx, query, runID, name).Scan(&content); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get catalog table: %w", err)
	}

	var table models.Table
	if err := json.Unmarshal(content, &table); err != nil {
		return nil, fmt.Errorf("failed to decode catalog table %q: %w", name, err)
	}
	return &table, nil
}

func (r *catalogRunRepository) SaveSimilarity(ctx context.Context, runID uuid.UUID, dataPoints *models.Table, at time.Time) error {
	content, err := json.Marshal(dataPoints)
	if err != nil {
		return fmt.Errorf("failed to encode table %q: %w", dataPoints.Name, err)
	}

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			UPDATE engine_catalog_tables
			SET columns = $3, row_count = $4, content = $5, updated_at = $6
			WHERE run_id = $1 AND name = $2`,
			runID, dataPoints.Name, dataPoints.Columns(), dataPoints.Len(), content, at)
		if err != nil {
			return fmt.Errorf("failed to update catalog table: %w", err)
		}
		if result.RowsAffected() == 0 {
			return apperrors.ErrNotFound
		}

		_, err = tx.Exec(ctx, `UPDATE engine_catalog_runs SET similarity_at = $2 WHERE id = $1`, runID, at)
		if err != nil {
			return fmt.Errorf("failed to mark similarity pass: %w", err)
		}
		return nil
	})
}

// ============================================================================
// Helpers
// ============================================================================

func insertTable(ctx context.Context, tx pgx.Tx, runID uuid.UUID, position int, table *models.Table) error {
	content, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("failed to encode table %q: %w", table.Name, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO engine_catalog_tables (run_id, name, position, columns, row_count, content)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		runID, table.Name, position, table.Columns(), table.Len(), content)
	if err != nil {
		return fmt.Errorf("failed to store table %q: %w", table.Name, err)
	}
	return nil
}

func scanRun(row pgx.Row) (*models.CatalogRun, error) {
	var (
		run              models.CatalogRun
		presentationFile *string
		diagnostics      []byte
	)
	err := row.Scan(
		&run.ID,
		&run.Origin,
		&presentationFile,
		&run.SourceFile,
		&run.SourceRows,
		&diagnostics,
		&run.CreatedAt,
		&run.SimilarityAt,
	)
	if err != nil {
		return nil, err
	}

	if presentationFile != nil {
		run.PresentationFile = *presentationFile
	}
	if len(diagnostics) > 0 {
		if err := json.Unmarshal(diagnostics, &run.Diagnostics); err != nil {
			return nil, fmt.Errorf("failed to decode diagnostics: %w", err)
		}
	}
	run.Diagnostics = nonNilDiagnostics(run.Diagnostics)
	return &run, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNilDiagnostics(d []models.Diagnostic) []models.Diagnostic {
	if d == nil {
		return []models.Diagnostic{}
	}
	return d
}
