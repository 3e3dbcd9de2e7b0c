package catalog

import (
	"fmt"

	"github.com/ekaya-inc/ekaya-dictionary/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/models"
)

// Result holds the tables of one pipeline run.
type Result struct {
	DataPoints       *models.Table
	Prompts          *models.Table
	SourcesOfData    *models.Table
	ReportPrompts    *models.Table
	ReportDataPoints *models.Table
	TimeAxes         *models.Table
	Reports          *models.Table

	// DataTypes is the typed-pairing table, set only when no presentation dictionary was given.
	DataTypes *models.Table

	Diagnostics []models.Diagnostic
}

// Tables returns the output tables in workbook order.
func (r *Result) Tables() []*models.Table {
	tables := []*models.Table{
		r.DataPoints,
		r.Prompts,
		r.SourcesOfData,
		r.ReportPrompts,
		r.ReportDataPoints,
		r.TimeAxes,
		r.Reports,
	}
	if r.DataTypes != nil {
		tables = append(tables, r.DataTypes)
	}
	return tables
}

// Table returns the output table with the given sheet name, or nil.
func (r *Result) Table(name string) *models.Table {
	for _, t := range r.Tables() {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Run normalizes one pair of dictionaries. presentation may be nil. The inputs are not modified.
//
// A source table with rows must carry every column of models.SourceColumns; a source table
// without rows yields empty output tables whatever its header.
func Run(presentation, source *models.Table) (*Result, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: source dictionary is required", apperrors.ErrInvalidInput)
	}
	if source.Len() == 0 {
		source = withColumns(source, models.SourceColumns)
	}
	if err := source.RequireColumns(models.SourceColumns...); err != nil {
		return nil, err
	}

	res := &Result{}
	collect := func(d []models.Diagnostic) {
		res.Diagnostics = append(res.Diagnostics, d...)
	}

	entities, err := ExtractEntities(source)
	if err != nil {
		return nil, err
	}
	dataPoints, diags, err := BuildDataPoints(entities, presentation)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", models.TableDataPoints, err)
	}
	res.DataPoints = dataPoints
	collect(diags)

	if presentation == nil {
		pairs, err := ExtractTypedPairs(source)
		if err != nil {
			return nil, err
		}
		res.DataTypes = BuildDataTypes(pairs)
		collect([]models.Diagnostic{{
			Table:   models.TableDataPoints,
			Code:    models.DiagMissingPresentationData,
			Message: "no presentation dictionary given, data points carry no descriptive attributes",
		}})
	}

	if res.SourcesOfData, err = BuildSourcesOfData(source); err != nil {
		return nil, fmt.Errorf("build %s: %w", models.TableSourcesOfData, err)
	}
	if res.Prompts, err = BuildPrompts(source); err != nil {
		return nil, fmt.Errorf("build %s: %w", models.TablePrompts, err)
	}
	if res.TimeAxes, err = BuildTimeAxes(source); err != nil {
		return nil, fmt.Errorf("build %s: %w", models.TableTimeAxes, err)
	}

	reports, diags, err := BuildReports(source)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", models.TableReports, err)
	}
	collect(diags)

	if res.ReportPrompts, err = BuildReportPrompts(reports, res.Prompts); err != nil {
		return nil, fmt.Errorf("build %s: %w", models.TableReportPrompts, err)
	}
	reportData, diags, err := BuildReportDataPoints(reports, res.DataPoints)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", models.TableReportDataPoints, err)
	}
	res.ReportDataPoints = reportData
	collect(diags)

	enriched, diags, err := EnrichReports(reports, res.SourcesOfData, res.TimeAxes)
	if err != nil {
		return nil, fmt.Errorf("enrich %s: %w", models.TableReports, err)
	}
	res.Reports = enriched
	collect(diags)

	return res, nil
}

// withColumns returns an empty copy of t that also carries the given columns.
func withColumns(t *models.Table, columns []string) *models.Table {
	all := append(t.Columns(), columns...)
	return models.NewTable(t.Name, all...)
}
