package catalog

import (
	"strings"

	"github.com/ekaya-inc/ekaya-dictionary/pkg/models"
)

// BuildReports builds the report table: every source row with its ID_RAPPORT in front and a
// DATA_detail column ("KPI,Maille d'analyse") appended. Rows sharing a normalized report name
// share the key derived from the row where that name first occurs.
func BuildReports(source *models.Table) (*models.Table, []models.Diagnostic, error) {
	if err := source.RequireColumns(models.ColReportName, models.ColKPI, models.ColMeasureAxis); err != nil {
		return nil, nil, err
	}

	srcColumns := make([]string, 0, len(source.Columns()))
	for _, col := range source.Columns() {
		if col != models.ColReportID && col != models.ColDataDetail {
			srcColumns = append(srcColumns, col)
		}
	}
	columns := append([]string{models.ColReportID}, srcColumns...)
	columns = append(columns, models.ColDataDetail)
	table := models.NewTable(models.TableReports, columns...)

	names := source.Column(models.ColReportName)
	firstRow := ReportKeyIndex(names)
	keys := make(map[string]string, len(firstRow))
	var bare distinct

	for i := 0; i < source.Len(); i++ {
		name := names[i].String()
		normalized := NormalizeText(name)
		key, ok := keys[normalized]
		if !ok {
			first := firstRow[normalized]
			key = ReportKey(names[first].String(), first+1)
			keys[normalized] = key
		}

		rec := source.Record(i)
		rec[models.ColReportID] = models.TextCell(key)
		rec[models.ColDataDetail] = dataDetail(source.Value(i, models.ColKPI), source.Value(i, models.ColMeasureAxis))
		table.AppendRecord(rec)

		if strings.TrimLeft(key, "0123456789") == "" {
			bare.add(name)
		}
	}

	var diagnostics []models.Diagnostic
	if len(bare.values) > 0 {
		diagnostics = append(diagnostics, newDiagnostic(models.TableReports,
			models.DiagEmptyReportKeyInitials, "report name", "without usable words, key has no initials", bare.values))
	}
	return table, diagnostics, nil
}

// dataDetail concatenates the KPI and measure-axis cells with a comma. It is absent only when
// both sides are absent.
func dataDetail(kpi, measure models.Cell) models.Cell {
	if kpi.IsNull() && measure.IsNull() {
		return models.Null()
	}
	return models.TextCell(kpi.String() + itemSeparator + measure.String())
}
