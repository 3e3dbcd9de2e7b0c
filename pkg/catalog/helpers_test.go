package catalog

import (
	"github.com/ekaya-inc/ekaya-dictionary/pkg/models"
)

// sourceRow is one line of a source dictionary in test fixtures.
type sourceRow struct {
	Report, KPI, Measure, SourceOfData, TimeAxis, Prompts string
}

func newSource(rows ...sourceRow) *models.Table {
	t := models.NewTable(models.TableSource, models.SourceColumns...)
	for _, r := range rows {
		t.AppendRow(
			models.OptionalText(r.Report),
			models.OptionalText(r.KPI),
			models.OptionalText(r.Measure),
			models.OptionalText(r.SourceOfData),
			models.OptionalText(r.TimeAxis),
			models.OptionalText(r.Prompts),
		)
	}
	return t
}

func newPresentation(columns []string, rows ...[]string) *models.Table {
	t := models.NewTable(models.TablePresentation, columns...)
	for _, r := range rows {
		cells := make([]models.Cell, len(r))
		for i, v := range r {
			cells[i] = models.OptionalText(v)
		}
		t.AppendRow(cells...)
	}
	return t
}

func columnText(t *models.Table, column string) []string {
	out := make([]string, t.Len())
	for i := range out {
		out[i] = t.Text(i, column)
	}
	return out
}
