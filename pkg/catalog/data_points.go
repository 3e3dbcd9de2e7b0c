package catalog

import (
	"github.com/ekaya-inc/ekaya-dictionary/pkg/models"
)

// BuildDataPoints builds Table_DATA from the candidate universe. Each name is left-joined on
// its normalized form against the presentation dictionary to recover descriptive attributes;
// names without a presentation row keep absent attributes. presentation may be nil, in which
// case the table carries no attribute columns.
//
// Columns: ID_DATA, DATA, the presentation attributes that exist, Type.
func BuildDataPoints(entities *Entities, presentation *models.Table) (*models.Table, []models.Diagnostic, error) {
	var (
		attrs       []string
		byName      map[string]int
		diagnostics []models.Diagnostic
	)

	if presentation != nil {
		if err := presentation.RequireColumns(models.ColData); err != nil {
			return nil, nil, err
		}
		for _, col := range models.PresentationAttributes {
			if presentation.HasColumn(col) {
				attrs = append(attrs, col)
			}
		}

		var dupes distinct
		byName = make(map[string]int, presentation.Len())
		for i := 0; i < presentation.Len(); i++ {
			name := NormalizeText(presentation.Text(i, models.ColData))
			if name == "" {
				continue
			}
			if _, ok := byName[name]; ok {
				dupes.add(name)
				continue
			}
			byName[name] = i
		}
		if len(dupes.values) > 0 {
			diagnostics = append(diagnostics, newDiagnostic(models.TableDataPoints,
				models.DiagDuplicatePresentation, "duplicated data name", "in the presentation dictionary, first row kept", dupes.values))
		}
	}

	columns := append([]string{models.ColDataID, models.ColData}, attrs...)
	columns = append(columns, models.ColType)
	table := models.NewTable(models.TableDataPoints, columns...)

	for n, name := range entities.Names {
		row := make([]models.Cell, 0, len(columns))
		row = append(row, models.TextCell(SequentialKey(DataKeyPrefix, n+1)), models.TextCell(name))
		src, matched := byName[name]
		for _, col := range attrs {
			if matched {
				row = append(row, presentation.Value(src, col))
			} else {
				row = append(row, models.Null())
			}
		}
		row = append(row, models.TextCell(entities.Classify(name)))
		table.AppendRow(row...)
	}

	return table, diagnostics, nil
}
