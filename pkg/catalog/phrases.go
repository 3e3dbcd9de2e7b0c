package catalog

import (
	"strings"

	"github.com/ekaya-inc/ekaya-dictionary/pkg/models"
)

// BuildSourcesOfData builds Table_PO_DATA: the distinct "PO Data" phrases in order of first
// appearance, keyed by the initials of every word plus a running counter (EL0001, DQ0002, ...).
func BuildSourcesOfData(source *models.Table) (*models.Table, error) {
	return buildPhraseTable(source, models.TableSourcesOfData, models.ColSourceOfData, models.ColSourceOfDataID, 0)
}

// BuildTimeAxes builds Table_AxeTemps: the distinct report time-axis phrases keyed by the
// initials of their first three words plus a running counter.
func BuildTimeAxes(source *models.Table) (*models.Table, error) {
	return buildPhraseTable(source, models.TableTimeAxes, models.ColTimeAxis, models.ColTimeAxisID, timeAxisKeyWords)
}

// buildPhraseTable deduplicates one source column by exact value. Blank phrases are not
// entities and are skipped.
func buildPhraseTable(source *models.Table, name, column, idColumn string, maxWords int) (*models.Table, error) {
	if err := source.RequireColumns(column); err != nil {
		return nil, err
	}

	table := models.NewTable(name, column, idColumn)
	var phrases distinct
	for i := 0; i < source.Len(); i++ {
		phrase := source.Text(i, column)
		if strings.TrimSpace(phrase) == "" {
			continue
		}
		phrases.add(phrase)
	}
	for n, phrase := range phrases.values {
		table.AppendRow(models.TextCell(phrase), models.TextCell(InitialsKey(phrase, maxWords, n+1)))
	}
	return table, nil
}

// phraseIndex maps each phrase of a phrase table to its key.
func phraseIndex(table *models.Table, column, idColumn string) (map[string]models.Cell, error) {
	if err := table.RequireColumns(column, idColumn); err != nil {
		return nil, err
	}
	index := make(map[string]models.Cell, table.Len())
	for i := 0; i < table.Len(); i++ {
		phrase := table.Text(i, column)
		if _, ok := index[phrase]; !ok {
			index[phrase] = table.Value(i, idColumn)
		}
	}
	return index, nil
}
