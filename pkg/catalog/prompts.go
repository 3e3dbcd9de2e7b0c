package catalog

import (
	"fmt"

	"github.com/ekaya-inc/ekaya-dictionary/pkg/models"
)

// promptOccurrence is one value of a split selection-screen cell.
type promptOccurrence struct {
	row      int
	position int // 1-based position inside the cell
	origin   models.Cell
	value    string
}

func (o promptOccurrence) splitColumn() string {
	return fmt.Sprintf("Colonne%d", o.position)
}

// unpivotPrompts splits every selection-screen cell on commas and returns one occurrence per
// non-empty normalized value. Occurrences are ordered by split position first, then by row,
// the way a wide split table is melted back into rows.
func unpivotPrompts(table *models.Table) []promptOccurrence {
	cells := table.Column(models.ColSelectionPanel)
	split := make([][]string, len(cells))
	width := 0
	for i, c := range cells {
		split[i] = splitCell(c)
		if len(split[i]) > width {
			width = len(split[i])
		}
	}

	var out []promptOccurrence
	for pos := 0; pos < width; pos++ {
		for row, items := range split {
			if pos >= len(items) {
				continue
			}
			v := NormalizeText(items[pos])
			if v == "" {
				continue
			}
			out = append(out, promptOccurrence{row: row, position: pos + 1, origin: cells[row], value: v})
		}
	}
	return out
}

// BuildPrompts builds Table_Prompt: the distinct prompt values found in the selection-screen
// column, keyed PROMPT0001, PROMPT0002, ... in unpivot order. The selection-screen cell the
// value was first found in is kept as its origin.
func BuildPrompts(source *models.Table) (*models.Table, error) {
	if err := source.RequireColumns(models.ColSelectionPanel); err != nil {
		return nil, err
	}

	table := models.NewTable(models.TablePrompts, models.ColPromptID, models.ColPrompt, models.ColSelectionPanel)
	seen := make(map[string]struct{})
	for _, occ := range unpivotPrompts(source) {
		if _, ok := seen[occ.value]; ok {
			continue
		}
		seen[occ.value] = struct{}{}
		table.AppendRow(
			models.TextCell(SequentialKey(PromptKeyPrefix, len(seen))),
			models.TextCell(occ.value),
			occ.origin,
		)
	}
	return table, nil
}
