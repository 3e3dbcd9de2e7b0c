package catalog

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-dictionary/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/models"
)

// siblingSeparator joins sibling names in the données similaires column.
const siblingSeparator = ", "

// SimilarityOptions tunes the similarity pass.
type SimilarityOptions struct {
	// GroupEmptyDescriptions treats data points whose description is an empty string as similar
	// to each other. Absent descriptions are never grouped. Off by default.
	GroupEmptyDescriptions bool
}

// EnrichSimilarity returns a copy of the data point table with a "données similaires"
// column listing, for every row, the names of the other data points sharing exactly the same
// description. Rows are grouped by description in a single pass.
func EnrichSimilarity(dataPoints *models.Table, opts SimilarityOptions) (*models.Table, error) {
	if err := dataPoints.RequireColumns(models.ColData, models.ColDataDescription); err != nil {
		return nil, err
	}

	groups := make(map[string]*distinct)
	descriptions := make([]string, dataPoints.Len())
	for i := 0; i < dataPoints.Len(); i++ {
		cell := dataPoints.Value(i, models.ColDataDescription)
		desc := cell.String()
		descriptions[i] = desc
		if cell.IsNull() || (desc == "" && !opts.GroupEmptyDescriptions) {
			continue
		}
		g, ok := groups[desc]
		if !ok {
			g = &distinct{}
			groups[desc] = g
		}
		g.add(dataPoints.Text(i, models.ColData))
	}

	siblings := make([]models.Cell, dataPoints.Len())
	for i, desc := range descriptions {
		g, ok := groups[desc]
		if !ok || dataPoints.Value(i, models.ColDataDescription).IsNull() {
			continue
		}
		self := dataPoints.Text(i, models.ColData)
		names := make([]string, 0, len(g.values))
		for _, name := range g.values {
			if name != self {
				names = append(names, name)
			}
		}
		siblings[i] = models.OptionalText(strings.Join(names, siblingSeparator))
	}

	out := dataPoints.Clone()
	if err := out.SetColumn(models.ColSimilarData, siblings); err != nil {
		return nil, err
	}
	return out, nil
}

// EnrichWorkbookSimilarity runs EnrichSimilarity on the Table_DATA sheet of a previously
// produced workbook and returns the sheets with that one replaced. The other sheets are
// returned untouched.
func EnrichWorkbookSimilarity(sheets []*models.Table, opts SimilarityOptions) ([]*models.Table, error) {
	out := make([]*models.Table, len(sheets))
	copy(out, sheets)
	for i, sheet := range sheets {
		if sheet.Name != models.TableDataPoints {
			continue
		}
		enriched, err := EnrichSimilarity(sheet, opts)
		if err != nil {
			return nil, err
		}
		out[i] = enriched
		return out, nil
	}
	return nil, fmt.Errorf("%w: %q", apperrors.ErrSheetNotFound, models.TableDataPoints)
}
