package catalog

import (
	"github.com/ekaya-inc/ekaya-dictionary/pkg/models"
)

// Entities is the candidate universe of data point names found in a source dictionary.
type Entities struct {
	KPI         map[string]struct{}
	MeasureAxis map[string]struct{}
	// Names is the union of both sets in order of first appearance: source rows top to bottom,
	// KPI tokens before measure-axis tokens within a row.
	Names []string
}

// Classify returns the data point type of a normalized name. KPI wins over measure axis.
func (e *Entities) Classify(name string) string {
	if _, ok := e.KPI[name]; ok {
		return models.DataTypeKPI
	}
	if _, ok := e.MeasureAxis[name]; ok {
		return models.DataTypeMeasureAxis
	}
	return models.DataTypeUnspecified
}

// ExtractEntities collects the distinct normalized KPI and measure-axis names of the source table.
func ExtractEntities(source *models.Table) (*Entities, error) {
	if err := source.RequireColumns(models.ColKPI, models.ColMeasureAxis); err != nil {
		return nil, err
	}

	e := &Entities{
		KPI:         make(map[string]struct{}),
		MeasureAxis: make(map[string]struct{}),
	}
	seen := make(map[string]struct{})
	add := func(set map[string]struct{}, tokens []string) {
		for _, tok := range tokens {
			set[tok] = struct{}{}
			if _, ok := seen[tok]; !ok {
				seen[tok] = struct{}{}
				e.Names = append(e.Names, tok)
			}
		}
	}

	for i := 0; i < source.Len(); i++ {
		add(e.KPI, Tokens(source.Value(i, models.ColKPI)))
		add(e.MeasureAxis, Tokens(source.Value(i, models.ColMeasureAxis)))
	}
	return e, nil
}

// TypedPair is a data point name tagged with the column it was found in.
type TypedPair struct {
	Name string
	Type string
}

// ExtractTypedPairs walks every row and emits one pair per token and origin column,
// all KPI pairs first, then all measure-axis pairs. Identical pairs are kept once, so a
// name used both as KPI and as measure axis yields two pairs.
func ExtractTypedPairs(source *models.Table) ([]TypedPair, error) {
	if err := source.RequireColumns(models.ColKPI, models.ColMeasureAxis); err != nil {
		return nil, err
	}

	var pairs []TypedPair
	seen := make(map[TypedPair]struct{})
	collect := func(column, typ string) {
		for i := 0; i < source.Len(); i++ {
			for _, tok := range Tokens(source.Value(i, column)) {
				p := TypedPair{Name: tok, Type: typ}
				if _, ok := seen[p]; ok {
					continue
				}
				seen[p] = struct{}{}
				pairs = append(pairs, p)
			}
		}
	}
	collect(models.ColKPI, models.DataTypeKPI)
	collect(models.ColMeasureAxis, models.DataTypeMeasureAxis)
	return pairs, nil
}

// BuildDataTypes renders typed pairs as the Table_DATA_Type sheet.
func BuildDataTypes(pairs []TypedPair) *models.Table {
	t := models.NewTable(models.TableDataTypes, models.ColData, models.ColType)
	for _, p := range pairs {
		t.AppendRow(models.TextCell(p.Name), models.TextCell(p.Type))
	}
	return t
}
