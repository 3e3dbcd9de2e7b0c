package catalog

import (
	"strings"

	"github.com/ekaya-inc/ekaya-dictionary/pkg/models"
)

// BuildReportPrompts builds Table_Rapport_Prompt by unpivoting each report row's
// selection-screen cell and inner-joining the values with the prompt table on the normalized
// prompt text. Values missing from the prompt table are dropped.
//
// Columns: Nom du rapport, ID_RAPPORT, Ecran de sélection /prompt, Colonne, Prompt, ID_PROMPT.
func BuildReportPrompts(reports, prompts *models.Table) (*models.Table, error) {
	if err := reports.RequireColumns(models.ColReportName, models.ColReportID, models.ColSelectionPanel); err != nil {
		return nil, err
	}
	if err := prompts.RequireColumns(models.ColPrompt, models.ColPromptID); err != nil {
		return nil, err
	}

	promptKeys := make(map[string]models.Cell, prompts.Len())
	for i := 0; i < prompts.Len(); i++ {
		v := NormalizeText(prompts.Text(i, models.ColPrompt))
		if _, ok := promptKeys[v]; !ok {
			promptKeys[v] = prompts.Value(i, models.ColPromptID)
		}
	}

	table := models.NewTable(models.TableReportPrompts,
		models.ColReportName, models.ColReportID, models.ColSelectionPanel,
		models.ColSplitColumn, models.ColPrompt, models.ColPromptID)
	for _, occ := range unpivotPrompts(reports) {
		key, ok := promptKeys[occ.value]
		if !ok {
			continue
		}
		table.AppendRow(
			reports.Value(occ.row, models.ColReportName),
			reports.Value(occ.row, models.ColReportID),
			occ.origin,
			models.TextCell(occ.splitColumn()),
			models.TextCell(occ.value),
			key,
		)
	}
	return table, nil
}

// BuildReportDataPoints builds Table_Rapport_Data: each report row's KPI and measure-axis
// tokens, one row per token, left-joined with the data point table on the normalized name.
// Tokens without a data point keep an absent ID_DATA and Type, and are reported in an
// unmatched_data_point diagnostic. Rows without any token produce no bridge row.
//
// Columns: Nom du rapport, ID_RAPPORT, ID_DATA, DATA, Type.
func BuildReportDataPoints(reports, dataPoints *models.Table) (*models.Table, []models.Diagnostic, error) {
	if err := reports.RequireColumns(models.ColReportName, models.ColReportID, models.ColKPI, models.ColMeasureAxis); err != nil {
		return nil, nil, err
	}
	if err := dataPoints.RequireColumns(models.ColData, models.ColDataID); err != nil {
		return nil, nil, err
	}

	type dataRef struct {
		id  models.Cell
		typ models.Cell
	}
	refs := make(map[string]dataRef, dataPoints.Len())
	for i := 0; i < dataPoints.Len(); i++ {
		name := NormalizeText(dataPoints.Text(i, models.ColData))
		if _, ok := refs[name]; ok {
			continue
		}
		refs[name] = dataRef{id: dataPoints.Value(i, models.ColDataID), typ: dataPoints.Value(i, models.ColType)}
	}

	table := models.NewTable(models.TableReportDataPoints,
		models.ColReportName, models.ColReportID, models.ColDataID, models.ColData, models.ColType)
	var unmatched distinct
	for i := 0; i < reports.Len(); i++ {
		tokens := append(Tokens(reports.Value(i, models.ColKPI)), Tokens(reports.Value(i, models.ColMeasureAxis))...)
		for _, tok := range tokens {
			ref, ok := refs[tok]
			if !ok {
				unmatched.add(tok)
			}
			table.AppendRow(
				reports.Value(i, models.ColReportName),
				reports.Value(i, models.ColReportID),
				ref.id,
				models.TextCell(tok),
				ref.typ,
			)
		}
	}

	var diagnostics []models.Diagnostic
	if len(unmatched.values) > 0 {
		diagnostics = append(diagnostics, newDiagnostic(models.TableReportDataPoints,
			models.DiagUnmatchedDataPoint, "data point", "not found in "+models.TableDataPoints, unmatched.values))
	}
	return table, diagnostics, nil
}

// EnrichReports left-joins the report table with the source-of-data and time-axis tables on
// their exact phrases, appending ID_PO_DATA and ID_AXE_TEMPS. Blank phrases get absent
// references silently; non-blank phrases with no match get absent references and a diagnostic.
func EnrichReports(reports, sourcesOfData, timeAxes *models.Table) (*models.Table, []models.Diagnostic, error) {
	if err := reports.RequireColumns(models.ColSourceOfData, models.ColTimeAxis); err != nil {
		return nil, nil, err
	}
	sourceKeys, err := phraseIndex(sourcesOfData, models.ColSourceOfData, models.ColSourceOfDataID)
	if err != nil {
		return nil, nil, err
	}
	timeKeys, err := phraseIndex(timeAxes, models.ColTimeAxis, models.ColTimeAxisID)
	if err != nil {
		return nil, nil, err
	}

	out := reports.Clone()
	out.Name = models.TableReports
	sourceRefs, missingSources := lookupPhrases(reports.Column(models.ColSourceOfData), sourceKeys)
	timeRefs, missingTimes := lookupPhrases(reports.Column(models.ColTimeAxis), timeKeys)
	if err := out.SetColumn(models.ColSourceOfDataID, sourceRefs); err != nil {
		return nil, nil, err
	}
	if err := out.SetColumn(models.ColTimeAxisID, timeRefs); err != nil {
		return nil, nil, err
	}

	var diagnostics []models.Diagnostic
	if len(missingSources) > 0 {
		diagnostics = append(diagnostics, newDiagnostic(models.TableReports,
			models.DiagUnmatchedSourceOfData, "source-of-data phrase", "not found in "+models.TableSourcesOfData, missingSources))
	}
	if len(missingTimes) > 0 {
		diagnostics = append(diagnostics, newDiagnostic(models.TableReports,
			models.DiagUnmatchedTimeAxis, "time-axis phrase", "not found in "+models.TableTimeAxes, missingTimes))
	}
	return out, diagnostics, nil
}

func lookupPhrases(phrases []models.Cell, keys map[string]models.Cell) ([]models.Cell, []string) {
	refs := make([]models.Cell, len(phrases))
	var missing distinct
	for i, c := range phrases {
		phrase := c.String()
		if strings.TrimSpace(phrase) == "" {
			continue
		}
		key, ok := keys[phrase]
		if !ok {
			missing.add(phrase)
			continue
		}
		refs[i] = key
	}
	return refs, missing.values
}
