package models

// Source dictionary columns.
const (
	ColReportName     = "Nom du rapport"
	ColKPI            = "KPI"
	ColMeasureAxis    = "Maille d'analyse"
	ColSourceOfData   = "PO Data"
	ColTimeAxis       = "Axe temps du rapport"
	ColSelectionPanel = "Ecran de sélection /prompt"
)

// Presentation dictionary columns. Only ColData is required.
const (
	ColData            = "DATA"
	ColDataDescription = "Descriptif de la donnée"
	ColQuality         = "Qualité"
	ColKPICalcRule     = "Règles de calcul KPI"
	ColKPIDescription  = "Descriptif KPI"
	ColWikiLink        = "Lien Wiki"
	ColDataFamily      = "Famille donnée"
)

// Derived columns.
const (
	ColDataID         = "ID_DATA"
	ColType           = "Type"
	ColSourceOfDataID = "ID_PO_DATA"
	ColPromptID       = "ID_PROMPT"
	ColPrompt         = "Prompt"
	ColSplitColumn    = "Colonne"
	ColReportID       = "ID_RAPPORT"
	ColDataDetail     = "DATA_detail"
	ColTimeAxisID     = "ID_AXE_TEMPS"
	ColSimilarData    = "données similaires"
)

// Data point types.
const (
	DataTypeKPI         = "KPI"
	DataTypeMeasureAxis = "Maille d'analyse"
	DataTypeUnspecified = "Non spécifié"
)

// Output sheet names.
const (
	TableDataPoints       = "Table_DATA"
	TablePrompts          = "Table_Prompt"
	TableSourcesOfData    = "Table_PO_DATA"
	TableReportPrompts    = "Table_Rapport_Prompt"
	TableReportDataPoints = "Table_Rapport_Data"
	TableTimeAxes         = "Table_AxeTemps"
	TableReports          = "Table_Rapport"
	TableDataTypes        = "Table_DATA_Type"
)

// Input table names used in diagnostics and errors.
const (
	TablePresentation = "presentation"
	TableSource       = "source"
)

// SourceColumns lists the columns the pipeline reads from the source dictionary.
var SourceColumns = []string{
	ColReportName,
	ColKPI,
	ColMeasureAxis,
	ColSourceOfData,
	ColTimeAxis,
	ColSelectionPanel,
}

// PresentationAttributes lists the descriptive columns carried from the presentation
// dictionary onto data points, in output order. Absent ones are skipped.
var PresentationAttributes = []string{
	ColDataDescription,
	ColQuality,
	ColKPICalcRule,
	ColKPIDescription,
	ColWikiLink,
	ColDataFamily,
}

// OutputOrder is the sheet order of a transformed workbook.
var OutputOrder = []string{
	TableDataPoints,
	TablePrompts,
	TableSourcesOfData,
	TableReportPrompts,
	TableReportDataPoints,
	TableTimeAxes,
	TableReports,
}
