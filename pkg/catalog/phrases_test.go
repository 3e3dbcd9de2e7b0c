package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-dictionary/pkg/models"
)

func TestBuildSourcesOfData(t *testing.T) {
	source := newSource(
		sourceRow{Report: "R1", SourceOfData: "Equipe Logistique"},
		sourceRow{Report: "R2", SourceOfData: "Equipe Logistique"},
		sourceRow{Report: "R3", SourceOfData: "Direction Qualité"},
		sourceRow{Report: "R4"},
	)

	table, err := BuildSourcesOfData(source)
	require.NoError(t, err)

	assert.Equal(t, models.TableSourcesOfData, table.Name)
	assert.Equal(t, []string{models.ColSourceOfData, models.ColSourceOfDataID}, table.Columns())
	assert.Equal(t, []string{"Equipe Logistique", "Direction Qualité"}, columnText(table, models.ColSourceOfData))
	assert.Equal(t, []string{"EL0001", "DQ0002"}, columnText(table, models.ColSourceOfDataID))
}

func TestBuildTimeAxes(t *testing.T) {
	source := newSource(
		sourceRow{TimeAxis: "Mois glissant sur douze mois"},
		sourceRow{TimeAxis: "Semaine"},
		sourceRow{TimeAxis: "Mois glissant sur douze mois"},
		sourceRow{TimeAxis: "  "},
	)

	table, err := BuildTimeAxes(source)
	require.NoError(t, err)

	assert.Equal(t, []string{"Mois glissant sur douze mois", "Semaine"}, columnText(table, models.ColTimeAxis))
	assert.Equal(t, []string{"MGS0001", "S0002"}, columnText(table, models.ColTimeAxisID))
}

func TestBuildPhraseTables_EmptySource(t *testing.T) {
	source := newSource()

	sources, err := BuildSourcesOfData(source)
	require.NoError(t, err)
	assert.Equal(t, 0, sources.Len())

	axes, err := BuildTimeAxes(source)
	require.NoError(t, err)
	assert.Equal(t, 0, axes.Len())
}
