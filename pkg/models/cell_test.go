package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCell_String(t *testing.T) {
	assert.Equal(t, "", Null().String())
	assert.Equal(t, "abc", TextCell("abc").String())
	assert.Equal(t, "a, b", ListCell([]string{"a", "b"}).String())
	assert.True(t, OptionalText("").IsNull())
	assert.False(t, TextCell("").IsNull())
}

func TestCell_ListIsCopied(t *testing.T) {
	items := []string{"a"}
	c := ListCell(items)
	items[0] = "changed"
	assert.Equal(t, []string{"a"}, c.Items())
	assert.Nil(t, TextCell("a").Items())
}

func TestCell_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Cell
	}{
		{"null", `null`, Null()},
		{"string", `"volume"`, TextCell("volume")},
		{"number from a hand-edited sheet", `12.0`, TextCell("12")},
		{"boolean", `true`, TextCell("true")},
		{"list", `["a","b"]`, ListCell([]string{"a", "b"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Cell
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &c))
			assert.True(t, tt.want.equal(c), "got %#v", c)
		})
	}

	var c Cell
	assert.Error(t, c.UnmarshalJSON([]byte(`{bad`)))
}
