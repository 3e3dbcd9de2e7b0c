package catalog

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ekaya-inc/ekaya-dictionary/pkg/models"
)

// itemSeparator splits multi-valued dictionary cells.
const itemSeparator = ","

// NormalizeText lower-cases, NFC-composes and trims a scalar value.
func NormalizeText(s string) string {
	return strings.TrimSpace(norm.NFC.String(strings.ToLower(s)))
}

// splitCell returns the raw items of a cell without normalizing them.
// Text is split on commas, lists are returned as-is, absent cells have no items.
func splitCell(c models.Cell) []string {
	switch c.Kind() {
	case models.CellText:
		return strings.Split(c.String(), itemSeparator)
	case models.CellList:
		return c.Items()
	default:
		return nil
	}
}

// Tokens returns the normalized, non-empty items of a cell in order, duplicates included.
func Tokens(c models.Cell) []string {
	raw := splitCell(c)
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if v := NormalizeText(item); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// NormalizeCell converts any cell to a list cell of its tokens.
// Absent cells become an empty list, and NormalizeCell(NormalizeCell(c)) equals NormalizeCell(c).
func NormalizeCell(c models.Cell) models.Cell {
	return models.ListCell(Tokens(c))
}
