package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-dictionary/pkg/jsonutil"
)

// CellKind tells which variant a Cell holds.
type CellKind uint8

const (
	// CellAbsent is a missing value (an empty spreadsheet cell).
	CellAbsent CellKind = iota
	// CellText is a scalar text value, possibly holding comma-separated items.
	CellText
	// CellList is a value that has already been split into items.
	CellList
)

// Cell is a single table value. Spreadsheet cells arrive as text or nothing at all;
// list cells are produced when a multi-valued cell has already been tokenized.
type Cell struct {
	kind CellKind
	text string
	list []string
}

// Null returns an absent cell.
func Null() Cell { return Cell{} }

// TextCell returns a scalar text cell.
func TextCell(s string) Cell { return Cell{kind: CellText, text: s} }

// ListCell returns a cell holding already-split items.
func ListCell(items []string) Cell {
	cp := make([]string, len(items))
	copy(cp, items)
	return Cell{kind: CellList, list: cp}
}

// OptionalText returns a text cell for s, or an absent cell when s is empty.
func OptionalText(s string) Cell {
	if s == "" {
		return Null()
	}
	return TextCell(s)
}

func (c Cell) Kind() CellKind { return c.kind }

// IsNull reports whether the cell is absent.
func (c Cell) IsNull() bool { return c.kind == CellAbsent }

// String renders the cell as it would appear in a spreadsheet. Absent cells render empty,
// list cells are joined with ", ".
func (c Cell) String() string {
	switch c.kind {
	case CellText:
		return c.text
	case CellList:
		return strings.Join(c.list, ", ")
	default:
		return ""
	}
}

// Items returns the list items of a list cell, or nil for any other kind.
func (c Cell) Items() []string {
	if c.kind != CellList {
		return nil
	}
	cp := make([]string, len(c.list))
	copy(cp, c.list)
	return cp
}

// equal compares two cells by kind and content.
func (c Cell) equal(other Cell) bool {
	if c.kind != other.kind {
		return false
	}
	switch c.kind {
	case CellText:
		return c.text == other.text
	case CellList:
		if len(c.list) != len(other.list) {
			return false
		}
		for i := range c.list {
			if c.list[i] != other.list[i] {
				return false
			}
		}
	}
	return true
}

// MarshalJSON encodes absent cells as null, text as a string and lists as an array.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case CellText:
		return json.Marshal(c.text)
	case CellList:
		return json.Marshal(c.list)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, a string, or an array of strings.
func (c *Cell) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = Null()
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = TextCell(s)
	case '[':
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*c = ListCell(items)
	default:
		if !json.Valid(data) {
			return fmt.Errorf("invalid cell value %q", string(data))
		}
		text, _ := jsonutil.FlexibleText(data)
		*c = TextCell(text)
	}
	return nil
}
