package jsonutil

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexibleText converts a JSON scalar to the text a spreadsheet cell would show.
// Hand-edited workbooks and API callers send numbers and booleans where text is expected,
// so 12 becomes "12" and true becomes "true". The second result is false for null or empty input.
// Objects and arrays fall back to their raw JSON text.
func FlexibleText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}

	var num json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&num); err == nil {
		if i, err := num.Int64(); err == nil {
			return strconv.FormatInt(i, 10), true
		}
		if f, err := num.Float64(); err == nil {
			if f == float64(int64(f)) {
				return strconv.FormatInt(int64(f), 10), true
			}
			return strconv.FormatFloat(f, 'g', -1, 64), true
		}
		return num.String(), true
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b), true
	}

	return string(raw), true
}
