package catalog

import (
	"fmt"

	"github.com/jinzhu/inflection"

	"github.com/ekaya-inc/ekaya-dictionary/pkg/models"
)

func pluralize(noun string, n int) string {
	if n == 1 {
		return noun
	}
	return inflection.Plural(noun)
}

func newDiagnostic(table, code, noun, verb string, values []string) models.Diagnostic {
	return models.Diagnostic{
		Table:   table,
		Code:    code,
		Message: fmt.Sprintf("%d %s %s", len(values), pluralize(noun, len(values)), verb),
		Values:  values,
	}
}

// distinct collects values once each, in first-seen order.
type distinct struct {
	seen   map[string]struct{}
	values []string
}

func (d *distinct) add(v string) {
	if d.seen == nil {
		d.seen = make(map[string]struct{})
	}
	if _, ok := d.seen[v]; ok {
		return
	}
	d.seen[v] = struct{}{}
	d.values = append(d.values, v)
}
