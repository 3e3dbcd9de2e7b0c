package catalog

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ekaya-inc/ekaya-dictionary/pkg/models"
)

const (
	DataKeyPrefix   = "DATA"
	PromptKeyPrefix = "PROMPT"

	// timeAxisKeyWords is how many words of a time-axis phrase contribute initials.
	timeAxisKeyWords = 3
	// reportKeyInitials caps the initials of a report key.
	reportKeyInitials = 3
)

var (
	reportNameStripper = strings.NewReplacer("-", "", "_", "", "?", "", "/", "", "(", "", ")", "", "–", "")

	// reportStopWords are French connectives skipped when taking report initials.
	reportStopWords = map[string]struct{}{
		"en":  {},
		"par": {},
		"et":  {},
		"des": {},
		"a":   {},
	}
)

func zeroPad(n int) string {
	return fmt.Sprintf("%04d", n)
}

// SequentialKey returns prefix followed by n zero-padded to four digits, e.g. DATA0001.
func SequentialKey(prefix string, n int) string {
	return prefix + zeroPad(n)
}

// InitialsKey returns the upper-cased first letter of each word of phrase followed by n
// zero-padded to four digits. maxWords limits how many words contribute; zero means all.
// A phrase without words yields just the number.
func InitialsKey(phrase string, maxWords, n int) string {
	words := strings.Fields(phrase)
	if maxWords > 0 && len(words) > maxWords {
		words = words[:maxWords]
	}
	return initials(words) + zeroPad(n)
}

// ReportKey derives a report identifier from its name: the characters - _ ? / ( ) – are
// removed, stop words dropped, and the first three initials of the remaining words are
// followed by position zero-padded to four digits.
func ReportKey(name string, position int) string {
	words := strings.Fields(reportNameStripper.Replace(name))
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if _, stop := reportStopWords[strings.ToLower(w)]; stop {
			continue
		}
		kept = append(kept, w)
	}
	prefix := initials(kept)
	if utf8.RuneCountInString(prefix) > reportKeyInitials {
		prefix = string([]rune(prefix)[:reportKeyInitials])
	}
	return prefix + zeroPad(position)
}

// ReportKeyIndex maps each normalized report name to the zero-based index of the row where it
// first occurs. Positions for ReportKey are index + 1, which keeps every row of a report on
// the same key and distinct names on distinct keys.
func ReportKeyIndex(names []models.Cell) map[string]int {
	index := make(map[string]int, len(names))
	for i, c := range names {
		key := NormalizeText(c.String())
		if _, ok := index[key]; !ok {
			index[key] = i
		}
	}
	return index
}

func initials(words []string) string {
	var b strings.Builder
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		if r == utf8.RuneError {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
