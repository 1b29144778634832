// Package render holds the value defaulting and layout tables shared by the
// .h2k codec and the PDF report, so both artifacts agree on every field.
package render

import (
	"auditcore/pkg/domain"
	"auditcore/pkg/units"
	"strings"
	"unicode"
)

// NotSpecified is rendered for any field that has no value and no
// domain default.
const NotSpecified = "Not specified"

// Text returns the trimmed value, or def when the value is empty. An empty
// def falls back to NotSpecified.
func Text(v domain.Value, def string) string {
	return Str(string(v), def)
}

// Str is Text for plain strings.
func Str(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	if def != "" {
		return def
	}
	return NotSpecified
}

// List joins a multi-select with commas in insertion order. Empty entries are
// skipped; an empty selection renders def.
func List(items []string, def string) string {
	return JoinList(items, ",", def)
}

// JoinList is List with a custom separator.
func JoinList(items []string, sep, def string) string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	if len(out) == 0 {
		return Str("", def)
	}
	return strings.Join(out, sep)
}

// YesNo renders a boolean as the literal tokens Yes or No.
func YesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// Answer renders a yes/no form field. Anything but an affirmative answer,
// including absence, is No.
func Answer(v domain.Value) string {
	return YesNo(v.Yes())
}

// AnswerOr renders a yes/no field, or def when the question was never
// answered.
func AnswerOr(v domain.Value, def string) string {
	if !v.IsSet() {
		return Str("", def)
	}
	return Answer(v)
}

// Lookup translates a controlled-vocabulary value through table. Values
// missing from the table pass through unchanged; an empty value renders def.
func Lookup(table map[string]string, v domain.Value, def string) string {
	key := v.String()
	if key == "" {
		return Str("", def)
	}
	if mapped, ok := table[key]; ok {
		return mapped
	}
	return key
}

// Humanize turns a snake_case option into title case ("heat_pump" ->
// "Heat Pump").
func Humanize(v domain.Value, def string) string {
	s := v.String()
	if s == "" {
		return Str("", def)
	}
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Meters renders a dual-unit length as its canonical metric value.
func Meters(l domain.Length, def string) string {
	m, ok := l.Meters()
	if !ok {
		return Str("", def)
	}
	return trimZeros(units.FormatMeters(m, 3))
}

// FeetInches renders a dual-unit length as "8 ft 6 in".
func FeetInches(l domain.Length, def string) string {
	m, ok := l.Meters()
	if !ok {
		return Str("", def)
	}
	feet, inches := units.MetersToFeetInches(m)
	return units.FormatInches(float64(feet)) + " ft " + units.FormatInches(inches) + " in"
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

var asciiFold = map[rune]string{
	'à': "a", 'á': "a", 'â': "a", 'ä': "a", 'ã': "a", 'å': "a",
	'À': "A", 'Á': "A", 'Â': "A", 'Ä': "A", 'Ã': "A", 'Å': "A",
	'ç': "c", 'Ç': "C",
	'è': "e", 'é': "e", 'ê': "e", 'ë': "e",
	'È': "E", 'É': "E", 'Ê': "E", 'Ë': "E",
	'ì': "i", 'í': "i", 'î': "i", 'ï': "i",
	'Ì': "I", 'Í': "I", 'Î': "I", 'Ï': "I",
	'ñ': "n", 'Ñ': "N",
	'ò': "o", 'ó': "o", 'ô': "o", 'ö': "o", 'õ': "o",
	'Ò': "O", 'Ó': "O", 'Ô': "O", 'Ö': "O", 'Õ': "O",
	'ù': "u", 'ú': "u", 'û': "u", 'ü': "u",
	'Ù': "U", 'Ú': "U", 'Û': "U", 'Ü': "U",
	'ÿ': "y", 'œ': "oe", 'Œ': "OE", 'æ': "ae", 'Æ': "AE",
	'²': "2", '°': " deg", '’': "'", '‘': "'", '“': `"`, '”': `"`, '–': "-", '—': "-",
}

// ASCII folds accented Latin letters, collapses line breaks and replaces any
// other non-ASCII or control rune with '?', so a value always fits on one
// line of a line-oriented file.
func ASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\r' || r == '\n' || r == '\t':
			b.WriteByte(' ')
		case r < 0x20 || r == 0x7f:
		case r < 0x80:
			b.WriteRune(r)
		default:
			if folded, ok := asciiFold[r]; ok {
				b.WriteString(folded)
			} else {
				b.WriteByte('?')
			}
		}
	}
	return b.String()
}
