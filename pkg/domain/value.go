package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Value is a free-form scalar captured by the audit forms. The forms send
// numbers, strings and occasionally booleans for the same field, so Value
// accepts any JSON scalar and keeps its textual form.
type Value string

// UnmarshalJSON accepts strings, numbers, booleans and null.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*v = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Value(s)
	case bytes.Equal(data, []byte("true")):
		*v = "yes"
	case bytes.Equal(data, []byte("false")):
		*v = "no"
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = Value(n.String())
	default:
		return fmt.Errorf("%w: expected scalar, got %s", ErrInvalidSection, truncate(data))
	}
	return nil
}

// String returns the trimmed text.
func (v Value) String() string { return strings.TrimSpace(string(v)) }

// IsSet reports whether the value carries any text.
func (v Value) IsSet() bool { return v.String() != "" }

// Yes reports whether the value is an affirmative answer.
func (v Value) Yes() bool {
	switch strings.ToLower(v.String()) {
	case "yes", "true", "y", "1":
		return true
	}
	return false
}

// Flag is a checkbox answer. It tolerates "yes"/"no" strings alongside JSON
// booleans.
type Flag bool

// UnmarshalJSON accepts booleans, yes/no strings and null.
func (f *Flag) UnmarshalJSON(data []byte) error {
	var v Value
	if err := v.UnmarshalJSON(data); err != nil {
		return err
	}
	*f = Flag(v.Yes())
	return nil
}

// Set returns the boolean value.
func (f Flag) Set() bool { return bool(f) }

// Contains reports whether a multi-select holds the option.
func Contains(options []string, option string) bool {
	for _, o := range options {
		if o == option {
			return true
		}
	}
	return false
}

func truncate(data []byte) string {
	const max = 32
	if len(data) > max {
		return string(data[:max]) + "..."
	}
	return string(data)
}
