// Package h2k reads and writes the line-oriented HOT2000 input file: a
// comment header followed by [SECTION] blocks of Key=Value lines.
package h2k

import (
	"auditcore/internal/export/render"
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformed reports a line that is neither a comment, a section header nor
// a Key=Value statement.
var ErrMalformed = errors.New("malformed h2k line")

// Entry is one statement of a section. An entry with an empty Key and a
// Comment renders as a comment line.
type Entry struct {
	Key     string
	Value   string
	Comment string
}

// Section is a named block of entries.
type Section struct {
	Name    string
	Entries []Entry
}

// Get returns the value of the first entry with key.
func (s Section) Get(key string) (string, bool) {
	for _, e := range s.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// Document is a complete file.
type Document struct {
	Header   []string
	Sections []Section
}

// Section returns the first section with the given name.
func (d Document) Section(name string) (Section, bool) {
	for _, s := range d.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// Encode writes the document. Every value is folded to single-line ASCII.
func (d Document) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, line := range d.Header {
		fmt.Fprintf(bw, "# %s\n", render.ASCII(line))
	}
	for _, s := range d.Sections {
		fmt.Fprintf(bw, "\n[%s]\n", s.Name)
		for _, e := range s.Entries {
			if e.Key == "" {
				fmt.Fprintf(bw, "\n# %s\n", render.ASCII(e.Comment))
				continue
			}
			fmt.Fprintf(bw, "%s=%s\n", e.Key, render.ASCII(e.Value))
		}
	}
	return bw.Flush()
}

// String renders the document as text.
func (d Document) String() string {
	var b strings.Builder
	_ = d.Encode(&b)
	return b.String()
}

// Parse reads a file back into its header and ordered sections. Comment
// lines inside sections and blank lines are skipped.
func Parse(r io.Reader) (Document, error) {
	var (
		doc     Document
		current *Section
		lineNo  int
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
		case strings.HasPrefix(line, "#"):
			if current == nil {
				doc.Header = append(doc.Header, strings.TrimSpace(strings.TrimPrefix(line, "#")))
			}
		case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
			name := strings.TrimSpace(line[1 : len(line)-1])
			if name == "" {
				return Document{}, fmt.Errorf("line %d: empty section name: %w", lineNo, ErrMalformed)
			}
			doc.Sections = append(doc.Sections, Section{Name: name})
			current = &doc.Sections[len(doc.Sections)-1]
		default:
			key, value, ok := strings.Cut(line, "=")
			if !ok || current == nil || strings.TrimSpace(key) == "" {
				return Document{}, fmt.Errorf("line %d: %w", lineNo, ErrMalformed)
			}
			current.Entries = append(current.Entries, Entry{Key: strings.TrimSpace(key), Value: value})
		}
	}
	if err := sc.Err(); err != nil {
		return Document{}, fmt.Errorf("read h2k: %w", err)
	}
	return doc, nil
}
