// Package ingest reads person and firm rows from delimited text files with a
// declared encoding, delimiter and column mapping.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/touchstone-templates/pkg/corpus"
	"github.com/hazyhaar/touchstone-templates/pkg/lexicon"
)

// Format describes the file layout.
type Format struct {
	Delimiter string `yaml:"delimiter" json:"delimiter"`
	Encoding  string `yaml:"encoding" json:"encoding"`
	HasHeader bool   `yaml:"has_header" json:"has_header"`
	// Columns maps a field (id, name, email, firm, domain) to a header name,
	// or to a zero-based column index when the file has no header.
	Columns map[string]string `yaml:"columns" json:"columns,omitempty"`
}

// DefaultFormat is UTF-8, comma separated, with a header row.
func DefaultFormat() Format {
	return Format{Delimiter: ",", HasHeader: true}
}

// LoadFormat reads a Format from a YAML file. Unset keys keep their default.
func LoadFormat(path string) (Format, error) {
	f := DefaultFormat()
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("read format %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parse format %s: %w", path, err)
	}
	return f, nil
}

type field struct {
	name     string
	aliases  []string // header names tried when Columns has no entry
	pos      int      // default index without a header; -1 for none
	required bool
}

var (
	personFields = []field{
		{name: "id", aliases: []string{"id", "record_id"}, pos: -1},
		{name: "name", aliases: []string{"name", "full_name", "investor"}, pos: 0, required: true},
		{name: "email", aliases: []string{"email", "email_address"}, pos: 1, required: true},
		{name: "firm", aliases: []string{"firm", "company"}, pos: 2},
	}
	firmFields = []field{
		{name: "id", aliases: []string{"id", "record_id"}, pos: -1},
		{name: "firm", aliases: []string{"firm", "company"}, pos: 0, required: true},
		{name: "domain", aliases: []string{"domain", "website"}, pos: 1, required: true},
	}
)

// ReadPeople reads name and email rows. Rows without an id column are
// numbered from 1 in file order.
func ReadPeople(r io.Reader, f Format) ([]corpus.PersonRow, error) {
	var out []corpus.PersonRow
	err := readTable(r, f, personFields, func(n int, get func(string) string) {
		out = append(out, corpus.PersonRow{
			ID:    rowID(get("id"), n),
			Name:  get("name"),
			Email: get("email"),
			Firm:  get("firm"),
		})
	})
	return out, err
}

// ReadFirms reads firm and domain rows.
func ReadFirms(r io.Reader, f Format) ([]corpus.FirmRow, error) {
	var out []corpus.FirmRow
	err := readTable(r, f, firmFields, func(n int, get func(string) string) {
		out = append(out, corpus.FirmRow{
			ID:     rowID(get("id"), n),
			Firm:   get("firm"),
			Domain: get("domain"),
		})
	})
	return out, err
}

// ReadPeopleFile opens path and calls ReadPeople.
func ReadPeopleFile(path string, f Format) ([]corpus.PersonRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer file.Close()
	return ReadPeople(file, f)
}

// ReadFirmsFile opens path and calls ReadFirms.
func ReadFirmsFile(path string, f Format) ([]corpus.FirmRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer file.Close()
	return ReadFirms(file, f)
}

func rowID(id string, n int) string {
	if id != "" {
		return id
	}
	return strconv.Itoa(n)
}

func readTable(r io.Reader, f Format, fields []field, emit func(n int, get func(string) string)) error {
	// Transcode non-UTF-8 encodings.
	if enc := f.Encoding; enc != "" && !isUTF8(enc) {
		e, err := htmlindex.Get(enc)
		if err != nil {
			return fmt.Errorf("unsupported encoding %q: %w", enc, err)
		}
		r = transform.NewReader(r, e.NewDecoder())
	}

	cr := csv.NewReader(r)
	if delim := f.Delimiter; delim != "" {
		cr.Comma = []rune(delim)[0]
	}
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	var header []string
	if f.HasHeader {
		var err error
		header, err = cr.Read()
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}
		for i := range header {
			header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
		}
	}

	idx, err := resolveColumns(f, header, fields)
	if err != nil {
		return err
	}

	n := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}
		n++
		emit(n, func(name string) string {
			i, ok := idx[name]
			if !ok || i >= len(record) {
				return ""
			}
			return lexicon.CollapseSpaces(record[i])
		})
	}
	return nil
}

// resolveColumns maps each field to a column index.
func resolveColumns(f Format, header []string, fields []field) (map[string]int, error) {
	idx := make(map[string]int, len(fields))
	for _, fd := range fields {
		col, explicit := f.Columns[fd.name]

		if header == nil {
			switch {
			case explicit:
				i, err := strconv.Atoi(col)
				if err != nil || i < 0 {
					return nil, fmt.Errorf("column %q: %q is not an index (file has no header)", fd.name, col)
				}
				idx[fd.name] = i
			case fd.pos >= 0:
				idx[fd.name] = fd.pos
			}
			continue
		}

		candidates := fd.aliases
		if explicit {
			candidates = []string{col}
		}
		found := false
		for _, c := range candidates {
			for i, h := range header {
				if headerKey(h) == headerKey(c) {
					idx[fd.name] = i
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found && (fd.required || explicit) {
			return nil, fmt.Errorf("column %q not found in header %v", candidates[0], header)
		}
	}
	return idx, nil
}

// headerKey compares header names ignoring case, accents and spacing.
func headerKey(s string) string {
	return lexicon.NormalizeLowercaseASCII(lexicon.CollapseSpaces(s))
}

func isUTF8(enc string) bool {
	e := strings.ToLower(strings.ReplaceAll(enc, "-", ""))
	return e == "utf8" || e == ""
}
