package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
)

// ParseError reports tabular text that could not be tokenized at all.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// fieldSetters maps exact header text to the record field it fills.
var fieldSetters = map[string]func(*ClientRecord, string){
	ColumnName:      func(r *ClientRecord, v string) { r.Name = v },
	ColumnHeadshots: func(r *ClientRecord, v string) { r.HeadshotCount = v },
	ColumnPrice:     func(r *ClientRecord, v string) { r.Price = v },
	ColumnStatus:    func(r *ClientRecord, v string) { r.Status = v },
	ColumnEmail:     func(r *ClientRecord, v string) { r.Email = v },
	ColumnDate:      func(r *ClientRecord, v string) { r.Date = v },
}

// Normalize parses CSV text with a header row into a RecordSet. Rows with a
// missing or blank name are dropped and counted in the diagnostics. Cell
// values are kept verbatim. A *ParseError is returned only when the text
// cannot be tokenized.
func Normalize(raw string) (RecordSet, Diagnostics, error) {
	var diag Diagnostics

	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(raw, "\ufeff")))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return RecordSet{}, diag, nil
	}
	if err != nil {
		return RecordSet{}, diag, toParseError(err)
	}

	setters := make([]func(*ClientRecord, string), len(header))
	for i, h := range header {
		if set, ok := fieldSetters[h]; ok {
			setters[i] = set
		} else if strings.TrimSpace(h) != "" {
			diag.UnknownColumns = append(diag.UnknownColumns, h)
		}
	}

	var items []ClientRecord
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return RecordSet{}, Diagnostics{}, toParseError(err)
		}
		if isBlankRow(row) {
			continue
		}
		diag.TotalRows++

		var rec ClientRecord
		for i, v := range row {
			if i < len(setters) && setters[i] != nil {
				setters[i](&rec, v)
			}
		}
		if !hasName(rec.Name) {
			diag.DroppedRows++
			continue
		}
		items = append(items, rec)
	}

	return RecordSet{items: items}, diag, nil
}

// FromRows builds a RecordSet from rows already keyed by header text, applying
// the same name rule as Normalize. Unknown keys are reported sorted.
func FromRows(rows []map[string]string) (RecordSet, Diagnostics) {
	var diag Diagnostics
	unknown := make(map[string]bool)
	items := make([]ClientRecord, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		diag.TotalRows++
		var rec ClientRecord
		for k, v := range row {
			if set, ok := fieldSetters[k]; ok {
				set(&rec, v)
			} else if strings.TrimSpace(k) != "" {
				unknown[k] = true
			}
		}
		if !hasName(rec.Name) {
			diag.DroppedRows++
			continue
		}
		items = append(items, rec)
	}
	if len(unknown) > 0 {
		diag.UnknownColumns = slices.Sorted(maps.Keys(unknown))
	}
	return RecordSet{items: items}, diag
}

func hasName(name string) bool {
	return strings.TrimSpace(name) != ""
}

// isBlankRow reports whether every cell in row is empty. The csv reader
// already skips fully empty lines; this catches ",,,," rows.
func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func toParseError(err error) *ParseError {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return &ParseError{Line: perr.Line, Err: perr.Err}
	}
	return &ParseError{Err: err}
}
