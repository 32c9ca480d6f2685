package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/blackwell-systems/clientdash/internal/records"
)

// UpdatePayload is the opaque data carried by an assistant reply. Accepted
// shapes are an array of row objects keyed by sheet header, an object with a
// "records" or "rows" array, or a string holding CSV text.
type UpdatePayload = json.RawMessage

// decodePayload turns p into a RecordSet. A payload that yields no record,
// including an empty array, is rejected so an update never blanks the
// dashboard.
func decodePayload(p UpdatePayload) (records.RecordSet, records.Diagnostics, error) {
	rs, diag, err := decodeShape(p)
	if err != nil {
		return records.RecordSet{}, records.Diagnostics{}, err
	}
	if rs.Len() == 0 {
		reason := "payload has no usable records"
		switch {
		case diag.TotalRows == 0:
			reason = "payload has no rows"
		case diag.DroppedRows == diag.TotalRows && len(diag.UnknownColumns) > 0:
			reason = fmt.Sprintf("payload has no usable records (no %q column; got %v)", records.ColumnName, diag.UnknownColumns)
		}
		return records.RecordSet{}, records.Diagnostics{}, &ValidationError{Reason: reason}
	}
	return rs, diag, nil
}

func decodeShape(p UpdatePayload) (records.RecordSet, records.Diagnostics, error) {
	trimmed := bytes.TrimSpace(p)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return records.RecordSet{}, records.Diagnostics{}, &ValidationError{Reason: "payload is empty"}
	}

	switch trimmed[0] {
	case '[':
		rows, err := decodeRows(trimmed)
		if err != nil {
			return records.RecordSet{}, records.Diagnostics{}, err
		}
		rs, diag := records.FromRows(rows)
		return rs, diag, nil

	case '{':
		var wrapper struct {
			Records json.RawMessage `json:"records"`
			Rows    json.RawMessage `json:"rows"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return records.RecordSet{}, records.Diagnostics{}, &ValidationError{Reason: "malformed object", Err: err}
		}
		inner := wrapper.Records
		if len(bytes.TrimSpace(inner)) == 0 {
			inner = wrapper.Rows
		}
		inner = bytes.TrimSpace(inner)
		if len(inner) == 0 || inner[0] != '[' {
			return records.RecordSet{}, records.Diagnostics{}, &ValidationError{Reason: `object payload needs a "records" or "rows" array`}
		}
		return decodeShape(inner)

	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return records.RecordSet{}, records.Diagnostics{}, &ValidationError{Reason: "malformed string", Err: err}
		}
		rs, diag, err := records.Normalize(text)
		if err != nil {
			return records.RecordSet{}, records.Diagnostics{}, &ValidationError{Reason: "csv payload", Err: err}
		}
		return rs, diag, nil

	default:
		return records.RecordSet{}, records.Diagnostics{}, &ValidationError{Reason: fmt.Sprintf("unsupported payload starting with %q", trimmed[0])}
	}
}

func decodeRows(data []byte) ([]map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, &ValidationError{Reason: "rows must be objects", Err: err}
	}

	rows := make([]map[string]string, 0, len(raw))
	for _, obj := range raw {
		row := make(map[string]string, len(obj))
		for k, v := range obj {
			row[k] = cellText(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// cellText renders a decoded JSON value the way a spreadsheet cell would
// show it.
func cellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
