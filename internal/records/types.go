// Package records parses spreadsheet CSV exports into ordered client records.
package records

// Source column headers. Matching is by exact literal text.
const (
	ColumnName      = "Clients"
	ColumnHeadshots = "No. of Headshots"
	ColumnPrice     = "Price"
	ColumnStatus    = "Status"
	ColumnEmail     = "Email"
	ColumnDate      = "Date"
)

// ClientRecord is one row of the source sheet. All fields hold the raw cell
// text; numeric coercion happens in the analyzer.
type ClientRecord struct {
	// Name is the client name. Never blank inside a RecordSet.
	Name string `json:"name"`

	// HeadshotCount is the raw "No. of Headshots" cell.
	HeadshotCount string `json:"headshot_count"`

	// Price is the raw price cell, e.g. "$1,200.50".
	Price string `json:"price"`

	// Status is free text with no fixed vocabulary.
	Status string `json:"status"`

	Email string `json:"email"`

	// Date is optional; sheets without a Date column leave it empty.
	Date string `json:"date,omitempty"`
}

// Diagnostics are advisory counters produced while normalizing.
type Diagnostics struct {
	// TotalRows is the number of non-empty data rows read.
	TotalRows int `json:"total_rows"`

	// DroppedRows counts rows excluded for a missing or blank name.
	DroppedRows int `json:"dropped_rows"`

	// UnknownColumns lists headers that do not map to a record field.
	UnknownColumns []string `json:"unknown_columns,omitempty"`
}

// RecordSet is an ordered, immutable collection of client records. The zero
// value is an empty set.
type RecordSet struct {
	items []ClientRecord
}

// NewRecordSet copies recs into a RecordSet, dropping entries whose name is
// blank so the set invariant always holds.
func NewRecordSet(recs []ClientRecord) RecordSet {
	items := make([]ClientRecord, 0, len(recs))
	for _, r := range recs {
		if hasName(r.Name) {
			items = append(items, r)
		}
	}
	return RecordSet{items: items}
}

// Len returns the number of records.
func (rs RecordSet) Len() int {
	return len(rs.items)
}

// At returns the record at position i.
func (rs RecordSet) At(i int) ClientRecord {
	return rs.items[i]
}

// All returns a copy of the records in source order.
func (rs RecordSet) All() []ClientRecord {
	out := make([]ClientRecord, len(rs.items))
	copy(out, rs.items)
	return out
}

// Page returns the 1-based page of records for the given page size, plus the
// total page count. Out-of-range pages return an empty slice.
func (rs RecordSet) Page(page, perPage int) ([]ClientRecord, int) {
	if perPage <= 0 {
		perPage = 10
	}
	pages := (len(rs.items) + perPage - 1) / perPage
	if page < 1 || page > pages {
		return []ClientRecord{}, pages
	}
	start := (page - 1) * perPage
	end := start + perPage
	if end > len(rs.items) {
		end = len(rs.items)
	}
	out := make([]ClientRecord, end-start)
	copy(out, rs.items[start:end])
	return out, pages
}
