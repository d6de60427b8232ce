package models

// Column positions of a college row.
const (
	FieldID        = 0
	FieldShortName = 1
	FieldName      = 2
	FieldReserved  = 3
	FieldState     = 4
	FieldDistrict  = 5
)

// Row is one record of the colleges dataset, a fixed-position sequence of
// string fields. Rows read from the source may be ragged.
type Row []string

// Field returns the value at position i, or "" if the row is too short.
func (r Row) Field(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}

// Clone returns a copy that shares no backing storage with r.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// Table is the ordered collection of rows in source file order. Row 0 may be
// a header row.
type Table []Row

// Len returns the number of rows, header included.
func (t Table) Len() int {
	return len(t)
}
