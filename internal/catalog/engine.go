package catalog

import (
	"strings"

	"capi/internal/formatter"
	"capi/internal/models"
)

// PageSize is the number of rows in a paginated window.
const PageSize = 10

// Options controls header-row handling of the distinct listings.
type Options struct {
	// SkipHeaderInStates excludes row 0 from AllStates.
	SkipHeaderInStates bool
	// SkipHeaderInDistricts excludes row 0 from DistrictsForState.
	SkipHeaderInDistricts bool
}

// DefaultOptions skips the header row for the state listing only.
func DefaultOptions() Options {
	return Options{SkipHeaderInStates: true}
}

// Engine answers college queries against the table held by a Gate.
type Engine struct {
	gate *Gate
	opts Options
}

// NewEngine creates an engine reading from gate.
func NewEngine(gate *Gate, opts Options) *Engine {
	return &Engine{gate: gate, opts: opts}
}

// Count returns the number of rows in the table, header included.
func (e *Engine) Count() (int, error) {
	table, err := e.gate.Table()
	if err != nil {
		return 0, err
	}
	return table.Len(), nil
}

// Search returns every row whose name contains term.
func (e *Engine) Search(term string) ([]models.Row, error) {
	table, err := e.gate.Table()
	if err != nil {
		return nil, err
	}
	return formatter.FormatRows(match(table, models.FieldName, term)), nil
}

// ByState returns a window of rows whose state contains term.
func (e *Engine) ByState(term string, offset int) ([]models.Row, error) {
	table, err := e.gate.Table()
	if err != nil {
		return nil, err
	}
	return formatter.FormatRows(window(match(table, models.FieldState, term), offset)), nil
}

// ByDistrict returns rows whose district contains term. With
// models.NoOffset the whole result is returned, otherwise a window.
func (e *Engine) ByDistrict(term string, offset int) ([]models.Row, error) {
	table, err := e.gate.Table()
	if err != nil {
		return nil, err
	}
	rows := match(table, models.FieldDistrict, term)
	if offset != models.NoOffset {
		rows = window(rows, offset)
	}
	return formatter.FormatRows(rows), nil
}

// match returns the rows whose field contains term, ignoring case, in table
// order. An empty term matches every row.
func match(rows []models.Row, field int, term string) []models.Row {
	term = strings.ToLower(term)
	out := make([]models.Row, 0)
	for _, row := range rows {
		if strings.Contains(strings.ToLower(row.Field(field)), term) {
			out = append(out, row)
		}
	}
	return out
}

// window returns at most PageSize rows starting at offset. Offsets past the
// end give an empty slice.
func window(rows []models.Row, offset int) []models.Row {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return rows[:0]
	}
	end := offset + PageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}
