package catalog

import "capi/internal/models"

// AllStates lists each non-empty state once, in first-seen order.
func (e *Engine) AllStates() ([]string, error) {
	table, err := e.gate.Table()
	if err != nil {
		return nil, err
	}

	rows := []models.Row(table)
	if e.opts.SkipHeaderInStates {
		rows = rows[1:]
	}
	return distinct(rows, models.FieldState), nil
}

// DistrictsForState lists each non-empty district once, in first-seen order,
// among rows whose state contains term.
func (e *Engine) DistrictsForState(term string) ([]string, error) {
	table, err := e.gate.Table()
	if err != nil {
		return nil, err
	}

	rows := []models.Row(table)
	if e.opts.SkipHeaderInDistricts {
		rows = rows[1:]
	}
	return distinct(match(rows, models.FieldState, term), models.FieldDistrict), nil
}

func distinct(rows []models.Row, field int) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, row := range rows {
		v := row.Field(field)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

