package formatter

import (
	"regexp"

	"capi/internal/models"
)

var (
	// colonSpan matches a colon followed by any non-'>' run through a ')'.
	colonSpan = regexp.MustCompile(`:[^>]*\)`)
	// idMarker matches the literal "(Id" in any case.
	idMarker = regexp.MustCompile(`(?i)\(Id`)
)

// CleanName strips the ": ...)" span and "(Id" markers that the source
// dataset embeds in college names. It never fails and is idempotent.
func CleanName(name string) string {
	if name == "" {
		return ""
	}
	for {
		cleaned := colonSpan.ReplaceAllString(name, "")
		cleaned = idMarker.ReplaceAllString(cleaned, "")
		if cleaned == name {
			return cleaned
		}
		name = cleaned
	}
}

// FormatRow returns a copy of row with both name fields cleaned. The input
// row is left untouched.
func FormatRow(row models.Row) models.Row {
	out := row.Clone()
	for _, i := range []int{models.FieldShortName, models.FieldName} {
		if i < len(out) {
			out[i] = CleanName(out[i])
		}
	}
	return out
}

// FormatRows applies FormatRow to every row.
func FormatRows(rows []models.Row) []models.Row {
	out := make([]models.Row, len(rows))
	for i, row := range rows {
		out[i] = FormatRow(row)
	}
	return out
}
