package models

import (
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/spf13/cast"
)

// NoOffset disables pagination on district queries.
const NoOffset = -1

// Request header names.
const (
	HeaderKeyword  = "keyword"
	HeaderState    = "state"
	HeaderDistrict = "district"
	HeaderOffset   = "offset"
)

// SearchParams holds the input of a name search. An empty keyword matches
// every row.
type SearchParams struct {
	Keyword string
}

// StateParams holds the input of a state query. Offset is always >= 0.
type StateParams struct {
	State  string
	Offset int
}

// DistrictParams holds the input of a district query. Offset is NoOffset
// when the whole result is wanted.
type DistrictParams struct {
	District string
	Offset   int
}

// DistrictsParams holds the input of a district listing.
type DistrictsParams struct {
	State string
}

// ParseSearchParams reads the optional keyword header.
func ParseSearchParams(h http.Header) SearchParams {
	return SearchParams{Keyword: h.Get(HeaderKeyword)}
}

// ParseStateParams reads the required state header and the optional offset.
// Absent, non-numeric and non-positive offsets become 0.
func ParseStateParams(h http.Header) (StateParams, error) {
	state, err := requireHeader(h, HeaderState)
	if err != nil {
		return StateParams{}, err
	}

	offset, ok := parseOffset(h)
	if !ok || offset < 0 {
		offset = 0
	}

	return StateParams{State: state, Offset: offset}, nil
}

// ParseDistrictParams reads the required district header and the optional
// offset. Absent or non-numeric offsets and -1 select the whole result.
func ParseDistrictParams(h http.Header) (DistrictParams, error) {
	district, err := requireHeader(h, HeaderDistrict)
	if err != nil {
		return DistrictParams{}, err
	}

	offset, ok := parseOffset(h)
	switch {
	case !ok, offset == NoOffset:
		offset = NoOffset
	case offset < 0:
		offset = 0
	}

	return DistrictParams{District: district, Offset: offset}, nil
}

// ParseDistrictsParams reads the required state header.
func ParseDistrictsParams(h http.Header) (DistrictsParams, error) {
	state, err := requireHeader(h, HeaderState)
	if err != nil {
		return DistrictsParams{}, err
	}
	return DistrictsParams{State: state}, nil
}

// requireHeader returns the header value if the header is present. A present
// but empty header is accepted.
func requireHeader(h http.Header, name string) (string, error) {
	values := h.Values(name)
	if len(values) == 0 {
		return "", fmt.Errorf("%w: %s header is required", ErrBadRequest, name)
	}
	return values[0], nil
}

// parseOffset reads the offset header as a decimal number truncated toward
// zero, so "010" is 10 and "1.5" is 1.
func parseOffset(h http.Header) (int, bool) {
	raw := strings.TrimSpace(h.Get(HeaderOffset))
	if raw == "" {
		return 0, false
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Trunc(f)
	if f > math.MaxInt32 {
		return math.MaxInt32, true
	}
	if f < math.MinInt32 {
		return math.MinInt32, true
	}
	return int(f), true
}
