// internal/parser/parser.go
package parser

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"capi/internal/models"
)

// Parse stages reported by ParseError.
const (
	StageFetch   = "fetch"
	StageStatus  = "status"
	StageExtract = "extract"
	StageParse   = "parse"
)

// Parser loads the colleges dataset from one kind of source
type Parser interface {
	// Method returns the source kind (e.g., "file", "url", "zip")
	Method() string

	// Parse reads and decodes the dataset found at location
	Parse(ctx context.Context, location string) (models.Table, error)

	// Cleanup releases any temporary resources
	Cleanup() error
}

// ParseError represents a loading error with a specific stage
type ParseError struct {
	Stage string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s stage: %v", e.Stage, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(stage string, err error) *ParseError {
	return &ParseError{
		Stage: stage,
		Err:   err,
	}
}

// IsStage reports whether err is a ParseError raised at the given stage.
func IsStage(err error, stage string) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Stage == stage
}

// ReadCSV decodes comma separated text into a table. Quotes are honoured but
// not enforced and rows may have any number of fields.
func ReadCSV(r io.Reader) (models.Table, error) {
	br := bufio.NewReader(r)
	if err := skipBOM(br); err != nil {
		return nil, err
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var table models.Table
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return table, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", len(table)+1, err)
		}
		table = append(table, models.Row(record))
	}
}

func skipBOM(br *bufio.Reader) error {
	r, _, err := br.ReadRune()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	if r != '\uFEFF' {
		return br.UnreadRune()
	}
	return nil
}
