package parser

import (
	"context"
	"fmt"
	"log"
	"os"

	"capi/internal/models"
)

// FileParser reads the dataset from a local CSV file
type FileParser struct{}

// NewFileParser creates a new file parser
func NewFileParser() *FileParser {
	return &FileParser{}
}

// Method returns the parser type
func (p *FileParser) Method() string {
	return MethodFile
}

// Parse implements the Parser interface
func (p *FileParser) Parse(ctx context.Context, location string) (models.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewParseError(StageFetch, err)
	}

	log.Printf("Reading CSV file: %s", location)
	f, err := os.Open(location)
	if err != nil {
		return nil, NewParseError(StageFetch, fmt.Errorf("failed to open file: %w", err))
	}
	defer f.Close()

	table, err := ReadCSV(f)
	if err != nil {
		return nil, NewParseError(StageParse, err)
	}
	return table, nil
}

// Cleanup is a no-op for local files
func (p *FileParser) Cleanup() error {
	return nil
}
