package parser

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"capi/internal/models"
)

// Source kinds understood by the manager.
const (
	MethodFile = "file"
	MethodURL  = "url"
	MethodZIP  = "zip"
)

// ParserManager manages the parsers for each source kind
type ParserManager struct {
	parsers map[string]Parser
}

// NewParserManager creates a new parser manager with the file, url and zip
// parsers registered
func NewParserManager(client *http.Client) (*ParserManager, error) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	m := &ParserManager{
		parsers: make(map[string]Parser),
	}

	m.RegisterParser(NewFileParser())
	m.RegisterParser(NewURLParser(client))

	zipParser, err := NewZIPParser(client)
	if err != nil {
		return nil, fmt.Errorf("failed to create ZIP parser: %w", err)
	}
	m.RegisterParser(zipParser)

	return m, nil
}

// RegisterParser adds a new parser to the manager
func (m *ParserManager) RegisterParser(parser Parser) {
	m.parsers[parser.Method()] = parser
}

// GetParser retrieves a parser by method
func (m *ParserManager) GetParser(method string) (Parser, error) {
	parser, ok := m.parsers[method]
	if !ok {
		return nil, fmt.Errorf("no parser found for method: %s", method)
	}
	return parser, nil
}

// ResolveMethod picks the source kind for a location
func ResolveMethod(location string) string {
	trimmed := strings.ToLower(location)
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	switch {
	case strings.HasSuffix(trimmed, ".zip"):
		return MethodZIP
	case isURL(location):
		return MethodURL
	default:
		return MethodFile
	}
}

// Load reads the dataset at location with the matching parser
func (m *ParserManager) Load(ctx context.Context, location string) (models.Table, error) {
	if strings.TrimSpace(location) == "" {
		return nil, NewParseError(StageFetch, fmt.Errorf("empty source location"))
	}

	method := ResolveMethod(location)
	parser, err := m.GetParser(method)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	table, err := parser.Parse(ctx, location)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d rows via %s parser in %s", len(table), method, time.Since(start).Round(time.Millisecond))
	return table, nil
}

// Cleanup performs any necessary cleanup
func (m *ParserManager) Cleanup() {
	for _, p := range m.parsers {
		if err := p.Cleanup(); err != nil {
			log.Printf("Error cleaning up parser: %v", err)
		}
	}
}

func isURL(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
