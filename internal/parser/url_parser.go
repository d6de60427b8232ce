package parser

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"capi/internal/models"
)

// URLParser downloads the dataset as CSV text over HTTP
type URLParser struct {
	client *http.Client
}

// NewURLParser creates a new URL parser. A nil client gets a default one with
// a 30 second timeout.
func NewURLParser(client *http.Client) *URLParser {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &URLParser{client: client}
}

// Method returns the parser type
func (p *URLParser) Method() string {
	return MethodURL
}

// Parse implements the Parser interface
func (p *URLParser) Parse(ctx context.Context, location string) (models.Table, error) {
	log.Printf("Starting to download CSV from: %s", location)

	body, err := download(ctx, p.client, location)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	table, err := ReadCSV(body)
	if err != nil {
		return nil, NewParseError(StageParse, err)
	}

	log.Printf("Downloaded %d rows", len(table))
	return table, nil
}

// Cleanup is a no-op for URL sources
func (p *URLParser) Cleanup() error {
	return nil
}

// download issues a GET for location and returns the response body on any
// 2xx status. The caller closes the body.
func download(ctx context.Context, client *http.Client, location string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, NewParseError(StageFetch, fmt.Errorf("failed to create request: %w", err))
	}

	// Some dataset hosts refuse non-browser clients
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := client.Do(req)
	if err != nil {
		return nil, NewParseError(StageFetch, fmt.Errorf("failed to download file: %w", err))
	}

	log.Printf("Received response with status code: %d", resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, NewParseError(StageStatus, fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	return resp.Body, nil
}
