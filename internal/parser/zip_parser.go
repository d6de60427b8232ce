package parser

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"capi/internal/models"
)

// ErrNoCSV is returned when an archive holds no CSV entry.
var ErrNoCSV = errors.New("no CSV file in archive")

// ZIPParser implements Parser interface for ZIP archives containing the CSV
// dataset. Archives may be local paths or URLs.
type ZIPParser struct {
	tempDir string
	client  *http.Client
}

// NewZIPParser creates a new ZIP parser instance
func NewZIPParser(client *http.Client) (*ZIPParser, error) {
	tempDir, err := os.MkdirTemp("", "colleges_data_*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &ZIPParser{
		tempDir: tempDir,
		client:  client,
	}, nil
}

// Method returns the parser type
func (p *ZIPParser) Method() string {
	return MethodZIP
}

// Parse implements the Parser interface
func (p *ZIPParser) Parse(ctx context.Context, location string) (models.Table, error) {
	zipPath := location
	if isURL(location) {
		log.Printf("Downloading ZIP file...")
		downloaded, err := p.downloadZIP(ctx, location)
		if err != nil {
			return nil, err
		}
		defer os.Remove(downloaded)
		zipPath = downloaded
	}

	return p.processZIPFile(ctx, zipPath)
}

// downloadZIP saves the archive at url into the parser's temp directory
func (p *ZIPParser) downloadZIP(ctx context.Context, url string) (string, error) {
	body, err := download(ctx, p.client, url)
	if err != nil {
		return "", err
	}
	defer body.Close()

	zipPath := filepath.Join(p.tempDir, "download.zip")
	f, err := os.Create(zipPath)
	if err != nil {
		return "", NewParseError(StageFetch, fmt.Errorf("failed to create temp file: %w", err))
	}
	defer f.Close()

	written, err := io.Copy(f, body)
	if err != nil {
		os.Remove(zipPath)
		return "", NewParseError(StageFetch, fmt.Errorf("failed to save file: %w", err))
	}
	log.Printf("Successfully wrote %d bytes to %s", written, zipPath)

	return zipPath, nil
}

// processZIPFile parses the first CSV entry of the archive
func (p *ZIPParser) processZIPFile(ctx context.Context, zipPath string) (models.Table, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, NewParseError(StageFetch, err)
		}
		return nil, NewParseError(StageExtract, fmt.Errorf("failed to open ZIP: %w", err))
	}
	defer r.Close()

	log.Printf("Found %d files in ZIP archive", len(r.File))

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return nil, NewParseError(StageExtract, err)
		}
		// Skip if not CSV
		if f.FileInfo().IsDir() || !strings.HasSuffix(strings.ToLower(f.Name), ".csv") {
			log.Printf("Skipping non-CSV file: %s", f.Name)
			continue
		}
		return p.processZIPEntry(f)
	}

	return nil, NewParseError(StageExtract, ErrNoCSV)
}

// processZIPEntry decodes a single CSV file from the archive
func (p *ZIPParser) processZIPEntry(f *zip.File) (models.Table, error) {
	log.Printf("Processing CSV file: %s", f.Name)

	rc, err := f.Open()
	if err != nil {
		return nil, NewParseError(StageExtract, fmt.Errorf("failed to open file in ZIP: %w", err))
	}
	defer rc.Close()

	table, err := ReadCSV(rc)
	if err != nil {
		return nil, NewParseError(StageParse, fmt.Errorf("%s: %w", f.Name, err))
	}
	return table, nil
}

// Cleanup removes temporary files
func (p *ZIPParser) Cleanup() error {
	return os.RemoveAll(p.tempDir)
}
