package parser

import (
	"archive/zip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capi/internal/models"
)

const sampleCSV = "id,short,name,x,state,district\n" +
	"1,Short A,\"Inst (Id: 1) A\",,Tamil Nadu,Coimbatore\n" +
	"2,Short B,Inst B,,Kerala\n"

func writeZIP(t *testing.T, dir string, files map[string]string) string {
	t.Helper()

	path := filepath.Join(dir, "data.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range files {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return path
}

func TestReadCSV_RaggedRows(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(sampleCSV))

	require.NoError(t, err)
	require.Len(t, table, 3)
	assert.Equal(t, models.Row{"1", "Short A", "Inst (Id: 1) A", "", "Tamil Nadu", "Coimbatore"}, table[1])
	assert.Len(t, table[2], 5)
	assert.Equal(t, "", table[2].Field(models.FieldDistrict))
}

func TestReadCSV_StripsBOM(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("\ufeffid,name\n1,A\n"))

	require.NoError(t, err)
	assert.Equal(t, "id", table[0][0])
}

func TestReadCSV_LazyQuotes(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("1,College \"North\" Campus,x\n"))

	require.NoError(t, err)
	assert.Equal(t, `College "North" Campus`, table[0][1])
}

func TestReadCSV_Empty(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(""))

	require.NoError(t, err)
	assert.Empty(t, table)
}

func TestFileParser_Parse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	table, err := NewFileParser().Parse(context.Background(), path)

	require.NoError(t, err)
	assert.Len(t, table, 3)
}

func TestFileParser_MissingFile(t *testing.T) {
	_, err := NewFileParser().Parse(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))

	require.Error(t, err)
	assert.True(t, IsStage(err, StageFetch))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestURLParser_Parse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	table, err := NewURLParser(srv.Client()).Parse(context.Background(), srv.URL+"/database.csv")

	require.NoError(t, err)
	assert.Len(t, table, 3)
}

func TestURLParser_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewURLParser(srv.Client()).Parse(context.Background(), srv.URL)

	require.Error(t, err)
	assert.True(t, IsStage(err, StageStatus))
}

func TestURLParser_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewURLParser(nil).Parse(context.Background(), url)

	require.Error(t, err)
	assert.True(t, IsStage(err, StageFetch))
}

func TestZIPParser_LocalArchive(t *testing.T) {
	path := writeZIP(t, t.TempDir(), map[string]string{
		"readme.txt":   "not data",
		"colleges.csv": sampleCSV,
	})
	p, err := NewZIPParser(nil)
	require.NoError(t, err)
	defer p.Cleanup()

	table, err := p.Parse(context.Background(), path)

	require.NoError(t, err)
	assert.Len(t, table, 3)
}

func TestZIPParser_RemoteArchive(t *testing.T) {
	path := writeZIP(t, t.TempDir(), map[string]string{"colleges.csv": sampleCSV})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, path)
	}))
	defer srv.Close()

	p, err := NewZIPParser(srv.Client())
	require.NoError(t, err)
	defer p.Cleanup()

	table, err := p.Parse(context.Background(), srv.URL+"/data.zip")

	require.NoError(t, err)
	assert.Len(t, table, 3)
}

func TestZIPParser_NoCSV(t *testing.T) {
	path := writeZIP(t, t.TempDir(), map[string]string{"readme.txt": "nothing"})
	p, err := NewZIPParser(nil)
	require.NoError(t, err)
	defer p.Cleanup()

	_, err = p.Parse(context.Background(), path)

	require.Error(t, err)
	assert.True(t, IsStage(err, StageExtract))
	assert.ErrorIs(t, err, ErrNoCSV)
}

func TestZIPParser_CleanupRemovesTempDir(t *testing.T) {
	p, err := NewZIPParser(nil)
	require.NoError(t, err)

	require.NoError(t, p.Cleanup())

	_, err = os.Stat(p.tempDir)
	assert.True(t, os.IsNotExist(err))
}

func TestResolveMethod(t *testing.T) {
	tests := []struct {
		location string
		want     string
	}{
		{"database.csv", MethodFile},
		{"/srv/data/colleges.csv", MethodFile},
		{"data/colleges.ZIP", MethodZIP},
		{"https://example.com/colleges.csv", MethodURL},
		{"HTTP://example.com/colleges.csv", MethodURL},
		{"https://example.com/colleges.zip?token=abc", MethodZIP},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveMethod(tt.location))
		})
	}
}

func TestParserManager_Load(t *testing.T) {
	m, err := NewParserManager(nil)
	require.NoError(t, err)
	defer m.Cleanup()

	path := filepath.Join(t.TempDir(), "database.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	table, err := m.Load(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
}

func TestParserManager_EmptyLocation(t *testing.T) {
	m, err := NewParserManager(nil)
	require.NoError(t, err)
	defer m.Cleanup()

	_, err = m.Load(context.Background(), "  ")

	assert.True(t, IsStage(err, StageFetch))
}

func TestParserManager_UnknownMethod(t *testing.T) {
	m := &ParserManager{parsers: map[string]Parser{}}

	_, err := m.GetParser("ftp")

	assert.EqualError(t, err, "no parser found for method: ftp")
}
