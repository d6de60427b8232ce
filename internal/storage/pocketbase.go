package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/migrations/logs"
	pbModels "github.com/pocketbase/pocketbase/models"
	"github.com/pocketbase/pocketbase/models/schema"
	"github.com/pocketbase/pocketbase/tools/migrate"

	"capi/internal/resume"
)

// Options configures the PocketBase store.
type Options struct {
	DataDir string
	// Collection holds the user records that carry the resume URL.
	Collection string
	// Field is the URL field on Collection.
	Field string
	// PublicURL is the base under which stored files are served.
	PublicURL string
}

// PocketBaseStore keeps user records and resume files in an embedded
// PocketBase instance.
type PocketBaseStore struct {
	app        *pocketbase.PocketBase
	collection string
	field      string
	publicURL  string
}

// NewPocketBaseStore bootstraps PocketBase in opts.DataDir, applies the app
// migrations and makes sure the resume field exists.
func NewPocketBaseStore(opts Options) (*PocketBaseStore, error) {
	if err := os.MkdirAll(opts.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir:  opts.DataDir,
		HideStartBanner: true,
	})

	if err := app.Bootstrap(); err != nil {
		return nil, fmt.Errorf("failed to bootstrap PocketBase: %w", err)
	}

	if err := runMigrations(app); err != nil {
		return nil, err
	}

	if err := app.RefreshSettings(); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	if err := ensureCollection(app, opts.Collection, opts.Field); err != nil {
		return nil, fmt.Errorf("failed to ensure collection exists: %w", err)
	}

	return &PocketBaseStore{
		app:        app,
		collection: opts.Collection,
		field:      opts.Field,
		publicURL:  strings.TrimRight(opts.PublicURL, "/"),
	}, nil
}

func runMigrations(app *pocketbase.PocketBase) error {
	connections := []struct {
		name string
		run  func() (*migrate.Runner, error)
	}{
		{"data", func() (*migrate.Runner, error) { return migrate.NewRunner(app.DB(), migrations.AppMigrations) }},
		{"logs", func() (*migrate.Runner, error) { return migrate.NewRunner(app.LogsDB(), logs.LogsMigrations) }},
	}

	for _, c := range connections {
		runner, err := c.run()
		if err != nil {
			return fmt.Errorf("failed to init %s migrations: %w", c.name, err)
		}
		applied, err := runner.Up()
		if err != nil {
			return fmt.Errorf("failed to apply %s migrations: %w", c.name, err)
		}
		if len(applied) > 0 {
			log.Printf("Applied %d %s migrations", len(applied), c.name)
		}
	}
	return nil
}

func ensureCollection(app *pocketbase.PocketBase, name, field string) error {
	collection, err := app.Dao().FindCollectionByNameOrId(name)
	if err != nil {
		// Create collection if it doesn't exist
		collection = &pbModels.Collection{
			Name: name,
			Type: pbModels.CollectionTypeBase,
			Schema: schema.NewSchema(
				&schema.SchemaField{
					Name: field,
					Type: schema.FieldTypeUrl,
				},
			),
		}
		if err := app.Dao().SaveCollection(collection); err != nil {
			return fmt.Errorf("failed to save collection: %w", err)
		}
		log.Printf("Created collection %s", name)
		return nil
	}

	if collection.Schema.GetFieldByName(field) != nil {
		return nil
	}

	collection.Schema.AddField(&schema.SchemaField{
		Name: field,
		Type: schema.FieldTypeUrl,
	})
	if err := app.Dao().SaveCollection(collection); err != nil {
		return fmt.Errorf("failed to add %s field: %w", field, err)
	}
	log.Printf("Added field %s to collection %s", field, name)
	return nil
}

// ResumeURL returns the stored resume URL of a user.
func (s *PocketBaseStore) ResumeURL(ctx context.Context, userID string) (string, error) {
	record, err := s.findUser(userID)
	if err != nil {
		return "", err
	}
	return record.GetString(s.field), nil
}

// SetResumeURL writes the resume URL of a user. An empty url clears it.
func (s *PocketBaseStore) SetResumeURL(ctx context.Context, userID, url string) error {
	record, err := s.findUser(userID)
	if err != nil {
		return err
	}

	record.Set(s.field, url)
	if err := s.app.Dao().SaveRecord(record); err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	return nil
}

func (s *PocketBaseStore) findUser(userID string) (*pbModels.Record, error) {
	record, err := s.app.Dao().FindRecordById(s.collection, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", resume.ErrUserNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user %s: %w", userID, err)
	}
	return record, nil
}

// Put uploads data under key in the configured filesystem (local or S3).
func (s *PocketBaseStore) Put(ctx context.Context, key string, data []byte) error {
	fs, err := s.app.NewFilesystem()
	if err != nil {
		return fmt.Errorf("failed to open filesystem: %w", err)
	}
	defer fs.Close()

	if err := fs.Upload(data, key); err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// Delete removes the file stored under key.
func (s *PocketBaseStore) Delete(ctx context.Context, key string) error {
	fs, err := s.app.NewFilesystem()
	if err != nil {
		return fmt.Errorf("failed to open filesystem: %w", err)
	}
	defer fs.Close()

	if err := fs.Delete(key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// URL returns the public URL of key.
func (s *PocketBaseStore) URL(key string) string {
	return s.publicURL + "/" + key
}

// Key extracts the storage key from a URL returned by URL.
func (s *PocketBaseStore) Key(url string) (string, bool) {
	prefix := s.publicURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

// ServeFile streams the resume file stored under key.
func (s *PocketBaseStore) ServeFile(w http.ResponseWriter, r *http.Request, key string) error {
	if !resume.ValidKey(key) {
		return fmt.Errorf("refusing to serve %q", key)
	}

	fs, err := s.app.NewFilesystem()
	if err != nil {
		return fmt.Errorf("failed to open filesystem: %w", err)
	}
	defer fs.Close()

	name := key[strings.LastIndex(key, "/")+1:]
	return fs.Serve(w, r, key, name)
}

// Close releases the PocketBase database handles.
func (s *PocketBaseStore) Close() error {
	return s.app.ResetBootstrapState()
}

